package models

import (
	"time"

	"github.com/google/uuid"
)

// Payer kinds, also recorded as debit provenance on batches and ledger rows.
const (
	PayerRecruiter = "recruiter"
	PayerCompany   = "company"

	// ProvenanceRecruiterInherited marks a recruiter debit that touched
	// credits inherited from a company, even when the inherited pool only
	// covered part of the amount.
	ProvenanceRecruiter          = "recruiter"
	ProvenanceRecruiterInherited = "recruiter-inherited"
	ProvenanceCompany            = "company"
)

// Payer identifies who gets billed for an execution.
type Payer struct {
	Kind string
	ID   uuid.UUID
}

// RecruiterWallet carries two independent non-negative pools: credits the
// recruiter bought (own) and credits granted by a collaborating company
// (inherited). Available = own + inherited.
type RecruiterWallet struct {
	RecruiterID      uuid.UUID  `db:"recruiter_id"`
	OwnCredits       int64      `db:"own_credits"`
	InheritedCredits int64      `db:"inherited_credits"`
	GrantedByCompany *uuid.UUID `db:"granted_by_company"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (w *RecruiterWallet) Available() int64 {
	return w.OwnCredits + w.InheritedCredits
}

type CompanyWallet struct {
	CompanyID uuid.UUID `db:"company_id"`
	Credits   int64     `db:"credits"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LedgerMovement is the immutable billing trail: one row per successful
// debit, written in the same transaction as the balance change.
type LedgerMovement struct {
	ID          uuid.UUID  `db:"id"`
	PayerKind   string     `db:"payer_kind"`
	PayerID     uuid.UUID  `db:"payer_id"`
	Amount      int64      `db:"amount"` // negative for debits
	Provenance  string     `db:"provenance"`
	Action      string     `db:"action"`
	Description string     `db:"description"`
	VacancyID   *uuid.UUID `db:"vacancy_id"`
	BatchID     *uuid.UUID `db:"batch_id"`
	CreatedAt   time.Time  `db:"created_at"`
}
