package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SourcingBatch groups every ranked result produced by one execution call.
// Cost is charged exactly once per batch.
type SourcingBatch struct {
	ID         uuid.UUID `db:"id" json:"id"`
	VacancyID  uuid.UUID `db:"vacancy_id" json:"vacancy_id"`
	ExecutorID uuid.UUID `db:"executor_id" json:"executor_id"`
	PayerKind  string    `db:"payer_kind" json:"payer_kind"`
	PayerID    uuid.UUID `db:"payer_id" json:"-"`
	Provenance string    `db:"provenance" json:"provenance"`
	Cost       int64     `db:"cost" json:"cost"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Contact-status state machine for a sourcing result.
const (
	ResultStatusPending       = "pending"
	ResultStatusContacted     = "contacted"
	ResultStatusInterested    = "interested"
	ResultStatusNotInterested = "not_interested"
	ResultStatusApplied       = "applied"
	ResultStatusDiscarded     = "discarded"
)

var resultTransitions = map[string][]string{
	ResultStatusPending:    {ResultStatusContacted, ResultStatusNotInterested},
	ResultStatusContacted:  {ResultStatusInterested, ResultStatusNotInterested},
	ResultStatusInterested: {ResultStatusApplied},
}

// CanTransitionResultStatus reports whether a caller-initiated move from one
// contact status to another is allowed. Any non-discarded status may move to
// discarded.
func CanTransitionResultStatus(from, to string) bool {
	if to == ResultStatusDiscarded {
		return from != ResultStatusDiscarded
	}
	for _, next := range resultTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcingResult is one (batch, candidate) row. A candidate appears at most
// once per vacancy across all batches.
type SourcingResult struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	BatchID       uuid.UUID      `db:"batch_id" json:"batch_id"`
	VacancyID     uuid.UUID      `db:"vacancy_id" json:"vacancy_id"`
	CandidateID   uuid.UUID      `db:"candidate_id" json:"candidate_id"`
	Score         int            `db:"score" json:"score"`
	Rationale     string         `db:"rationale" json:"rationale"`
	MatchedSkills pq.StringArray `db:"matched_skills" json:"matched_skills"`
	Status        string         `db:"status" json:"status"`
	FollowUpNote  *string        `db:"follow_up_note" json:"follow_up_note,omitempty"`
	ContactedAt   *time.Time     `db:"contacted_at" json:"contacted_at,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ExecutionCommit is everything the storage layer persists atomically after
// a successful ranking call: the debit (planned under row lock from the
// batch cost), the ledger movement, the batch, its results and the identity
// grants. Batch.Provenance and the movement are filled by the store from
// the debit actually applied.
type ExecutionCommit struct {
	Batch       SourcingBatch
	Results     []SourcingResult
	Grants      []UnlockGrant
	Description string
}

// UnlockGrant marks that full identity of a candidate has been paid for by a
// recruiter or company and stays visible for that pair regardless of later
// balance changes.
type UnlockGrant struct {
	OwnerKind   string    `db:"owner_kind"`
	OwnerID     uuid.UUID `db:"owner_id"`
	CandidateID uuid.UUID `db:"candidate_id"`
	CreatedAt   time.Time `db:"created_at"`
}
