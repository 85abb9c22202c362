package wallet

import (
	"fmt"

	"talent-sourcing/internal/models"
)

// DebitPlan is the split of a recruiter debit across the two pools, computed
// once and applied atomically by the storage layer. Inherited credits drain
// first; own credits cover the remainder.
type DebitPlan struct {
	FromInherited int64
	FromOwn       int64
	Provenance    string
}

func (p DebitPlan) Total() int64 {
	return p.FromInherited + p.FromOwn
}

// PlanRecruiterDebit decides how a recruiter debit splits across pools.
// If inherited credits cover any part of the amount the whole transaction is
// attributed to the inherited source for billing.
func PlanRecruiterDebit(own, inherited, amount int64) (DebitPlan, error) {
	if amount <= 0 {
		return DebitPlan{}, fmt.Errorf("invalid debit amount %d", amount)
	}
	if own+inherited < amount {
		return DebitPlan{}, models.ErrInsufficientCredits
	}

	if inherited >= amount {
		return DebitPlan{
			FromInherited: amount,
			Provenance:    models.ProvenanceRecruiterInherited,
		}, nil
	}

	if inherited > 0 {
		return DebitPlan{
			FromInherited: inherited,
			FromOwn:       amount - inherited,
			Provenance:    models.ProvenanceRecruiterInherited,
		}, nil
	}

	return DebitPlan{
		FromOwn:    amount,
		Provenance: models.ProvenanceRecruiter,
	}, nil
}

// PlanCompanyDebit checks the single company pool.
func PlanCompanyDebit(credits, amount int64) (DebitPlan, error) {
	if amount <= 0 {
		return DebitPlan{}, fmt.Errorf("invalid debit amount %d", amount)
	}
	if credits < amount {
		return DebitPlan{}, models.ErrInsufficientCredits
	}
	return DebitPlan{
		FromOwn:    amount,
		Provenance: models.ProvenanceCompany,
	}, nil
}
