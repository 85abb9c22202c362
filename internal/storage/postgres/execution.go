package postgres

import (
	"context"
	"fmt"
	"time"

	"talent-sourcing/internal/models"
	"talent-sourcing/internal/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommitExecution applies a sourcing execution in one transaction: it locks
// the payer wallet, plans the debit against the locked balances, decrements
// the pools, writes the ledger movement, inserts the batch with its result
// rows and grants identity unlocks. Either everything lands or nothing does.
//
// The sufficiency check the service ran before calling the ranking engine is
// only an early exit; the authoritative check happens here under the row
// lock, so two concurrent executions against the same payer cannot both
// overdraw.
func (s *Store) CommitExecution(ctx context.Context, commit *models.ExecutionCommit) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin execution tx: %w", err)
	}
	defer tx.RollbackUnlessCommitted()

	batch := &commit.Batch
	cost := batch.Cost

	var plan wallet.DebitPlan

	switch batch.PayerKind {
	case models.PayerRecruiter:
		w, err := lockRecruiterWallet(ctx, tx, batch.PayerID)
		if err != nil {
			return err
		}
		if w == nil {
			return models.ErrInsufficientCredits
		}

		plan, err = wallet.PlanRecruiterDebit(w.OwnCredits, w.InheritedCredits, cost)
		if err != nil {
			return err
		}

		_, err = tx.
			Update("recruiter_wallets").
			Set("own_credits", w.OwnCredits-plan.FromOwn).
			Set("inherited_credits", w.InheritedCredits-plan.FromInherited).
			Set("updated_at", time.Now().UTC()).
			Where("recruiter_id = ?", batch.PayerID).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("debit recruiter wallet: %w", err)
		}

	case models.PayerCompany:
		w, err := lockCompanyWallet(ctx, tx, batch.PayerID)
		if err != nil {
			return err
		}
		if w == nil {
			return models.ErrInsufficientCredits
		}

		plan, err = wallet.PlanCompanyDebit(w.Credits, cost)
		if err != nil {
			return err
		}

		_, err = tx.
			Update("company_wallets").
			Set("credits", w.Credits-cost).
			Set("updated_at", time.Now().UTC()).
			Where("company_id = ?", batch.PayerID).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("debit company wallet: %w", err)
		}

	default:
		return fmt.Errorf("unknown payer kind: %s", batch.PayerKind)
	}

	now := time.Now().UTC()
	batch.Provenance = plan.Provenance
	batch.CreatedAt = now

	_, err = tx.
		InsertInto("sourcing_batches").
		Columns("id", "vacancy_id", "executor_id", "payer_kind", "payer_id", "provenance", "cost", "created_at").
		Values(batch.ID, batch.VacancyID, batch.ExecutorID, batch.PayerKind, batch.PayerID, batch.Provenance, batch.Cost, batch.CreatedAt).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert sourcing batch: %w", err)
	}

	// sourcing_results carries a unique index on (vacancy_id, candidate_id);
	// a concurrent execution that selected an overlapping pool fails here and
	// rolls back instead of sourcing the same candidate twice for the vacancy
	for i := range commit.Results {
		result := &commit.Results[i]
		result.BatchID = batch.ID
		result.VacancyID = batch.VacancyID
		result.Status = models.ResultStatusPending
		result.CreatedAt = now
		result.UpdatedAt = now
		if result.ID == uuid.Nil {
			result.ID = uuid.New()
		}

		_, err = tx.
			InsertInto("sourcing_results").
			Columns("id", "batch_id", "vacancy_id", "candidate_id", "score", "rationale", "matched_skills", "status", "created_at", "updated_at").
			Values(result.ID, result.BatchID, result.VacancyID, result.CandidateID, result.Score, result.Rationale, result.MatchedSkills, result.Status, result.CreatedAt, result.UpdatedAt).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("insert sourcing result: %w", err)
		}
	}

	// the ledger movement is the billing trail; same tx as the debit
	_, err = tx.
		InsertInto("ledger_movements").
		Columns("id", "payer_kind", "payer_id", "amount", "provenance", "action", "description", "vacancy_id", "batch_id", "created_at").
		Values(uuid.New(), batch.PayerKind, batch.PayerID, -cost, plan.Provenance, "sourcing_execution", commit.Description, batch.VacancyID, batch.ID, now).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert ledger movement: %w", err)
	}

	// grants are idempotent: re-unlocking an already unlocked candidate is
	// a no-op, never a second charge
	grantQuery := `
		INSERT INTO identity_unlocks (owner_kind, owner_id, candidate_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_kind, owner_id, candidate_id) DO NOTHING
	`
	for _, grant := range commit.Grants {
		_, err = tx.
			InsertBySql(grantQuery, grant.OwnerKind, grant.OwnerID, grant.CandidateID, now).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("grant identity unlock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit execution tx: %w", err)
	}

	s.logger.Info("execution committed",
		zap.String("batch_id", batch.ID.String()),
		zap.String("vacancy_id", batch.VacancyID.String()),
		zap.String("provenance", plan.Provenance),
		zap.Int64("cost", cost),
		zap.Int("results", len(commit.Results)),
	)

	return nil
}
