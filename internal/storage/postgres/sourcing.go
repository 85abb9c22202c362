package postgres

import (
	"context"
	"fmt"
	"time"

	"talent-sourcing/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetBatch returns (nil, nil) when the batch does not exist.
func (s *Store) GetBatch(ctx context.Context, batchID uuid.UUID) (*models.SourcingBatch, error) {
	var batch models.SourcingBatch

	err := s.sess.
		Select("*").
		From("sourcing_batches").
		Where("id = ?", batchID).
		LoadOneContext(ctx, &batch)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get sourcing batch",
			zap.String("batch_id", batchID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get sourcing batch: %w", err)
	}

	return &batch, nil
}

func (s *Store) GetBatchResults(ctx context.Context, batchID uuid.UUID) ([]models.SourcingResult, error) {
	var results []models.SourcingResult

	_, err := s.sess.
		Select("*").
		From("sourcing_results").
		Where("batch_id = ?", batchID).
		OrderBy("score DESC").
		LoadContext(ctx, &results)

	if err != nil {
		s.logger.Error("failed to get batch results",
			zap.String("batch_id", batchID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get batch results: %w", err)
	}

	return results, nil
}

// GetResult returns (nil, nil) when the result row does not exist.
func (s *Store) GetResult(ctx context.Context, resultID uuid.UUID) (*models.SourcingResult, error) {
	var result models.SourcingResult

	err := s.sess.
		Select("*").
		From("sourcing_results").
		Where("id = ?", resultID).
		LoadOneContext(ctx, &result)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get sourcing result",
			zap.String("result_id", resultID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get sourcing result: %w", err)
	}

	return &result, nil
}

// UpdateResultStatus records a caller-initiated contact-status transition.
// The transition itself has already been validated against the state
// machine; contactedAt is the transition time.
func (s *Store) UpdateResultStatus(ctx context.Context, resultID uuid.UUID, status string, note *string, contactedAt time.Time) error {
	stmt := s.sess.
		Update("sourcing_results").
		Set("status", status).
		Set("contacted_at", contactedAt).
		Set("updated_at", contactedAt).
		Where("id = ?", resultID)

	if note != nil {
		stmt = stmt.Set("follow_up_note", *note)
	}

	_, err := stmt.ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to update result status",
			zap.String("result_id", resultID.String()),
			zap.String("status", status),
			zap.Error(err),
		)
		return fmt.Errorf("update result status: %w", err)
	}

	s.logger.Info("result status updated",
		zap.String("result_id", resultID.String()),
		zap.String("status", status),
	)

	return nil
}
