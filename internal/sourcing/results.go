package sourcing

import (
	"context"

	"talent-sourcing/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransitionResult applies a caller-initiated contact-status change on a
// sourcing result. Only the batch executor may move its results.
func (s *Service) TransitionResult(ctx context.Context, userID, resultID uuid.UUID, status string, note *string) (*models.SourcingResult, error) {
	result, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, models.ErrNotFound
	}

	batch, err := s.store.GetBatch(ctx, result.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, models.ErrNotFound
	}
	if batch.ExecutorID != userID {
		return nil, models.ErrForbidden
	}

	if !models.CanTransitionResultStatus(result.Status, status) {
		s.logger.Warn("invalid result status transition",
			zap.String("result_id", resultID.String()),
			zap.String("from", result.Status),
			zap.String("to", status),
		)
		return nil, models.ErrInvalidTransition
	}

	contactedAt := s.now().UTC()
	if err := s.store.UpdateResultStatus(ctx, resultID, status, note, contactedAt); err != nil {
		return nil, err
	}

	result.Status = status
	result.ContactedAt = &contactedAt
	result.UpdatedAt = contactedAt
	if note != nil {
		result.FollowUpNote = note
	}

	return result, nil
}

// BatchResults returns a batch with its ranked results, executor only.
func (s *Service) BatchResults(ctx context.Context, userID, batchID uuid.UUID) (*models.SourcingBatch, []models.SourcingResult, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	if batch == nil {
		return nil, nil, models.ErrNotFound
	}
	if batch.ExecutorID != userID {
		return nil, nil, models.ErrForbidden
	}

	results, err := s.store.GetBatchResults(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}

	return batch, results, nil
}

// CandidateDetail returns the candidate through the identity-unlock gate:
// contact fields are redacted unless some access path holds for the viewer.
func (s *Service) CandidateDetail(ctx context.Context, viewerID, candidateID uuid.UUID) (*models.Candidate, bool, error) {
	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, false, err
	}
	if candidate == nil {
		return nil, false, models.ErrNotFound
	}

	unlocked, err := s.store.HasIdentityAccess(ctx, viewerID, candidateID)
	if err != nil {
		return nil, false, err
	}

	if !unlocked {
		candidate.Redact()
	}

	return candidate, unlocked, nil
}
