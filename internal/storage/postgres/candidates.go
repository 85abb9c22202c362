package postgres

import (
	"context"
	"fmt"

	"talent-sourcing/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SelectEligibleCandidates returns candidates that have neither applied to
// the posting nor appeared in any earlier sourcing batch for the vacancy.
// The second exclusion keeps a candidate from being sourced twice for the
// same job.
func (s *Store) SelectEligibleCandidates(ctx context.Context, vacancyID, postingID uuid.UUID, limit int) ([]models.Candidate, error) {
	query := `
		SELECT c.*
		FROM candidates c
		WHERE NOT EXISTS (
			SELECT 1 FROM applications a
			WHERE a.candidate_id = c.id AND a.posting_id = $1
		)
		AND NOT EXISTS (
			SELECT 1 FROM sourcing_results sr
			WHERE sr.candidate_id = c.id AND sr.vacancy_id = $2
		)
		ORDER BY c.created_at DESC
		LIMIT $3
	`

	var candidates []models.Candidate

	_, err := s.sess.
		SelectBySql(query, postingID, vacancyID, limit).
		LoadContext(ctx, &candidates)

	if err != nil {
		s.logger.Error("failed to select eligible candidates",
			zap.String("vacancy_id", vacancyID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("select eligible candidates: %w", err)
	}

	s.logger.Debug("eligible candidates selected",
		zap.String("vacancy_id", vacancyID.String()),
		zap.Int("count", len(candidates)),
	)

	return candidates, nil
}

// GetCandidate returns (nil, nil) when the candidate does not exist.
func (s *Store) GetCandidate(ctx context.Context, candidateID uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate

	err := s.sess.
		Select("*").
		From("candidates").
		Where("id = ?", candidateID).
		LoadOneContext(ctx, &candidate)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get candidate",
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get candidate: %w", err)
	}

	return &candidate, nil
}
