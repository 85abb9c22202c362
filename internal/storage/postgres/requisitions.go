package postgres

import (
	"context"
	"fmt"

	"talent-sourcing/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetPublishedPosting loads a published posting together with its vacancy
// state. Returns (nil, nil) when the posting does not exist or is not
// published.
func (s *Store) GetPublishedPosting(ctx context.Context, postingID uuid.UUID) (*models.Posting, error) {
	query := `
		SELECT p.id, p.vacancy_id, v.company_id, p.title, p.profile, p.location,
		       p.work_mode, p.salary_from, p.salary_to, p.published,
		       v.recruiter_id, (v.status = 'open') AS vacancy_open, p.published_at
		FROM postings p
		JOIN vacancies v ON v.id = p.vacancy_id
		WHERE p.id = $1 AND p.published = true
	`

	var posting models.Posting

	err := s.sess.
		SelectBySql(query, postingID).
		LoadOneContext(ctx, &posting)

	if err == dbr.ErrNotFound {
		return nil, nil
	}

	if err != nil {
		s.logger.Error("failed to get published posting",
			zap.String("posting_id", postingID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get published posting: %w", err)
	}

	return &posting, nil
}

// AssignedRecruiter resolves the caller to a recruiter profile with an
// active assignment on the vacancy. ok is false when no such assignment
// exists.
func (s *Store) AssignedRecruiter(ctx context.Context, vacancyID, userID uuid.UUID) (uuid.UUID, bool, error) {
	query := `
		SELECT rp.id
		FROM recruiter_profiles rp
		JOIN recruiter_assignments ra ON ra.recruiter_id = rp.id
		WHERE rp.user_id = $1 AND ra.vacancy_id = $2 AND ra.active = true
	`

	var recruiterID uuid.UUID

	err := s.sess.
		SelectBySql(query, userID, vacancyID).
		LoadOneContext(ctx, &recruiterID)

	if err == dbr.ErrNotFound {
		return uuid.Nil, false, nil
	}

	if err != nil {
		s.logger.Error("failed to resolve assigned recruiter",
			zap.String("vacancy_id", vacancyID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return uuid.Nil, false, fmt.Errorf("resolve assigned recruiter: %w", err)
	}

	return recruiterID, true, nil
}

func (s *Store) IsCompanyMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	var count int

	err := s.sess.
		Select("COUNT(*)").
		From("company_members").
		Where("company_id = ? AND user_id = ?", companyID, userID).
		LoadOneContext(ctx, &count)

	if err != nil {
		s.logger.Error("failed to check company membership",
			zap.String("company_id", companyID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return false, fmt.Errorf("check company membership: %w", err)
	}

	return count > 0, nil
}
