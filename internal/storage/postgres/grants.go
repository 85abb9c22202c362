package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HasIdentityAccess evaluates the identity-unlock gate for a candidate
// detail view. Full access when any of these holds for the viewer:
//
//   - the candidate applied to a posting the viewer owns (assigned recruiter
//     or member of the owning company)
//   - the viewer holds an active paid plan
//   - an explicit unlock grant exists for the viewer's recruiter profile or
//     one of their companies
//   - the candidate belongs to a sourcing batch the viewer executed
func (s *Store) HasIdentityAccess(ctx context.Context, viewerID, candidateID uuid.UUID) (bool, error) {
	query := `
		SELECT
			EXISTS (
				SELECT 1
				FROM applications a
				JOIN postings p ON p.id = a.posting_id
				JOIN vacancies v ON v.id = p.vacancy_id
				WHERE a.candidate_id = $2
				AND (
					EXISTS (
						SELECT 1 FROM company_members cm
						WHERE cm.company_id = v.company_id AND cm.user_id = $1
					)
					OR EXISTS (
						SELECT 1
						FROM recruiter_assignments ra
						JOIN recruiter_profiles rp ON rp.id = ra.recruiter_id
						WHERE ra.vacancy_id = v.id AND ra.active = true AND rp.user_id = $1
					)
				)
			)
			OR EXISTS (
				SELECT 1 FROM paid_plans pp
				WHERE pp.user_id = $1 AND pp.active = true
				AND (pp.expires_at IS NULL OR pp.expires_at > NOW())
			)
			OR EXISTS (
				SELECT 1 FROM identity_unlocks iu
				WHERE iu.candidate_id = $2
				AND (
					(iu.owner_kind = 'recruiter' AND iu.owner_id IN (
						SELECT id FROM recruiter_profiles WHERE user_id = $1
					))
					OR (iu.owner_kind = 'company' AND iu.owner_id IN (
						SELECT company_id FROM company_members WHERE user_id = $1
					))
				)
			)
			OR EXISTS (
				SELECT 1
				FROM sourcing_results sr
				JOIN sourcing_batches sb ON sb.id = sr.batch_id
				WHERE sr.candidate_id = $2 AND sb.executor_id = $1
			)
	`

	var hasAccess bool

	err := s.sess.
		SelectBySql(query, viewerID, candidateID).
		LoadOneContext(ctx, &hasAccess)

	if err != nil {
		s.logger.Error("failed to evaluate identity access",
			zap.String("viewer_id", viewerID.String()),
			zap.String("candidate_id", candidateID.String()),
			zap.Error(err),
		)
		return false, fmt.Errorf("evaluate identity access: %w", err)
	}

	return hasAccess, nil
}
