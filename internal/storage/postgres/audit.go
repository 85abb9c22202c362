package postgres

import (
	"context"
	"fmt"
	"time"

	"talent-sourcing/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppendAudit writes one immutable audit row. There is no update or delete
// path: the table doubles as the rate-limit source of truth.
func (s *Store) AppendAudit(ctx context.Context, record *models.AuditRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.sess.
		InsertInto("sourcing_audit").
		Columns("id", "user_id", "vacancy_id", "action", "created_at").
		Values(record.ID, record.UserID, record.VacancyID, record.Action, record.CreatedAt).
		ExecContext(ctx)

	if err != nil {
		s.logger.Error("failed to append audit record",
			zap.String("user_id", record.UserID.String()),
			zap.String("vacancy_id", record.VacancyID.String()),
			zap.String("action", record.Action),
			zap.Error(err),
		)
		return fmt.Errorf("append audit record: %w", err)
	}

	s.logger.Info("audit record written",
		zap.String("user_id", record.UserID.String()),
		zap.String("vacancy_id", record.VacancyID.String()),
		zap.String("action", record.Action),
	)

	return nil
}

// CountDryRuns counts the caller's dry runs inside the sliding window,
// straight from the audit table.
func (s *Store) CountDryRuns(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int

	err := s.sess.
		Select("COUNT(*)").
		From("sourcing_audit").
		Where("user_id = ? AND action = ? AND created_at >= ?", userID, models.AuditActionDryRun, since).
		LoadOneContext(ctx, &count)

	if err != nil {
		s.logger.Error("failed to count dry runs",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return 0, fmt.Errorf("count dry runs: %w", err)
	}

	return count, nil
}

func (s *Store) CountDryRunsForVacancy(ctx context.Context, userID, vacancyID uuid.UUID, since time.Time) (int, error) {
	var count int

	err := s.sess.
		Select("COUNT(*)").
		From("sourcing_audit").
		Where("user_id = ? AND vacancy_id = ? AND action = ? AND created_at >= ?",
			userID, vacancyID, models.AuditActionDryRun, since).
		LoadOneContext(ctx, &count)

	if err != nil {
		s.logger.Error("failed to count dry runs for vacancy",
			zap.String("user_id", userID.String()),
			zap.String("vacancy_id", vacancyID.String()),
			zap.Error(err),
		)
		return 0, fmt.Errorf("count dry runs for vacancy: %w", err)
	}

	return count, nil
}
