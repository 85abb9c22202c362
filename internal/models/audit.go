package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit action kinds. The audit table doubles as the dry-run rate limiter:
// window counts are computed from it directly so the limiter and the trail
// can never disagree.
const (
	AuditActionDryRun    = "dry_run"
	AuditActionExecution = "execution"
)

// AuditRecord is append-only. Never updated or deleted.
type AuditRecord struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	VacancyID uuid.UUID `db:"vacancy_id"`
	Action    string    `db:"action"`
	CreatedAt time.Time `db:"created_at"`
}
