package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VacancyStatusOpen      = "open"
	VacancyStatusClosed    = "closed"
	VacancyStatusCancelled = "cancelled"
)

// Vacancy is the internal job requisition. Exactly one owning company,
// optionally one assigned recruiter.
type Vacancy struct {
	ID          uuid.UUID  `db:"id"`
	CompanyID   uuid.UUID  `db:"company_id"`
	RecruiterID *uuid.UUID `db:"recruiter_id"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ClosedAt    *time.Time `db:"closed_at"`
}

func (v *Vacancy) IsOpen() bool {
	return v.Status == VacancyStatusOpen
}

// Posting is the published, candidate-facing projection of a vacancy.
// Only published postings referencing open vacancies are eligible for sourcing.
type Posting struct {
	ID          uuid.UUID  `db:"id"`
	VacancyID   uuid.UUID  `db:"vacancy_id"`
	CompanyID   uuid.UUID  `db:"company_id"`
	Title       string     `db:"title"`
	Profile     string     `db:"profile"`
	Location    string     `db:"location"`
	WorkMode    string     `db:"work_mode"`
	SalaryFrom  *int64     `db:"salary_from"`
	SalaryTo    *int64     `db:"salary_to"`
	Published   bool       `db:"published"`
	RecruiterID *uuid.UUID `db:"recruiter_id"`
	VacancyOpen bool       `db:"vacancy_open"`
	PublishedAt *time.Time `db:"published_at"`
}
