package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Candidate holds the professional attributes visible to everyone and the
// identity attributes (name, email, phone, location) that are access
// controlled independently.
type Candidate struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	FullName          string         `db:"full_name" json:"full_name,omitempty"`
	Email             string         `db:"email" json:"email,omitempty"`
	Phone             string         `db:"phone" json:"phone,omitempty"`
	Location          string         `db:"location" json:"location,omitempty"`
	Headline          string         `db:"headline" json:"headline"`
	Summary           string         `db:"summary" json:"summary"`
	Skills            pq.StringArray `db:"skills" json:"skills"`
	ExperienceYears   int            `db:"experience_years" json:"experience_years"`
	SalaryExpectation *int64         `db:"salary_expectation" json:"salary_expectation,omitempty"`
	AvailableFrom     *time.Time     `db:"available_from" json:"available_from,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"-"`
}

// Redact strips the identity attributes. Professional attributes stay visible.
func (c *Candidate) Redact() {
	c.FullName = ""
	c.Email = ""
	c.Phone = ""
	c.Location = ""
}
