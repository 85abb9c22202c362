package models

import "testing"

func TestCanTransitionResultStatus(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to contacted", ResultStatusPending, ResultStatusContacted, true},
		{"pending to not interested", ResultStatusPending, ResultStatusNotInterested, true},
		{"pending to discarded", ResultStatusPending, ResultStatusDiscarded, true},
		{"pending to interested skips contact", ResultStatusPending, ResultStatusInterested, false},
		{"pending to applied skips funnel", ResultStatusPending, ResultStatusApplied, false},
		{"contacted to interested", ResultStatusContacted, ResultStatusInterested, true},
		{"contacted to not interested", ResultStatusContacted, ResultStatusNotInterested, true},
		{"contacted back to pending", ResultStatusContacted, ResultStatusPending, false},
		{"interested to applied", ResultStatusInterested, ResultStatusApplied, true},
		{"interested to discarded", ResultStatusInterested, ResultStatusDiscarded, true},
		{"interested to contacted", ResultStatusInterested, ResultStatusContacted, false},
		{"not interested to discarded", ResultStatusNotInterested, ResultStatusDiscarded, true},
		{"applied to discarded", ResultStatusApplied, ResultStatusDiscarded, true},
		{"discarded is terminal", ResultStatusDiscarded, ResultStatusDiscarded, false},
		{"discarded to contacted", ResultStatusDiscarded, ResultStatusContacted, false},
		{"unknown status", "archived", ResultStatusContacted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransitionResultStatus(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransitionResultStatus(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCandidateRedact(t *testing.T) {
	candidate := Candidate{
		FullName:        "Ana Torres",
		Email:           "ana@example.com",
		Phone:           "+52 55 0000 0000",
		Location:        "CDMX",
		Headline:        "Backend engineer",
		Summary:         "8 years building payment systems",
		ExperienceYears: 8,
	}

	candidate.Redact()

	if candidate.FullName != "" || candidate.Email != "" || candidate.Phone != "" || candidate.Location != "" {
		t.Errorf("Redact() left identity fields: %+v", candidate)
	}
	if candidate.Headline == "" || candidate.Summary == "" || candidate.ExperienceYears != 8 {
		t.Errorf("Redact() touched professional fields: %+v", candidate)
	}
}
