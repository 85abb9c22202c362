package sourcing

import (
	"context"
	"errors"
	"testing"
	"time"

	"talent-sourcing/internal/api/ranking"
	"talent-sourcing/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type statusUpdate struct {
	resultID uuid.UUID
	status   string
	note     *string
}

type fakeStore struct {
	posting     *models.Posting
	recruiterID uuid.UUID
	assigned    bool
	member      bool

	pool      []models.Candidate
	available int64

	dryRunsGlobal  int
	dryRunsVacancy int

	auditRows []models.AuditRecord
	commits   []*models.ExecutionCommit
	commitErr error

	result        *models.SourcingResult
	batch         *models.SourcingBatch
	batchResults  []models.SourcingResult
	candidate     *models.Candidate
	hasAccess     bool
	statusUpdates []statusUpdate
}

func (f *fakeStore) GetPublishedPosting(_ context.Context, _ uuid.UUID) (*models.Posting, error) {
	return f.posting, nil
}

func (f *fakeStore) AssignedRecruiter(_ context.Context, _, _ uuid.UUID) (uuid.UUID, bool, error) {
	return f.recruiterID, f.assigned, nil
}

func (f *fakeStore) IsCompanyMember(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return f.member, nil
}

func (f *fakeStore) SelectEligibleCandidates(_ context.Context, _, _ uuid.UUID, limit int) ([]models.Candidate, error) {
	if len(f.pool) > limit {
		return f.pool[:limit], nil
	}
	return f.pool, nil
}

func (f *fakeStore) GetCandidate(_ context.Context, _ uuid.UUID) (*models.Candidate, error) {
	return f.candidate, nil
}

func (f *fakeStore) HasIdentityAccess(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return f.hasAccess, nil
}

func (f *fakeStore) AvailableCredits(_ context.Context, _ models.Payer) (int64, error) {
	return f.available, nil
}

func (f *fakeStore) AppendAudit(_ context.Context, record *models.AuditRecord) error {
	f.auditRows = append(f.auditRows, *record)
	return nil
}

func (f *fakeStore) CountDryRuns(_ context.Context, _ uuid.UUID, _ time.Time) (int, error) {
	return f.dryRunsGlobal, nil
}

func (f *fakeStore) CountDryRunsForVacancy(_ context.Context, _, _ uuid.UUID, _ time.Time) (int, error) {
	return f.dryRunsVacancy, nil
}

func (f *fakeStore) CommitExecution(_ context.Context, commit *models.ExecutionCommit) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	commit.Batch.Provenance = models.ProvenanceRecruiterInherited
	f.commits = append(f.commits, commit)
	return nil
}

func (f *fakeStore) GetBatch(_ context.Context, _ uuid.UUID) (*models.SourcingBatch, error) {
	return f.batch, nil
}

func (f *fakeStore) GetBatchResults(_ context.Context, _ uuid.UUID) ([]models.SourcingResult, error) {
	return f.batchResults, nil
}

func (f *fakeStore) GetResult(_ context.Context, _ uuid.UUID) (*models.SourcingResult, error) {
	return f.result, nil
}

func (f *fakeStore) UpdateResultStatus(_ context.Context, resultID uuid.UUID, status string, note *string, _ time.Time) error {
	f.statusUpdates = append(f.statusUpdates, statusUpdate{resultID: resultID, status: status, note: note})
	return nil
}

type fakeRanker struct {
	ranked []ranking.RankedCandidate
	err    error
	calls  int
}

func (f *fakeRanker) RankCandidates(_ context.Context, _ ranking.JobProfile, _ []ranking.CandidateSummary) ([]ranking.RankedCandidate, error) {
	f.calls++
	return f.ranked, f.err
}

func testConfig() Config {
	return Config{
		Cost:                  50,
		DryRunDailyLimit:      20,
		DryRunPerVacancyLimit: 3,
		PoolFetchLimit:        100,
		PoolAnalyzeLimit:      50,
	}
}

func openPosting() *models.Posting {
	return &models.Posting{
		ID:          uuid.New(),
		VacancyID:   uuid.New(),
		CompanyID:   uuid.New(),
		Title:       "Backend Engineer",
		Profile:     "Go, PostgreSQL, payments experience",
		Published:   true,
		VacancyOpen: true,
	}
}

func candidatePool(n int) []models.Candidate {
	pool := make([]models.Candidate, n)
	for i := range pool {
		pool[i] = models.Candidate{ID: uuid.New(), Headline: "Engineer"}
	}
	return pool
}

func newService(store *fakeStore, ranker *fakeRanker) *Service {
	svc := New(store, ranker, testConfig(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDryRun_Success(t *testing.T) {
	store := &fakeStore{
		posting:     openPosting(),
		assigned:    true,
		recruiterID: uuid.New(),
		pool:        candidatePool(60),
		available:   120,
	}
	svc := newService(store, &fakeRanker{})

	estimate, err := svc.DryRun(context.Background(), uuid.New(), store.posting.ID)
	if err != nil {
		t.Fatalf("DryRun() unexpected error: %v", err)
	}

	if estimate.CandidatesToAnalyze != 50 {
		t.Errorf("CandidatesToAnalyze = %d, want 50 (analyze cap)", estimate.CandidatesToAnalyze)
	}
	if estimate.Cost != 50 {
		t.Errorf("Cost = %d, want 50", estimate.Cost)
	}
	if !estimate.SufficientCredits {
		t.Error("SufficientCredits = false, want true")
	}

	if len(store.auditRows) != 1 || store.auditRows[0].Action != models.AuditActionDryRun {
		t.Errorf("audit rows = %+v, want exactly one dry_run row", store.auditRows)
	}
	if len(store.commits) != 0 {
		t.Errorf("dry run touched the wallet: %d commits", len(store.commits))
	}
}

func TestDryRun_InsufficientCreditsStillSucceeds(t *testing.T) {
	store := &fakeStore{
		posting:   openPosting(),
		assigned:  true,
		pool:      candidatePool(5),
		available: 10,
	}
	svc := newService(store, &fakeRanker{})

	estimate, err := svc.DryRun(context.Background(), uuid.New(), store.posting.ID)
	if err != nil {
		t.Fatalf("DryRun() unexpected error: %v", err)
	}
	if estimate.SufficientCredits {
		t.Error("SufficientCredits = true with a balance below cost")
	}
	if len(store.auditRows) != 1 {
		t.Errorf("got %d audit rows, want 1", len(store.auditRows))
	}
}

func TestDryRun_RateLimits(t *testing.T) {
	tests := []struct {
		name           string
		dryRunsGlobal  int
		dryRunsVacancy int
		wantLimited    bool
	}{
		{"below both windows", 5, 2, false},
		{"per-vacancy window full", 5, 3, true},
		{"global window full", 20, 0, true},
		{"last allowed per-vacancy call", 19, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				posting:        openPosting(),
				assigned:       true,
				pool:           candidatePool(5),
				available:      100,
				dryRunsGlobal:  tt.dryRunsGlobal,
				dryRunsVacancy: tt.dryRunsVacancy,
			}
			svc := newService(store, &fakeRanker{})

			_, err := svc.DryRun(context.Background(), uuid.New(), store.posting.ID)

			if tt.wantLimited {
				if !errors.Is(err, models.ErrRateLimited) {
					t.Fatalf("DryRun() error = %v, want ErrRateLimited", err)
				}
				// a rejected attempt must not leave a trail
				if len(store.auditRows) != 0 {
					t.Errorf("rejected dry run wrote %d audit rows", len(store.auditRows))
				}
				return
			}

			if err != nil {
				t.Fatalf("DryRun() unexpected error: %v", err)
			}
			if len(store.auditRows) != 1 {
				t.Errorf("got %d audit rows, want 1", len(store.auditRows))
			}
		})
	}
}

func TestDryRun_NotFound(t *testing.T) {
	t.Run("missing posting", func(t *testing.T) {
		svc := newService(&fakeStore{}, &fakeRanker{})
		_, err := svc.DryRun(context.Background(), uuid.New(), uuid.New())
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("DryRun() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("closed vacancy", func(t *testing.T) {
		posting := openPosting()
		posting.VacancyOpen = false
		svc := newService(&fakeStore{posting: posting, assigned: true}, &fakeRanker{})
		_, err := svc.DryRun(context.Background(), uuid.New(), posting.ID)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("DryRun() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDryRun_Forbidden(t *testing.T) {
	store := &fakeStore{posting: openPosting()}
	svc := newService(store, &fakeRanker{})

	_, err := svc.DryRun(context.Background(), uuid.New(), store.posting.ID)
	if !errors.Is(err, models.ErrForbidden) {
		t.Errorf("DryRun() error = %v, want ErrForbidden", err)
	}
	if len(store.auditRows) != 0 {
		t.Errorf("forbidden dry run wrote %d audit rows", len(store.auditRows))
	}
}

func TestDryRun_NoCandidates(t *testing.T) {
	store := &fakeStore{posting: openPosting(), assigned: true}
	svc := newService(store, &fakeRanker{})

	_, err := svc.DryRun(context.Background(), uuid.New(), store.posting.ID)
	if !errors.Is(err, models.ErrNoCandidates) {
		t.Errorf("DryRun() error = %v, want ErrNoCandidates", err)
	}
}

func TestExecute_Success(t *testing.T) {
	pool := candidatePool(5)
	recruiterID := uuid.New()
	store := &fakeStore{
		posting:     openPosting(),
		assigned:    true,
		recruiterID: recruiterID,
		pool:        pool,
		available:   100,
	}
	ranker := &fakeRanker{
		ranked: []ranking.RankedCandidate{
			{Index: 3, Score: 88, Rationale: "great fit", MatchedSkills: []string{"Go"}},
			{Index: 1, Score: 72, Rationale: "decent fit"},
		},
	}
	svc := newService(store, ranker)
	userID := uuid.New()

	result, err := svc.Execute(context.Background(), userID, store.posting.ID)
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	if result.CandidatesFound != 2 {
		t.Errorf("CandidatesFound = %d, want 2", result.CandidatesFound)
	}
	if result.CreditsSpent != 50 {
		t.Errorf("CreditsSpent = %d, want 50", result.CreditsSpent)
	}
	if result.Provenance != models.ProvenanceRecruiterInherited {
		t.Errorf("Provenance = %q, want the one recorded at debit time", result.Provenance)
	}

	if len(store.auditRows) != 1 || store.auditRows[0].Action != models.AuditActionExecution {
		t.Fatalf("audit rows = %+v, want exactly one execution row", store.auditRows)
	}

	if len(store.commits) != 1 {
		t.Fatalf("got %d commits, want 1", len(store.commits))
	}
	commit := store.commits[0]

	if commit.Batch.Cost != 50 {
		t.Errorf("batch cost = %d, want 50", commit.Batch.Cost)
	}
	if commit.Batch.PayerKind != models.PayerRecruiter || commit.Batch.PayerID != recruiterID {
		t.Errorf("payer = %s/%s, want recruiter/%s", commit.Batch.PayerKind, commit.Batch.PayerID, recruiterID)
	}
	if commit.Batch.ExecutorID != userID {
		t.Errorf("executor = %s, want %s", commit.Batch.ExecutorID, userID)
	}

	// indices resolve against the exact slice sent to the engine
	if len(commit.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(commit.Results))
	}
	if commit.Results[0].CandidateID != pool[3].ID {
		t.Errorf("first result candidate = %s, want pool[3] %s", commit.Results[0].CandidateID, pool[3].ID)
	}
	if commit.Results[1].CandidateID != pool[1].ID {
		t.Errorf("second result candidate = %s, want pool[1] %s", commit.Results[1].CandidateID, pool[1].ID)
	}

	if len(commit.Grants) != 2 {
		t.Errorf("got %d grants, want 2", len(commit.Grants))
	}
}

func TestExecute_CompanyPayer(t *testing.T) {
	store := &fakeStore{
		posting:   openPosting(),
		member:    true,
		pool:      candidatePool(2),
		available: 60,
	}
	ranker := &fakeRanker{ranked: []ranking.RankedCandidate{{Index: 0, Score: 70}}}
	svc := newService(store, ranker)

	if _, err := svc.Execute(context.Background(), uuid.New(), store.posting.ID); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	commit := store.commits[0]
	if commit.Batch.PayerKind != models.PayerCompany || commit.Batch.PayerID != store.posting.CompanyID {
		t.Errorf("payer = %s/%s, want company/%s", commit.Batch.PayerKind, commit.Batch.PayerID, store.posting.CompanyID)
	}
}

func TestExecute_OneGrantPerCandidate(t *testing.T) {
	pool := candidatePool(4)
	recruiterID := uuid.New()
	store := &fakeStore{
		posting:     openPosting(),
		assigned:    true,
		recruiterID: recruiterID,
		pool:        pool,
		available:   100,
	}
	ranker := &fakeRanker{
		ranked: []ranking.RankedCandidate{
			{Index: 2, Score: 90},
			{Index: 0, Score: 75},
			{Index: 3, Score: 60},
		},
	}
	svc := newService(store, ranker)

	if _, err := svc.Execute(context.Background(), uuid.New(), store.posting.ID); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}

	commit := store.commits[0]
	if len(commit.Grants) != len(commit.Results) {
		t.Fatalf("got %d grants for %d results, want one grant per result", len(commit.Grants), len(commit.Results))
	}

	granted := make(map[uuid.UUID]bool, len(commit.Grants))
	for i, grant := range commit.Grants {
		if granted[grant.CandidateID] {
			t.Errorf("candidate %s granted twice in one batch", grant.CandidateID)
		}
		granted[grant.CandidateID] = true

		if grant.CandidateID != commit.Results[i].CandidateID {
			t.Errorf("grant %d candidate = %s, want result candidate %s", i, grant.CandidateID, commit.Results[i].CandidateID)
		}
		if grant.OwnerKind != models.PayerRecruiter || grant.OwnerID != recruiterID {
			t.Errorf("grant %d owner = %s/%s, want recruiter/%s", i, grant.OwnerKind, grant.OwnerID, recruiterID)
		}
	}
}

func TestExecute_InsufficientCredits(t *testing.T) {
	store := &fakeStore{
		posting:   openPosting(),
		assigned:  true,
		pool:      candidatePool(3),
		available: 10,
	}
	ranker := &fakeRanker{}
	svc := newService(store, ranker)

	_, err := svc.Execute(context.Background(), uuid.New(), store.posting.ID)
	if !errors.Is(err, models.ErrInsufficientCredits) {
		t.Fatalf("Execute() error = %v, want ErrInsufficientCredits", err)
	}

	if ranker.calls != 0 {
		t.Error("ranking engine was called with insufficient credits")
	}
	if len(store.auditRows) != 0 {
		t.Errorf("got %d audit rows, want 0 before the sufficiency check passes", len(store.auditRows))
	}
	if len(store.commits) != 0 {
		t.Errorf("got %d commits, want 0", len(store.commits))
	}
}

func TestExecute_RankingFailureLeavesNoDebit(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"parse error", ranking.ErrParse},
		{"throttled", ranking.ErrThrottled},
		{"quota exceeded", ranking.ErrQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{
				posting:   openPosting(),
				assigned:  true,
				pool:      candidatePool(3),
				available: 100,
			}
			svc := newService(store, &fakeRanker{err: tt.err})

			_, err := svc.Execute(context.Background(), uuid.New(), store.posting.ID)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.err)
			}

			// the pre-call execution row stays; nothing else lands
			if len(store.auditRows) != 1 || store.auditRows[0].Action != models.AuditActionExecution {
				t.Errorf("audit rows = %+v, want exactly the pre-call execution row", store.auditRows)
			}
			if len(store.commits) != 0 {
				t.Errorf("ranking failure still committed %d executions", len(store.commits))
			}
		})
	}
}

func TestExecute_EmptyRankingIsNotCharged(t *testing.T) {
	store := &fakeStore{
		posting:   openPosting(),
		assigned:  true,
		pool:      candidatePool(3),
		available: 100,
	}
	svc := newService(store, &fakeRanker{ranked: []ranking.RankedCandidate{}})

	_, err := svc.Execute(context.Background(), uuid.New(), store.posting.ID)
	if !errors.Is(err, models.ErrNoCandidates) {
		t.Fatalf("Execute() error = %v, want ErrNoCandidates", err)
	}
	if len(store.commits) != 0 {
		t.Errorf("empty ranking still committed %d executions", len(store.commits))
	}
}

func TestTransitionResult(t *testing.T) {
	executorID := uuid.New()
	batchID := uuid.New()

	newStore := func(status string) *fakeStore {
		return &fakeStore{
			result: &models.SourcingResult{ID: uuid.New(), BatchID: batchID, Status: status},
			batch:  &models.SourcingBatch{ID: batchID, ExecutorID: executorID},
		}
	}

	t.Run("valid transition with note", func(t *testing.T) {
		store := newStore(models.ResultStatusPending)
		svc := newService(store, &fakeRanker{})
		note := "left a voicemail"

		result, err := svc.TransitionResult(context.Background(), executorID, store.result.ID, models.ResultStatusContacted, &note)
		if err != nil {
			t.Fatalf("TransitionResult() unexpected error: %v", err)
		}
		if result.Status != models.ResultStatusContacted {
			t.Errorf("status = %q, want contacted", result.Status)
		}
		if result.ContactedAt == nil {
			t.Error("ContactedAt not set on transition")
		}
		if len(store.statusUpdates) != 1 || store.statusUpdates[0].note == nil {
			t.Errorf("status updates = %+v, want one with note", store.statusUpdates)
		}
	})

	t.Run("invalid transition", func(t *testing.T) {
		store := newStore(models.ResultStatusPending)
		svc := newService(store, &fakeRanker{})

		_, err := svc.TransitionResult(context.Background(), executorID, store.result.ID, models.ResultStatusApplied, nil)
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("TransitionResult() error = %v, want ErrInvalidTransition", err)
		}
		if len(store.statusUpdates) != 0 {
			t.Error("invalid transition was persisted")
		}
	})

	t.Run("not the executor", func(t *testing.T) {
		store := newStore(models.ResultStatusPending)
		svc := newService(store, &fakeRanker{})

		_, err := svc.TransitionResult(context.Background(), uuid.New(), store.result.ID, models.ResultStatusContacted, nil)
		if !errors.Is(err, models.ErrForbidden) {
			t.Errorf("TransitionResult() error = %v, want ErrForbidden", err)
		}
	})
}

func TestCandidateDetail(t *testing.T) {
	candidate := func() *models.Candidate {
		return &models.Candidate{
			ID:       uuid.New(),
			FullName: "Ana Torres",
			Email:    "ana@example.com",
			Phone:    "+52 55 0000 0000",
			Location: "CDMX",
			Headline: "Backend engineer",
		}
	}

	t.Run("unlocked viewer sees identity", func(t *testing.T) {
		store := &fakeStore{candidate: candidate(), hasAccess: true}
		svc := newService(store, &fakeRanker{})

		got, unlocked, err := svc.CandidateDetail(context.Background(), uuid.New(), store.candidate.ID)
		if err != nil {
			t.Fatalf("CandidateDetail() unexpected error: %v", err)
		}
		if !unlocked || got.FullName == "" || got.Email == "" {
			t.Errorf("unlocked view redacted: %+v", got)
		}
	})

	t.Run("locked viewer gets redacted contact fields", func(t *testing.T) {
		store := &fakeStore{candidate: candidate(), hasAccess: false}
		svc := newService(store, &fakeRanker{})

		got, unlocked, err := svc.CandidateDetail(context.Background(), uuid.New(), store.candidate.ID)
		if err != nil {
			t.Fatalf("CandidateDetail() unexpected error: %v", err)
		}
		if unlocked {
			t.Error("unlocked = true without any access path")
		}
		if got.FullName != "" || got.Email != "" || got.Phone != "" || got.Location != "" {
			t.Errorf("identity fields not redacted: %+v", got)
		}
		if got.Headline == "" {
			t.Error("professional fields should stay visible")
		}
	})
}
