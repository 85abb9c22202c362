package sourcing

import (
	"context"
	"fmt"
	"time"

	"talent-sourcing/internal/api/ranking"
	"talent-sourcing/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is everything the sourcing pipeline needs from the system of
// record. Implemented by storage/postgres.
type Store interface {
	GetPublishedPosting(ctx context.Context, postingID uuid.UUID) (*models.Posting, error)
	AssignedRecruiter(ctx context.Context, vacancyID, userID uuid.UUID) (uuid.UUID, bool, error)
	IsCompanyMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error)

	SelectEligibleCandidates(ctx context.Context, vacancyID, postingID uuid.UUID, limit int) ([]models.Candidate, error)
	GetCandidate(ctx context.Context, candidateID uuid.UUID) (*models.Candidate, error)
	HasIdentityAccess(ctx context.Context, viewerID, candidateID uuid.UUID) (bool, error)

	AvailableCredits(ctx context.Context, payer models.Payer) (int64, error)

	AppendAudit(ctx context.Context, record *models.AuditRecord) error
	CountDryRuns(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountDryRunsForVacancy(ctx context.Context, userID, vacancyID uuid.UUID, since time.Time) (int, error)

	CommitExecution(ctx context.Context, commit *models.ExecutionCommit) error

	GetBatch(ctx context.Context, batchID uuid.UUID) (*models.SourcingBatch, error)
	GetBatchResults(ctx context.Context, batchID uuid.UUID) ([]models.SourcingResult, error)
	GetResult(ctx context.Context, resultID uuid.UUID) (*models.SourcingResult, error)
	UpdateResultStatus(ctx context.Context, resultID uuid.UUID, status string, note *string, contactedAt time.Time) error
}

// Ranker is the external ranking engine.
type Ranker interface {
	RankCandidates(ctx context.Context, profile ranking.JobProfile, batch []ranking.CandidateSummary) ([]ranking.RankedCandidate, error)
}

type Config struct {
	Cost                  int64
	DryRunDailyLimit      int
	DryRunPerVacancyLimit int
	PoolFetchLimit        int
	PoolAnalyzeLimit      int
}

// Service orchestrates the credit-gated sourcing pipeline.
type Service struct {
	store  Store
	ranker Ranker
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func New(store Store, ranker Ranker, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		ranker: ranker,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// DryRunEstimate is the free preview of an execution. It deliberately does
// not carry the exact balance, only whether it suffices.
type DryRunEstimate struct {
	PostingID           uuid.UUID
	Title               string
	CandidatesToAnalyze int
	Cost                int64
	SufficientCredits   bool
}

// ExecutionResult summarizes a charged sourcing run.
type ExecutionResult struct {
	BatchID         uuid.UUID
	CandidatesFound int
	CreditsSpent    int64
	Provenance      string
}

// authorize resolves the caller to exactly one payer for the posting's
// vacancy: the assigned recruiter or the owning company. Authorization is
// evaluated on every call, never carried over from an earlier one.
func (s *Service) authorize(ctx context.Context, userID uuid.UUID, posting *models.Posting) (models.Payer, error) {
	recruiterID, assigned, err := s.store.AssignedRecruiter(ctx, posting.VacancyID, userID)
	if err != nil {
		return models.Payer{}, err
	}
	if assigned {
		return models.Payer{Kind: models.PayerRecruiter, ID: recruiterID}, nil
	}

	member, err := s.store.IsCompanyMember(ctx, posting.CompanyID, userID)
	if err != nil {
		return models.Payer{}, err
	}
	if member {
		return models.Payer{Kind: models.PayerCompany, ID: posting.CompanyID}, nil
	}

	return models.Payer{}, models.ErrForbidden
}

// loadPosting returns the posting when it is published and its vacancy is
// still open, ErrNotFound otherwise.
func (s *Service) loadPosting(ctx context.Context, postingID uuid.UUID) (*models.Posting, error) {
	posting, err := s.store.GetPublishedPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if posting == nil || !posting.VacancyOpen {
		return nil, models.ErrNotFound
	}
	return posting, nil
}

// checkDryRunLimits evaluates both sliding 24h windows against the audit
// table. A rejected attempt must not leave an audit row.
func (s *Service) checkDryRunLimits(ctx context.Context, userID, vacancyID uuid.UUID) error {
	since := s.now().Add(-24 * time.Hour)

	global, err := s.store.CountDryRuns(ctx, userID, since)
	if err != nil {
		return err
	}
	if global >= s.cfg.DryRunDailyLimit {
		s.logger.Warn("dry run daily limit exceeded",
			zap.String("user_id", userID.String()),
			zap.Int("count", global),
		)
		return models.ErrRateLimited
	}

	perVacancy, err := s.store.CountDryRunsForVacancy(ctx, userID, vacancyID, since)
	if err != nil {
		return err
	}
	if perVacancy >= s.cfg.DryRunPerVacancyLimit {
		s.logger.Warn("dry run per-vacancy limit exceeded",
			zap.String("user_id", userID.String()),
			zap.String("vacancy_id", vacancyID.String()),
			zap.Int("count", perVacancy),
		)
		return models.ErrRateLimited
	}

	return nil
}

// DryRun estimates an execution for free: cost, pool size and whether the
// payer's fresh balance covers it. Wallets are never touched.
func (s *Service) DryRun(ctx context.Context, userID, postingID uuid.UUID) (*DryRunEstimate, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}

	payer, err := s.authorize(ctx, userID, posting)
	if err != nil {
		return nil, err
	}

	if err := s.checkDryRunLimits(ctx, userID, posting.VacancyID); err != nil {
		return nil, err
	}

	pool, err := s.store.SelectEligibleCandidates(ctx, posting.VacancyID, posting.ID, s.cfg.PoolFetchLimit)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, models.ErrNoCandidates
	}

	toAnalyze := len(pool)
	if toAnalyze > s.cfg.PoolAnalyzeLimit {
		toAnalyze = s.cfg.PoolAnalyzeLimit
	}

	// fresh read on every check: balances may have moved since any earlier
	// estimate
	available, err := s.store.AvailableCredits(ctx, payer)
	if err != nil {
		return nil, err
	}

	// the successful dry run is audited before responding; the audit table
	// is also what the rate limiter counts
	if err := s.store.AppendAudit(ctx, &models.AuditRecord{
		UserID:    userID,
		VacancyID: posting.VacancyID,
		Action:    models.AuditActionDryRun,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	return &DryRunEstimate{
		PostingID:           posting.ID,
		Title:               posting.Title,
		CandidatesToAnalyze: toAnalyze,
		Cost:                s.cfg.Cost,
		SufficientCredits:   available >= s.cfg.Cost,
	}, nil
}

// Execute runs the paid pipeline: authorize, select the pool, check
// credits, audit the attempt, call the ranking engine and, only after a
// successfully parsed response, debit the payer and persist the batch in
// one transaction. No lock is held across the engine call.
func (s *Service) Execute(ctx context.Context, userID, postingID uuid.UUID) (*ExecutionResult, error) {
	posting, err := s.loadPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}

	payer, err := s.authorize(ctx, userID, posting)
	if err != nil {
		return nil, err
	}

	pool, err := s.store.SelectEligibleCandidates(ctx, posting.VacancyID, posting.ID, s.cfg.PoolFetchLimit)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, models.ErrNoCandidates
	}
	if len(pool) > s.cfg.PoolAnalyzeLimit {
		pool = pool[:s.cfg.PoolAnalyzeLimit]
	}

	// early sufficiency check so an obviously broke payer never triggers an
	// engine call; the authoritative check runs under the wallet row lock
	// in CommitExecution
	available, err := s.store.AvailableCredits(ctx, payer)
	if err != nil {
		return nil, err
	}
	if available < s.cfg.Cost {
		return nil, models.ErrInsufficientCredits
	}

	// audited before the engine call: a failed ranking attempt must still
	// be visible in the trail
	if err := s.store.AppendAudit(ctx, &models.AuditRecord{
		UserID:    userID,
		VacancyID: posting.VacancyID,
		Action:    models.AuditActionExecution,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	profile := ranking.JobProfile{
		Title:      posting.Title,
		Profile:    posting.Profile,
		Location:   posting.Location,
		WorkMode:   posting.WorkMode,
		SalaryFrom: posting.SalaryFrom,
		SalaryTo:   posting.SalaryTo,
	}

	batch := make([]ranking.CandidateSummary, len(pool))
	for i, cand := range pool {
		batch[i] = ranking.CandidateSummary{
			Headline:          cand.Headline,
			Summary:           cand.Summary,
			Skills:            cand.Skills,
			ExperienceYears:   cand.ExperienceYears,
			SalaryExpectation: cand.SalaryExpectation,
			Location:          cand.Location,
		}
	}

	ranked, err := s.ranker.RankCandidates(ctx, profile, batch)
	if err != nil {
		// no debit on any ranking failure; the execution audit row above is
		// the record of the attempt
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, models.ErrNoCandidates
	}

	commit := &models.ExecutionCommit{
		Batch: models.SourcingBatch{
			ID:         uuid.New(),
			VacancyID:  posting.VacancyID,
			ExecutorID: userID,
			PayerKind:  payer.Kind,
			PayerID:    payer.ID,
			Cost:       s.cfg.Cost,
		},
		Description: fmt.Sprintf("AI sourcing for %q", posting.Title),
	}

	for _, entry := range ranked {
		// indices resolve against the exact slice sent to the engine; the
		// pool is never re-queried after the response
		candidate := pool[entry.Index]

		commit.Results = append(commit.Results, models.SourcingResult{
			CandidateID:   candidate.ID,
			Score:         entry.Score,
			Rationale:     entry.Rationale,
			MatchedSkills: entry.MatchedSkills,
		})
		commit.Grants = append(commit.Grants, models.UnlockGrant{
			OwnerKind:   payer.Kind,
			OwnerID:     payer.ID,
			CandidateID: candidate.ID,
		})
	}

	if err := s.store.CommitExecution(ctx, commit); err != nil {
		return nil, err
	}

	s.logger.Info("sourcing executed",
		zap.String("user_id", userID.String()),
		zap.String("batch_id", commit.Batch.ID.String()),
		zap.Int("candidates", len(commit.Results)),
	)

	return &ExecutionResult{
		BatchID:         commit.Batch.ID,
		CandidatesFound: len(commit.Results),
		CreditsSpent:    s.cfg.Cost,
		Provenance:      commit.Batch.Provenance,
	}, nil
}
