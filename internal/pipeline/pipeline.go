// Package pipeline orchestrates the analysis flow: scrape, parallel
// lookups, deterministic scoring, verdict, ranking, and persistence.
// All business math lives in the scoring/coverage/verdict/ranker
// packages; this package only sequences them and owns the session
// lifecycle.
package pipeline

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/affimark/verifier/internal/coverage"
	"github.com/affimark/verifier/internal/lookup"
	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/ranker"
	"github.com/affimark/verifier/internal/scoring"
	"github.com/affimark/verifier/internal/session"
	"github.com/affimark/verifier/internal/store"
	"github.com/affimark/verifier/internal/verdict"
)

// defaultMonthlyClicks is the base click assumption for the economics
// sensitivity when the user supplies none.
const defaultMonthlyClicks = 1000.0

// Options tunes orchestrator behavior.
type Options struct {
	CandidateLimit int
	ItemsPerBucket int
	AnalyzeTimeout time.Duration
}

// Orchestrator wires the collaborators together and runs the pipeline
// stages against the store.
type Orchestrator struct {
	store      store.Store
	products   lookup.ProductSource
	reputation lookup.ReputationSource
	commission lookup.CommissionSource
	candidates lookup.CandidateSource
	engine     *scoring.Engine
	ranker     *ranker.Ranker
	opts       Options
}

// New creates an Orchestrator.
func New(
	st store.Store,
	products lookup.ProductSource,
	reputation lookup.ReputationSource,
	commission lookup.CommissionSource,
	candidates lookup.CandidateSource,
	engine *scoring.Engine,
	rk *ranker.Ranker,
	opts Options,
) *Orchestrator {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = 40
	}
	if opts.ItemsPerBucket <= 0 {
		opts.ItemsPerBucket = 3
	}
	if opts.AnalyzeTimeout <= 0 {
		opts.AnalyzeTimeout = 2 * time.Minute
	}
	return &Orchestrator{
		store:      st,
		products:   products,
		reputation: reputation,
		commission: commission,
		candidates: candidates,
		engine:     engine,
		ranker:     rk,
		opts:       opts,
	}
}

// Analyze runs the full pipeline for one product URL and returns the
// session's analyze response. A failed scrape fails the session;
// degraded reputation/commission lookups do not.
func (o *Orchestrator) Analyze(ctx context.Context, productURL string, userCtx model.UserContext) (*model.AnalyzeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.AnalyzeTimeout)
	defer cancel()

	normalized, err := lookup.NormalizeURL(productURL)
	if err != nil {
		return nil, err
	}

	sess := &model.VerifierSession{
		ID:            uuid.NewString(),
		OriginalURL:   productURL,
		NormalizedURL: normalized,
		UserContext:   userCtx,
		Status:        model.SessionAnalyzing,
	}
	if err := o.store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	start := time.Now()
	zap.L().Info("pipeline: analysis started",
		zap.String("session_id", sess.ID),
		zap.String("url", normalized),
	)

	resp, err := o.analyze(ctx, sess)
	if err != nil {
		zap.L().Error("pipeline: analysis failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		if storeErr := o.store.SetSessionError(ctx, sess.ID, err.Error()); storeErr != nil {
			zap.L().Error("pipeline: failed to record session error",
				zap.String("session_id", sess.ID),
				zap.Error(storeErr),
			)
		}
		return nil, err
	}

	zap.L().Info("pipeline: analysis complete",
		zap.String("session_id", sess.ID),
		zap.String("verdict", string(resp.Snapshot.Verdict.Status)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (o *Orchestrator) analyze(ctx context.Context, sess *model.VerifierSession) (*model.AnalyzeResponse, error) {
	// Stage 1: scrape. The one lookup whose failure fails the session.
	product, err := o.products.Scrape(ctx, sess.NormalizedURL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: scrape")
	}

	// Stage 2: independent lookups fan out; each degrades to absent
	// data on its own, so the group only fails on context cancellation.
	var (
		reputation *model.ReputationData
		commission *model.CommissionData
		candidates []model.RankerCandidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reputation, err = o.reputation.Lookup(gctx, merchantDomain(sess.NormalizedURL, product))
		return err
	})
	g.Go(func() error {
		var err error
		commission, err = o.commission.Lookup(gctx, deref(product.Brand), deref(product.Category))
		return err
	})
	g.Go(func() error {
		var err error
		candidates, err = o.candidates.Load(gctx, candidateCategory(product), deref(product.Brand), o.opts.CandidateLimit)
		if err != nil {
			// Alternatives are additive: analysis stands without them.
			zap.L().Warn("pipeline: candidate load failed, continuing without alternatives",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			candidates = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: lookups")
	}

	// Stages 3-5: pure computation over what we gathered.
	benchmarks := scoring.ResolveBenchmarks(product.Category)
	scores := o.engine.ComputeScores(*product, reputation, commission, benchmarks, sess.UserContext.AffinityCategories)
	confidence := o.engine.ComputeConfidence(*product, reputation, commission)
	cov := coverage.Compute(coverage.BuildChecklist(*product, reputation, commission, trendPresent(candidates)))
	earning := o.engine.ComputeEarningBand(*product, commission, benchmarks)
	economics := scoring.ComputeSensitivity(sensitivityInput(sess.UserContext, product, commission, benchmarks))
	verdictResult := verdict.Evaluate(verdict.Input{
		Scores:     scores,
		Confidence: confidence,
		Product:    *product,
		Reputation: reputation,
		Commission: commission,
	})

	snapshot := &model.Snapshot{
		Product:         *product,
		Scores:          scores,
		ScoreBreakdowns: scores.Breakdowns,
		Confidence:      confidence,
		Verdict:         verdictResult,
		Insights:        buildInsights(scores, confidence, cov, economics),
		Economics:       economics,
		EarningBand:     earning,
		Coverage:        cov,
	}
	if err := o.store.SaveSnapshot(ctx, sess.ID, snapshot, candidates); err != nil {
		return nil, err
	}

	// Stages 6-7: route, rank, bucketize.
	routing := ranker.Route(ranker.RouteInput{
		Verdict:      verdictResult,
		Scores:       scores,
		Confidence:   confidence.Level,
		Coverage:     cov.OverallScore,
		UserOverride: sess.UserContext.ModeOverride,
	})
	recs := o.rankAndBucket(candidates, routing)

	if err := o.store.SaveRecommendations(ctx, sess.ID, recs); err != nil {
		return nil, err
	}
	if err := session.Transition(sess, model.SessionRecommendationsReady); err != nil {
		return nil, err
	}
	if err := o.store.UpdateSessionStatus(ctx, sess.ID, sess.Status); err != nil {
		return nil, err
	}

	return &model.AnalyzeResponse{
		SessionID:       sess.ID,
		Status:          sess.Status,
		Snapshot:        snapshot,
		Recommendations: recs,
	}, nil
}

// rankAndBucket is the shared tail of analyze and rerank: pure
// computation from a candidate list and a routing decision.
func (o *Orchestrator) rankAndBucket(candidates []model.RankerCandidate, routing model.Routing) *model.Recommendations {
	result := o.ranker.Rank(candidates, routing.RankMode)
	buckets := ranker.Bucketize(result.Ranked, result.Winner, ranker.BucketOptions{
		ItemsPerBucket: o.opts.ItemsPerBucket,
		ShowTrending:   routing.ShowTrending,
		BucketStrategy: routing.BucketStrategy,
	})

	return &model.Recommendations{
		Mode:            routing.RankMode,
		Routing:         routing,
		Winner:          buckets.Winner,
		Buckets:         buckets.Buckets,
		TotalCandidates: buckets.TotalCandidates,
		CanRerank:       true,
	}
}

// GetSession loads one session.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*model.VerifierSession, error) {
	return o.store.GetSession(ctx, sessionID)
}

// ListSessions lists sessions matching the filter.
func (o *Orchestrator) ListSessions(ctx context.Context, filter store.SessionFilter) ([]model.VerifierSession, error) {
	return o.store.ListSessions(ctx, filter)
}

func merchantDomain(normalizedURL string, product *model.ScrapedProductData) string {
	if product.SellerName != nil && *product.SellerName != "" {
		return *product.SellerName
	}
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func candidateCategory(product *model.ScrapedProductData) string {
	if product.Category != nil && *product.Category != "" {
		return *product.Category
	}
	return "general"
}

func trendPresent(candidates []model.RankerCandidate) bool {
	for _, c := range candidates {
		if c.TrendScore != nil {
			return true
		}
	}
	return false
}

func sensitivityInput(userCtx model.UserContext, product *model.ScrapedProductData, commission *model.CommissionData, benchmarks model.CategoryBenchmarks) scoring.SensitivityInput {
	in := scoring.SensitivityInput{
		ConversionRate: benchmarks.AvgConversion,
		AvgOrderValue:  benchmarks.AvgOrderValue,
		RefundRate:     benchmarks.AvgRefundRate,
		CommissionRate: benchmarks.AvgCommission,
		MonthlyClicks:  defaultMonthlyClicks,
	}
	if userCtx.MonthlyClicks != nil && *userCtx.MonthlyClicks > 0 {
		in.MonthlyClicks = *userCtx.MonthlyClicks
	}
	if commission != nil {
		in.CommissionRate = commission.MidRate()
		in.RateLow = &commission.RateLow
		in.RateHigh = &commission.RateHigh
		if commission.ConversionRate != nil {
			in.ConversionRate = *commission.ConversionRate
		}
		if commission.AvgOrderValue != nil {
			in.AvgOrderValue = *commission.AvgOrderValue
		}
		if commission.RefundRate != nil {
			in.RefundRate = *commission.RefundRate
		}
	}
	if (commission == nil || commission.AvgOrderValue == nil) && product.Price != nil && product.Price.Amount > 0 {
		in.AvgOrderValue = product.Price.Amount
	}
	return in
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
