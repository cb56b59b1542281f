package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/ranker"
	"github.com/affimark/verifier/internal/scoring"
	"github.com/affimark/verifier/internal/store"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	sessions map[string]*model.VerifierSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*model.VerifierSession{}}
}

func (f *fakeStore) CreateSession(_ context.Context, s *model.VerifierSession) error {
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateSessionStatus(_ context.Context, id string, status model.SessionStatus) error {
	sess, ok := f.sessions[id]
	if !ok {
		return eris.Errorf("session not found: %s", id)
	}
	sess.Status = status
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*model.VerifierSession, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, eris.Errorf("session not found: %s", id)
	}
	copied := *sess
	return &copied, nil
}

func (f *fakeStore) ListSessions(_ context.Context, _ store.SessionFilter) ([]model.VerifierSession, error) {
	var out []model.VerifierSession
	for _, s := range f.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) SaveSnapshot(_ context.Context, id string, snapshot *model.Snapshot, candidates []model.RankerCandidate) error {
	sess, ok := f.sessions[id]
	if !ok {
		return eris.Errorf("session not found: %s", id)
	}
	sess.Snapshot = snapshot
	sess.Candidates = candidates
	return nil
}

func (f *fakeStore) SaveRecommendations(_ context.Context, id string, recs *model.Recommendations) error {
	sess, ok := f.sessions[id]
	if !ok {
		return eris.Errorf("session not found: %s", id)
	}
	sess.Recommendations = recs
	return nil
}

func (f *fakeStore) SavePlaybook(_ context.Context, id string, pb *model.Playbook) error {
	sess, ok := f.sessions[id]
	if !ok {
		return eris.Errorf("session not found: %s", id)
	}
	sess.Playbook = pb
	return nil
}

func (f *fakeStore) SetWatchedProgram(_ context.Context, id string, programID string) error {
	sess, ok := f.sessions[id]
	if !ok {
		return eris.Errorf("session not found: %s", id)
	}
	sess.WatchedProgram = programID
	return nil
}

func (f *fakeStore) SetSessionError(_ context.Context, id string, message string) error {
	sess, ok := f.sessions[id]
	if !ok {
		return eris.Errorf("session not found: %s", id)
	}
	sess.Error = message
	sess.Status = model.SessionFailed
	return nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

// fake lookup sources

type fakeProductSource struct {
	product *model.ScrapedProductData
	err     error
	calls   int
}

func (f *fakeProductSource) Scrape(context.Context, string) (*model.ScrapedProductData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.product
	return &copied, nil
}

type fakeReputationSource struct {
	reputation *model.ReputationData
	calls      int
}

func (f *fakeReputationSource) Lookup(context.Context, string) (*model.ReputationData, error) {
	f.calls++
	return f.reputation, nil
}

type fakeCommissionSource struct {
	commission *model.CommissionData
	calls      int
}

func (f *fakeCommissionSource) Lookup(context.Context, string, string) (*model.CommissionData, error) {
	f.calls++
	return f.commission, nil
}

type fakeCandidateSource struct {
	candidates []model.RankerCandidate
	err        error
	calls      int
	gotExclude string
}

func (f *fakeCandidateSource) Load(_ context.Context, _ string, excludeBrand string, _ int) ([]model.RankerCandidate, error) {
	f.calls++
	f.gotExclude = excludeBrand
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

// fixtures

func strongProduct() *model.ScrapedProductData {
	title := "Solid Widget"
	brand := "Glowberry"
	category := "electronics"
	rating := 4.6
	reviews := 1000
	return &model.ScrapedProductData{
		URL:         "https://shop.example/p/1",
		Title:       &title,
		Brand:       &brand,
		Category:    &category,
		Rating:      &rating,
		ReviewCount: &reviews,
		Price:       &model.Price{Amount: 80, Currency: "EUR"},
	}
}

func testCandidates() []model.RankerCandidate {
	return []model.RankerCandidate{
		{
			ID: "prog-a", Name: "Program A", Brand: "alta", Network: "awin",
			ProductViability: 80, OfferMerchant: 85, EconomicsFeasibility: 70,
			CommissionRate: 0.08, CookieDays: 45, ConversionRate: 0.02,
			AvgOrderValue: 90, RefundRate: 0.05,
			Coverage: 75, Confidence: model.ConfidenceHigh, RiskScore: 0.1,
			PriceBand: model.PriceBandMid,
		},
		{
			ID: "prog-b", Name: "Program B", Brand: "bryte", Network: "cj",
			ProductViability: 90, OfferMerchant: 40, EconomicsFeasibility: 95,
			CommissionRate: 0.12, CookieDays: 7, ConversionRate: 0.03,
			AvgOrderValue: 40, RefundRate: 0.2,
			Coverage: 60, Confidence: model.ConfidenceMed, RiskScore: 0.5,
			PriceBand: model.PriceBandLow,
		},
	}
}

type fixture struct {
	store      *fakeStore
	products   *fakeProductSource
	reputation *fakeReputationSource
	commission *fakeCommissionSource
	candidates *fakeCandidateSource
	orch       *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		store:      newFakeStore(),
		products:   &fakeProductSource{product: strongProduct()},
		reputation: &fakeReputationSource{reputation: &model.ReputationData{
			OverallRating:      floatAddr(4.3),
			OverallReviewCount: intAddr(2500),
			Sources:            []model.ReputationSource{{Name: "trustscore"}},
		}},
		commission: &fakeCommissionSource{commission: &model.CommissionData{
			RateLow: 0.04, RateHigh: 0.08, CookieDays: 30, Network: "awin",
		}},
		candidates: &fakeCandidateSource{candidates: testCandidates()},
	}
	f.orch = New(f.store, f.products, f.reputation, f.commission, f.candidates,
		scoring.NewEngine(nil), ranker.New(nil), Options{})
	return f
}

func floatAddr(v float64) *float64 { return &v }
func intAddr(v int) *int           { return &v }

func TestAnalyze_HappyPath(t *testing.T) {
	f := newFixture()

	resp, err := f.orch.Analyze(context.Background(), "https://Shop.Example/p/1?utm_source=news", model.UserContext{})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, model.SessionRecommendationsReady, resp.Status)
	require.NotNil(t, resp.Snapshot)
	require.NotNil(t, resp.Recommendations)

	// Breakdowns ride next to the pillar totals, never inside them.
	assert.NotEmpty(t, resp.Snapshot.ScoreBreakdowns)
	assert.Contains(t, resp.Snapshot.ScoreBreakdowns, model.PillarViability)
	assert.Greater(t, resp.Snapshot.Scores.ProductViability, 0.0)
	assert.NotEmpty(t, resp.Snapshot.Insights)
	assert.Greater(t, resp.Snapshot.Coverage.OverallScore, 0.0)
	assert.LessOrEqual(t, resp.Snapshot.EarningBand.Low, resp.Snapshot.EarningBand.High)

	assert.True(t, resp.Recommendations.CanRerank)
	assert.Equal(t, 2, resp.Recommendations.TotalCandidates)
	// GREEN verdict with a strong economics pillar routes to
	// economics_first, where prog-b's margin outweighs prog-a's trust.
	assert.Equal(t, model.ModeEconomicsFirst, resp.Recommendations.Mode)
	require.NotNil(t, resp.Recommendations.Winner)
	assert.Equal(t, "prog-b", resp.Recommendations.Winner.ID)

	// Persisted session carries the cached candidate set for rerank.
	sess, err := f.store.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionRecommendationsReady, sess.Status)
	assert.Len(t, sess.Candidates, 2)
	assert.Equal(t, "https://shop.example/p/1", sess.NormalizedURL)

	// The base product's own brand is excluded from the candidate search.
	assert.Equal(t, "Glowberry", f.candidates.gotExclude)
}

func TestAnalyze_InvalidURLBeforeSessionCreation(t *testing.T) {
	f := newFixture()

	_, err := f.orch.Analyze(context.Background(), "ftp://shop.example/p", model.UserContext{})

	require.Error(t, err)
	assert.Empty(t, f.store.sessions)
	assert.Zero(t, f.products.calls)
}

func TestAnalyze_ScrapeFailureFailsSession(t *testing.T) {
	f := newFixture()
	f.products.err = eris.New("scraper unreachable")

	_, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape")

	require.Len(t, f.store.sessions, 1)
	for _, sess := range f.store.sessions {
		assert.Equal(t, model.SessionFailed, sess.Status)
		assert.Contains(t, sess.Error, "scraper unreachable")
		assert.Nil(t, sess.Snapshot)
	}
}

func TestAnalyze_CandidateFailureDegrades(t *testing.T) {
	f := newFixture()
	f.candidates.err = eris.New("feed down")

	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)

	assert.Equal(t, model.SessionRecommendationsReady, resp.Status)
	assert.Nil(t, resp.Recommendations.Winner)
	assert.Zero(t, resp.Recommendations.TotalCandidates)
}

func TestAnalyze_ModeOverrideRoutesRanking(t *testing.T) {
	f := newFixture()

	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{
		ModeOverride: model.ModeEconomicsFirst,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ModeEconomicsFirst, resp.Recommendations.Mode)
}

func TestRerank_OnlyRecommendationsChange(t *testing.T) {
	f := newFixture()

	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)
	before, err := f.store.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)

	scrapes := f.products.calls
	lookups := f.reputation.calls + f.commission.calls + f.candidates.calls

	rerank, err := f.orch.Rerank(context.Background(), resp.SessionID, model.ModeTrustFirst)
	require.NoError(t, err)
	assert.Equal(t, model.ModeTrustFirst, rerank.Mode)
	require.NotNil(t, rerank.Winner)
	assert.Equal(t, "prog-a", rerank.Winner.ID)

	after, err := f.store.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)

	// The snapshot is immutable under rerank.
	assert.Equal(t, before.Snapshot.Scores, after.Snapshot.Scores)
	assert.Equal(t, before.Snapshot.Verdict, after.Snapshot.Verdict)
	assert.Equal(t, before.Snapshot.Coverage, after.Snapshot.Coverage)
	assert.Equal(t, before.Status, after.Status)

	// Only the ranking fields moved.
	assert.Equal(t, model.ModeTrustFirst, after.Recommendations.Mode)
	assert.NotEqual(t, before.Recommendations.Mode, after.Recommendations.Mode)

	// No network I/O: rerank re-sorts cached candidates.
	assert.Equal(t, scrapes, f.products.calls)
	assert.Equal(t, lookups, f.reputation.calls+f.commission.calls+f.candidates.calls)
}

func TestRerank_InvalidMode(t *testing.T) {
	f := newFixture()

	_, err := f.orch.Rerank(context.Background(), "whatever", model.RankMode("chaos"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rank mode")
}

func TestRerank_RequiresRerankableStatus(t *testing.T) {
	f := newFixture()
	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateSessionStatus(context.Background(), resp.SessionID, model.SessionCompleted))

	_, err = f.orch.Rerank(context.Background(), resp.SessionID, model.ModeStandard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot rerank")
}

func TestBuildPlaybook_BaseProduct(t *testing.T) {
	f := newFixture()
	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)

	pb, err := f.orch.BuildPlaybook(context.Background(), resp.SessionID, "")
	require.NoError(t, err)

	assert.Equal(t, "Solid Widget", pb.ProgramName)
	assert.False(t, pb.ForAlternative)
	assert.NotEmpty(t, pb.Steps)
	assert.NotEmpty(t, pb.EarningsNote)

	sess, err := f.store.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionPlaybookReady, sess.Status)
	require.NotNil(t, sess.Playbook)
}

func TestBuildPlaybook_Alternative(t *testing.T) {
	f := newFixture()
	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)

	pb, err := f.orch.BuildPlaybook(context.Background(), resp.SessionID, "prog-b")
	require.NoError(t, err)

	assert.Equal(t, "Program B", pb.ProgramName)
	assert.True(t, pb.ForAlternative)
	assert.NotEmpty(t, pb.Pros)
	assert.NotEmpty(t, pb.Risks)
}

func TestBuildPlaybook_UnknownProgram(t *testing.T) {
	f := newFixture()
	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)

	_, err = f.orch.BuildPlaybook(context.Background(), resp.SessionID, "prog-zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in session")
}

func TestWatchlist_ArchivesWithProgram(t *testing.T) {
	f := newFixture()
	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)

	require.NoError(t, f.orch.Watchlist(context.Background(), resp.SessionID, "prog-a"))

	sess, err := f.store.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, sess.Status)
	assert.Equal(t, "prog-a", sess.WatchedProgram)
}

func TestWatchlist_EmptyProgramWatchesBaseProduct(t *testing.T) {
	f := newFixture()
	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)

	require.NoError(t, f.orch.Watchlist(context.Background(), resp.SessionID, ""))

	sess, err := f.store.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/p/1", sess.WatchedProgram)
}

func TestWatchlist_RejectsUnknownProgramAndCompletedSessions(t *testing.T) {
	f := newFixture()
	resp, err := f.orch.Analyze(context.Background(), "https://shop.example/p/1", model.UserContext{})
	require.NoError(t, err)

	err = f.orch.Watchlist(context.Background(), resp.SessionID, "prog-zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in session")

	require.NoError(t, f.orch.Watchlist(context.Background(), resp.SessionID, "prog-a"))
	err = f.orch.Watchlist(context.Background(), resp.SessionID, "prog-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be archived")
}
