package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affimark/verifier/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "verifier_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func seedSession(t *testing.T, store *SQLiteStore, id string) *model.VerifierSession {
	t.Helper()
	sess := &model.VerifierSession{
		ID:            id,
		OriginalURL:   "https://Shop.Example/p/" + id + "?utm_source=x",
		NormalizedURL: "https://shop.example/p/" + id,
		UserContext:   model.UserContext{UserID: "u-1", AffinityCategories: []string{"electronics"}},
		Status:        model.SessionAnalyzing,
	}
	require.NoError(t, store.CreateSession(context.Background(), sess))
	return sess
}

func TestSQLiteSessionRoundTrip(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)
	assert.Equal(t, model.SessionAnalyzing, got.Status)
	assert.Equal(t, "u-1", got.UserContext.UserID)
	assert.Equal(t, []string{"electronics"}, got.UserContext.AffinityCategories)
	assert.Nil(t, got.Snapshot)
	assert.Empty(t, got.Candidates)
}

func TestSQLiteGetSession_NotFound(t *testing.T) {
	store := newTestSQLite(t)

	_, err := store.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestSQLiteUpdateSessionStatus(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")

	require.NoError(t, store.UpdateSessionStatus(ctx, "sess-1", model.SessionRecommendationsReady))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionRecommendationsReady, got.Status)

	err = store.UpdateSessionStatus(ctx, "missing", model.SessionFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteSnapshotAndCandidates(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")

	snapshot := &model.Snapshot{
		Scores: model.ScoreResult{
			ProductViability:     86,
			OfferMerchant:        60,
			EconomicsFeasibility: 72,
		},
		ScoreBreakdowns: map[string]model.PillarBreakdown{
			model.PillarViability: {Total: 86, Components: []model.Component{
				{Name: "demand_signals", Value: 25, Explanation: "1000 reviews"},
			}},
		},
		Verdict:  model.VerdictResult{Status: model.VerdictYellow, PrimaryAction: "verify before promoting"},
		Coverage: model.CoverageResult{OverallScore: 55},
	}
	candidates := []model.RankerCandidate{
		{ID: "prog-a", Name: "Program A", CommissionRate: 0.06},
		{ID: "prog-b", Name: "Program B", CommissionRate: 0.04},
	}

	require.NoError(t, store.SaveSnapshot(ctx, "sess-1", snapshot, candidates))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got.Snapshot)
	assert.InDelta(t, 86.0, got.Snapshot.Scores.ProductViability, 1e-9)
	assert.Equal(t, model.VerdictYellow, got.Snapshot.Verdict.Status)
	assert.Equal(t, 25.0, got.Snapshot.ScoreBreakdowns[model.PillarViability].Components[0].Value)
	require.Len(t, got.Candidates, 2)
	assert.Equal(t, "prog-a", got.Candidates[0].ID)
	assert.Equal(t, "prog-b", got.Candidates[1].ID)
}

func TestSQLiteSaveRecommendations(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")

	recs := &model.Recommendations{
		Mode: model.ModeTrustFirst,
		Routing: model.Routing{
			RankMode:       model.ModeTrustFirst,
			BucketStrategy: model.BucketStrategyConservative,
		},
		TotalCandidates: 7,
		CanRerank:       true,
	}
	require.NoError(t, store.SaveRecommendations(ctx, "sess-1", recs))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got.Recommendations)
	assert.Equal(t, model.ModeTrustFirst, got.Recommendations.Mode)
	assert.Equal(t, 7, got.Recommendations.TotalCandidates)
	assert.True(t, got.Recommendations.CanRerank)
}

func TestSQLiteSavePlaybook(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")

	pb := &model.Playbook{
		ProgramName: "Program A",
		Steps:       []model.PlaybookStep{{Order: 1, Title: "Apply to the program"}},
		Pros:        []string{"high commission"},
	}
	require.NoError(t, store.SavePlaybook(ctx, "sess-1", pb))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got.Playbook)
	assert.Equal(t, "Program A", got.Playbook.ProgramName)
	require.Len(t, got.Playbook.Steps, 1)
	assert.Equal(t, "Apply to the program", got.Playbook.Steps[0].Title)
}

func TestSQLiteSetWatchedProgram(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")

	require.NoError(t, store.SetWatchedProgram(ctx, "sess-1", "prog-b"))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "prog-b", got.WatchedProgram)
}

func TestSQLiteSetSessionError(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")

	require.NoError(t, store.SetSessionError(ctx, "sess-1", "scrape failed: http 503"))

	got, err := store.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionFailed, got.Status)
	assert.Equal(t, "scrape failed: http 503", got.Error)
}

func TestSQLiteListSessions(t *testing.T) {
	store := newTestSQLite(t)
	ctx := context.Background()
	seedSession(t, store, "sess-1")
	seedSession(t, store, "sess-2")
	seedSession(t, store, "sess-3")
	require.NoError(t, store.UpdateSessionStatus(ctx, "sess-2", model.SessionFailed))

	all, err := store.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	failed, err := store.ListSessions(ctx, SessionFilter{Status: model.SessionFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "sess-2", failed[0].ID)

	byURL, err := store.ListSessions(ctx, SessionFilter{URL: "https://shop.example/p/sess-3"})
	require.NoError(t, err)
	require.Len(t, byURL, 1)
	assert.Equal(t, "sess-3", byURL[0].ID)

	limited, err := store.ListSessions(ctx, SessionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
