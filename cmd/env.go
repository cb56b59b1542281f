package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/affimark/verifier/internal/lookup"
	"github.com/affimark/verifier/internal/pipeline"
	"github.com/affimark/verifier/internal/ranker"
	"github.com/affimark/verifier/internal/scoring"
	"github.com/affimark/verifier/internal/store"
)

// pipelineEnv holds the initialized store and orchestrator shared by the
// analyze/rerank/playbook/watchlist/serve commands.
type pipelineEnv struct {
	Store        store.Store
	Orchestrator *pipeline.Orchestrator
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, lookup clients, scoring engine, and
// ranker. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	client := lookup.NewClient(lookup.ClientOptions{
		UserAgent:    cfg.Lookup.UserAgent,
		Timeout:      cfg.Lookup.Timeout(),
		MaxRetries:   cfg.Lookup.MaxRetries,
		DefaultRate:  rate.Limit(cfg.Lookup.RatePerSecond),
		DefaultBurst: cfg.Lookup.RateBurst,
	})

	products := lookup.NewHTTPProductSource(client, cfg.Scraper.PrimaryURL, cfg.Scraper.FallbackURL)
	reputation := lookup.NewHTTPReputationSource(client, cfg.Reputation.PrimaryURL, cfg.Reputation.SecondaryURL)
	commission := lookup.NewHTTPCommissionSource(client, cfg.Commission.BaseURL)
	candidates := lookup.NewHTTPCandidateSource(client, cfg.Candidates.BaseURL, scoring.DefaultBrands())

	weights, err := loadWeights()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	orchestrator := pipeline.New(
		st,
		products,
		reputation,
		commission,
		candidates,
		scoring.NewEngine(nil),
		ranker.New(weights),
		pipeline.Options{
			CandidateLimit: cfg.Candidates.Limit,
			ItemsPerBucket: cfg.Ranking.BucketSize,
			AnalyzeTimeout: time.Duration(cfg.Pipeline.AnalyzeTimeoutSecs) * time.Second,
		},
	)

	return &pipelineEnv{Store: st, Orchestrator: orchestrator}, nil
}

func loadWeights() (ranker.WeightTables, error) {
	if cfg.Ranking.WeightsFile == "" {
		return ranker.DefaultWeights(), nil
	}
	weights, err := ranker.LoadWeights(cfg.Ranking.WeightsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load ranking weights")
	}
	zap.L().Info("ranking weights loaded from file",
		zap.String("path", cfg.Ranking.WeightsFile),
	)
	return weights, nil
}
