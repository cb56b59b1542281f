package ranker

import (
	"go.uber.org/zap"

	"github.com/affimark/verifier/internal/model"
)

// Routing thresholds.
const (
	strongEconomicsThreshold = 70
	lowCoverageThreshold     = 40
)

// RouteInput is everything the intent router considers.
type RouteInput struct {
	Verdict      model.VerdictResult
	Scores       model.ScoreResult
	Confidence   model.ConfidenceLevel
	Coverage     float64
	UserOverride model.RankMode
}

// Route maps the analysis outcome to a ranking mode and bucket
// strategy. This is the single seam that lets a "safer / more
// profitable / trending" UI action re-rank without recomputation: the
// decision is pure and cheap, and the ranker re-sorts cached scores.
func Route(in RouteInput) model.Routing {
	routing := derive(in)

	if in.UserOverride != "" && in.UserOverride.Valid() {
		routing.RankMode = in.UserOverride
	}

	zap.L().Debug("ranker: intent routed",
		zap.String("verdict", string(in.Verdict.Status)),
		zap.String("mode", string(routing.RankMode)),
		zap.Bool("show_trending", routing.ShowTrending),
		zap.String("bucket_strategy", routing.BucketStrategy),
	)

	return routing
}

func derive(in RouteInput) model.Routing {
	// Weak verdicts route toward safety and suppress trending picks.
	if in.Verdict.Status == model.VerdictRed || in.Verdict.Status == model.VerdictTestFirst || len(in.Verdict.HardStopFlags) > 0 {
		return model.Routing{
			RankMode:       model.ModeTrustFirst,
			ShowTrending:   false,
			BucketStrategy: model.BucketStrategyConservative,
		}
	}

	// Thin evidence does not justify aggressive weighting.
	if in.Coverage < lowCoverageThreshold {
		return model.Routing{
			RankMode:       model.ModeStandard,
			ShowTrending:   false,
			BucketStrategy: model.BucketStrategyBalanced,
		}
	}

	if in.Verdict.Status == model.VerdictGreen && in.Scores.EconomicsFeasibility >= strongEconomicsThreshold {
		return model.Routing{
			RankMode:       model.ModeEconomicsFirst,
			ShowTrending:   true,
			BucketStrategy: model.BucketStrategyBalanced,
		}
	}

	return model.Routing{
		RankMode:       model.ModeStandard,
		ShowTrending:   true,
		BucketStrategy: model.BucketStrategyBalanced,
	}
}
