package ranker

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/affimark/verifier/internal/model"
)

// Result is a ranked candidate list plus the winner, if any candidate
// is eligible.
type Result struct {
	Ranked []model.RankedAlternative
	Winner *model.RankedAlternative
}

// ineligibleWarning is attached to ranked hard-stopped candidates so
// they stay visible in lower buckets without ever winning.
const ineligibleWarning = "hard-stop flags present; excluded from winner eligibility"

// Ranker scores and orders alternative candidates.
type Ranker struct {
	weights WeightTables
}

// New creates a Ranker. Nil tables fall back to the defaults.
func New(weights WeightTables) *Ranker {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Ranker{weights: weights}
}

// Rank computes mode-weighted composite scores for all candidates and
// orders them by the documented tie-break chain. Candidate scoring is
// an independent map over the slice and runs in parallel; ordering is
// fully determined afterwards, so the parallelism has no hazards.
func (r *Ranker) Rank(candidates []model.RankerCandidate, mode model.RankMode) Result {
	table := r.weights.Table(mode)

	ranked := make([]model.RankedAlternative, len(candidates))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			ranked[i] = model.RankedAlternative{
				RankerCandidate: c,
				CompositeScore:  composite(c, table),
			}
			if !c.Eligible() {
				ranked[i].Warning = ineligibleWarning
			}
			return nil
		})
	}
	// Scoring goroutines never return errors; the group is used purely
	// for the bounded fan-out.
	_ = g.Wait()

	sortRanked(ranked)

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	result := Result{Ranked: ranked}
	for i := range ranked {
		if ranked[i].Eligible() {
			winner := ranked[i]
			result.Winner = &winner
			break
		}
	}
	return result
}

// RerankWithMode re-applies the weighting computation to an
// already-scored candidate list. Pure and side-effect free: no network,
// no database, identical output for identical input.
func (r *Ranker) RerankWithMode(candidates []model.RankerCandidate, mode model.RankMode) Result {
	return r.Rank(candidates, mode)
}

// composite is the weighted sum of the candidate's pillar scores,
// normalized by the table's total weight so misconfigured tables still
// land on the 0-100 scale.
func composite(c model.RankerCandidate, t WeightTable) float64 {
	totalWeight := t.Viability + t.Merchant + t.Economics
	if totalWeight == 0 {
		// Degenerate table: fall back to the unweighted mean.
		return (c.ProductViability + c.OfferMerchant + c.EconomicsFeasibility) / 3
	}
	return (t.Viability*c.ProductViability + t.Merchant*c.OfferMerchant + t.Economics*c.EconomicsFeasibility) / totalWeight
}

// sortRanked orders by the documented tie-break chain: composite score,
// then confidence, then coverage, then lower risk, then candidate ID so
// the ordering never depends on insertion order.
func sortRanked(ranked []model.RankedAlternative) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if a.Confidence != b.Confidence {
			return a.Confidence.AtLeast(b.Confidence) && !b.Confidence.AtLeast(a.Confidence)
		}
		if a.Coverage != b.Coverage {
			return a.Coverage > b.Coverage
		}
		if a.RiskScore != b.RiskScore {
			return a.RiskScore < b.RiskScore
		}
		return a.ID < b.ID
	})
}
