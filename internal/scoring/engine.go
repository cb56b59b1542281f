// Package scoring implements the deterministic three-pillar product
// evaluation engine. Every function here is a pure CPU-only transform:
// identical inputs produce identical outputs, missing inputs fall back
// to documented neutral defaults, and every value is clamped to its
// component cap and to [0,100] at the pillar total.
package scoring

import (
	"math"

	"go.uber.org/zap"

	"github.com/affimark/verifier/internal/model"
)

// Engine computes pillar scores, confidence, and earning bands.
type Engine struct {
	brands Brands
}

// NewEngine creates an Engine with the given brand recognition table.
// A nil table falls back to the compiled-in defaults.
func NewEngine(brands Brands) *Engine {
	if brands == nil {
		brands = DefaultBrands()
	}
	return &Engine{brands: brands}
}

// ComputeScores evaluates the three pillars for one product. reputation
// and commission may be nil; benchmarks are always resolvable by the
// caller. userCategories is an optional affinity list.
func (e *Engine) ComputeScores(
	product model.ScrapedProductData,
	reputation *model.ReputationData,
	commission *model.CommissionData,
	benchmarks model.CategoryBenchmarks,
	userCategories []string,
) model.ScoreResult {
	viability := e.scoreViability(product, benchmarks, userCategories)
	merchant := e.scoreMerchant(product, reputation)
	economics := scoreEconomics(commission, benchmarks)

	result := model.ScoreResult{
		ProductViability:     viability.Total,
		OfferMerchant:        merchant.Total,
		EconomicsFeasibility: economics.Total,
		Breakdowns: map[string]model.PillarBreakdown{
			model.PillarViability: viability,
			model.PillarMerchant:  merchant,
			model.PillarEconomics: economics,
		},
	}

	zap.L().Debug("scoring: pillars computed",
		zap.String("url", product.URL),
		zap.Float64("product_viability", result.ProductViability),
		zap.Float64("offer_merchant", result.OfferMerchant),
		zap.Float64("economics_feasibility", result.EconomicsFeasibility),
	)

	return result
}

// sumPillar sums components into a pillar breakdown, clamping the total
// to [0,100]. Totals are never re-normalized.
func sumPillar(components ...model.Component) model.PillarBreakdown {
	total := 0.0
	for _, c := range components {
		total += c.Value
	}
	return model.PillarBreakdown{
		Total:      clamp(total, 0, 100),
		Components: components,
	}
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
