package scoring

import (
	"strings"

	"github.com/affimark/verifier/internal/model"
)

// categoryBenchmarks maps normalized category names to their average
// affiliate figures. Rates are fractions, prices in EUR.
var categoryBenchmarks = map[string]model.CategoryBenchmarks{
	"electronics": {
		AvgCommission: 0.04, AvgCookieDays: 24, AvgConversion: 0.02,
		AvgOrderValue: 120, AvgRefundRate: 0.08, AvgReviewCount: 450, AvgPrice: 95,
	},
	"home": {
		AvgCommission: 0.06, AvgCookieDays: 30, AvgConversion: 0.025,
		AvgOrderValue: 80, AvgRefundRate: 0.06, AvgReviewCount: 300, AvgPrice: 60,
	},
	"beauty": {
		AvgCommission: 0.10, AvgCookieDays: 30, AvgConversion: 0.03,
		AvgOrderValue: 45, AvgRefundRate: 0.05, AvgReviewCount: 520, AvgPrice: 32,
	},
	"fashion": {
		AvgCommission: 0.08, AvgCookieDays: 14, AvgConversion: 0.022,
		AvgOrderValue: 70, AvgRefundRate: 0.18, AvgReviewCount: 280, AvgPrice: 55,
	},
	"fitness": {
		AvgCommission: 0.09, AvgCookieDays: 30, AvgConversion: 0.025,
		AvgOrderValue: 65, AvgRefundRate: 0.07, AvgReviewCount: 350, AvgPrice: 48,
	},
	"software": {
		AvgCommission: 0.25, AvgCookieDays: 60, AvgConversion: 0.015,
		AvgOrderValue: 90, AvgRefundRate: 0.10, AvgReviewCount: 150, AvgPrice: 75,
	},
	"pets": {
		AvgCommission: 0.07, AvgCookieDays: 30, AvgConversion: 0.028,
		AvgOrderValue: 50, AvgRefundRate: 0.04, AvgReviewCount: 400, AvgPrice: 38,
	},
}

// defaultBenchmarks is the global fallback bucket for unrecognized
// categories.
var defaultBenchmarks = model.CategoryBenchmarks{
	Category:      "default",
	AvgCommission: 0.06, AvgCookieDays: 30, AvgConversion: 0.02,
	AvgOrderValue: 75, AvgRefundRate: 0.08, AvgReviewCount: 300, AvgPrice: 60,
}

// ResolveBenchmarks returns benchmarks for a category string, falling
// back to the global default bucket for unknown or empty categories.
// Always resolvable by contract.
func ResolveBenchmarks(category *string) model.CategoryBenchmarks {
	if category == nil {
		return defaultBenchmarks
	}
	key := strings.ToLower(strings.TrimSpace(*category))
	if b, ok := categoryBenchmarks[key]; ok {
		b.Category = key
		return b
	}
	return defaultBenchmarks
}
