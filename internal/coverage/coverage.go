// Package coverage computes the weighted data-completeness score over
// the fixed evidence checklist. No heuristics: a pure boolean-to-score
// table, monotonically non-decreasing as checklist items turn true.
package coverage

import (
	"math"

	"github.com/affimark/verifier/internal/model"
)

// Checklist item weights. They sum to 1.0; the overall score is
// reported on a 0-100 scale.
const (
	weightPrice               = 0.15
	weightReviews             = 0.10
	weightRating              = 0.10
	weightBrand               = 0.10
	weightCategory            = 0.10
	weightReputationPrimary   = 0.10
	weightReputationSecondary = 0.05
	weightCommission          = 0.10
	weightCookie              = 0.05
	weightConversion          = 0.05
	weightAOV                 = 0.05
	weightRefund              = 0.03
	weightTrend               = 0.02
)

// BuildChecklist derives the boolean checklist from the raw inputs.
// trendPresent comes from the candidate loader's trend data.
func BuildChecklist(
	product model.ScrapedProductData,
	reputation *model.ReputationData,
	commission *model.CommissionData,
	trendPresent bool,
) model.CoverageChecklist {
	cl := model.CoverageChecklist{
		PricePresent:    product.Price != nil,
		ReviewsPresent:  product.ReviewCount != nil,
		RatingPresent:   product.Rating != nil,
		BrandPresent:    product.Brand != nil,
		CategoryPresent: product.Category != nil,
		TrendPresent:    trendPresent,
	}

	if reputation != nil {
		cl.ReputationPrimary = len(reputation.Sources) >= 1
		cl.ReputationSecondary = len(reputation.Sources) >= 2
	}

	if commission != nil {
		cl.CommissionPresent = true
		cl.CookiePresent = commission.CookieDays > 0
		cl.ConversionPresent = commission.ConversionRate != nil
		cl.AOVPresent = commission.AvgOrderValue != nil
		cl.RefundPresent = commission.RefundRate != nil
	}

	return cl
}

// Compute turns a checklist into the weighted overall score.
func Compute(cl model.CoverageChecklist) model.CoverageResult {
	score := 0.0
	for _, item := range []struct {
		present bool
		weight  float64
	}{
		{cl.PricePresent, weightPrice},
		{cl.ReviewsPresent, weightReviews},
		{cl.RatingPresent, weightRating},
		{cl.BrandPresent, weightBrand},
		{cl.CategoryPresent, weightCategory},
		{cl.ReputationPrimary, weightReputationPrimary},
		{cl.ReputationSecondary, weightReputationSecondary},
		{cl.CommissionPresent, weightCommission},
		{cl.CookiePresent, weightCookie},
		{cl.ConversionPresent, weightConversion},
		{cl.AOVPresent, weightAOV},
		{cl.RefundPresent, weightRefund},
		{cl.TrendPresent, weightTrend},
	} {
		if item.present {
			score += item.weight
		}
	}

	return model.CoverageResult{
		OverallScore: math.Round(score*10000) / 100,
		Checklist:    cl,
	}
}
