package scoring

import (
	"math"

	"github.com/affimark/verifier/internal/model"
)

// Evidence class names for confidence sources.
const (
	classOnPage       = "on_page"
	classReputation   = "reputation"
	classCommission   = "commission"
	classReviewVolume = "review_volume"
)

// ComputeConfidence classifies evidentiary strength from the diversity
// and volume of data sources actually available. HIGH needs at least 8
// data points across at least 3 evidence classes, MED at least 4 across
// 2; everything else is LOW.
func (e *Engine) ComputeConfidence(
	product model.ScrapedProductData,
	reputation *model.ReputationData,
	commission *model.CommissionData,
) model.ConfidenceResult {
	var sources []model.ConfidenceSource

	if n := countOnPageFields(product); n > 0 {
		sources = append(sources, model.ConfidenceSource{
			Name:      "product_listing",
			Type:      classOnPage,
			ItemCount: n,
		})
	}

	if reputation != nil {
		n := 0
		if reputation.OverallRating != nil {
			n++
		}
		if reputation.OverallReviewCount != nil {
			n++
		}
		for _, s := range reputation.Sources {
			if s.Rating != nil {
				n++
			}
			if s.ReviewCount != nil {
				n++
			}
		}
		if n > 0 {
			sources = append(sources, model.ConfidenceSource{
				Name:      "merchant_reputation",
				Type:      classReputation,
				ItemCount: n,
			})
		}
	}

	if commission != nil {
		n := 2 // rate range and cookie duration always carried
		if commission.ConversionRate != nil {
			n++
		}
		if commission.AvgOrderValue != nil {
			n++
		}
		if commission.RefundRate != nil {
			n++
		}
		sources = append(sources, model.ConfidenceSource{
			Name:      "affiliate_program",
			Type:      classCommission,
			ItemCount: n,
		})
	}

	// Review volume is its own evidence class: many independent buyer
	// reviews back the demand signal regardless of other sources.
	if product.ReviewCount != nil && *product.ReviewCount >= 50 {
		n := 1
		if *product.ReviewCount >= 500 {
			n = 2
		}
		sources = append(sources, model.ConfidenceSource{
			Name:      "review_volume",
			Type:      classReviewVolume,
			ItemCount: n,
		})
	}

	total := 0
	for _, s := range sources {
		total += s.ItemCount
	}

	level := model.ConfidenceLow
	switch {
	case total >= 8 && len(sources) >= 3:
		level = model.ConfidenceHigh
	case total >= 4 && len(sources) >= 2:
		level = model.ConfidenceMed
	}

	return model.ConfidenceResult{
		Level:           level,
		Sources:         sources,
		CrossAgreement:  crossAgreement(product, reputation),
		TotalDataPoints: total,
	}
}

// countOnPageFields counts populated fields of the scraped listing.
func countOnPageFields(product model.ScrapedProductData) int {
	n := 0
	for _, present := range []bool{
		product.Title != nil,
		product.Brand != nil,
		product.Category != nil,
		product.Description != nil,
		product.Price != nil,
		product.Rating != nil,
		product.ReviewCount != nil,
		product.Availability != nil,
		product.ImageURL != nil,
		product.SellerName != nil,
	} {
		if present {
			n++
		}
	}
	if len(product.Variants) > 0 {
		n++
	}
	if len(product.Claims) > 0 {
		n++
	}
	return n
}

// crossAgreement compares the on-page rating against the reputation
// rating. A single rating source cannot agree or disagree with itself.
func crossAgreement(product model.ScrapedProductData, reputation *model.ReputationData) string {
	if product.Rating == nil || reputation == nil || reputation.OverallRating == nil {
		return "unknown"
	}
	gap := math.Abs(*product.Rating - *reputation.OverallRating)
	switch {
	case gap <= 0.5:
		return "high"
	case gap <= 1.0:
		return "medium"
	default:
		return "low"
	}
}
