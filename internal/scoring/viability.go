package scoring

import (
	"fmt"
	"strings"

	"github.com/affimark/verifier/internal/model"
)

// Product Viability component caps.
const (
	maxDemandSignals   = 25
	maxReviewSentiment = 25
	maxPricing         = 25
	maxCategoryFit     = 15
	maxUniqueness      = 10
)

// scoreViability computes the Product Viability pillar (max 100).
func (e *Engine) scoreViability(product model.ScrapedProductData, benchmarks model.CategoryBenchmarks, userCategories []string) model.PillarBreakdown {
	return sumPillar(
		scoreDemandSignals(product),
		scoreReviewSentiment(product.Rating),
		scorePricing(product.Price, benchmarks.AvgPrice),
		scoreCategoryFit(product.Category, userCategories),
		e.scoreUniqueness(product.Brand),
	)
}

// scoreDemandSignals scores review volume in fixed bands, with a small
// bonus for "bought/popular" badge claims.
func scoreDemandSignals(product model.ScrapedProductData) model.Component {
	reviews := 0
	if product.ReviewCount != nil {
		reviews = *product.ReviewCount
	}

	var value float64
	switch {
	case reviews >= 1000:
		value = 25
	case reviews >= 500:
		value = 22
	case reviews >= 100:
		value = 18
	case reviews >= 50:
		value = 15
	case reviews >= 10:
		value = 10
	case reviews >= 1:
		value = 5
	default:
		value = 3
	}

	explanation := fmt.Sprintf("%d reviews", reviews)
	if term, ok := matchesAnyTerm(product.Claims, popularityClaimTerms); ok {
		value += 3
		explanation += fmt.Sprintf(", %q badge", term)
	}

	return model.Component{
		Name:        "demand_signals",
		Value:       clamp(value, 0, maxDemandSignals),
		Explanation: explanation,
	}
}

// scoreReviewSentiment scores the star rating in fixed bands. A missing
// rating gets the neutral midpoint.
func scoreReviewSentiment(rating *float64) model.Component {
	if rating == nil {
		return model.Component{
			Name:        "review_sentiment",
			Value:       12,
			Explanation: "no rating available, neutral default",
		}
	}

	var value float64
	switch r := *rating; {
	case r >= 4.5:
		value = 25
	case r >= 4.0:
		value = 21
	case r >= 3.5:
		value = 16
	case r >= 3.0:
		value = 11
	case r >= 2.0:
		value = 6
	default:
		value = 3
	}

	return model.Component{
		Name:        "review_sentiment",
		Value:       value,
		Explanation: fmt.Sprintf("%.1f star rating", *rating),
	}
}

// scorePricing scores price competitiveness as the ratio of listing
// price to the category average. Cheaper scores higher. A discounted
// price (below the original amount) earns a small bonus.
func scorePricing(price *model.Price, avgPrice float64) model.Component {
	if price == nil || avgPrice <= 0 {
		return model.Component{
			Name:        "pricing_competitiveness",
			Value:       12,
			Explanation: "no price or benchmark available, neutral default",
		}
	}

	ratio := price.Amount / avgPrice
	var value float64
	switch {
	case ratio <= 0.5:
		value = 25
	case ratio <= 0.8:
		value = 21
	case ratio <= 1.1:
		value = 18
	case ratio <= 1.4:
		value = 12
	case ratio <= 1.8:
		value = 8
	default:
		value = 4
	}

	explanation := fmt.Sprintf("%.2fx category average price", ratio)
	if price.OriginalAmount != nil && price.Amount < *price.OriginalAmount {
		value += 3
		explanation += ", discounted from original"
	}

	return model.Component{
		Name:        "pricing_competitiveness",
		Value:       clamp(value, 0, maxPricing),
		Explanation: explanation,
	}
}

// scoreCategoryFit scores alignment with the user's affinity categories.
// No list supplied is neutral, not a penalty.
func scoreCategoryFit(category *string, userCategories []string) model.Component {
	if len(userCategories) == 0 {
		return model.Component{
			Name:        "category_fit",
			Value:       10,
			Explanation: "no affinity categories supplied, neutral default",
		}
	}
	if category != nil {
		for _, uc := range userCategories {
			if strings.EqualFold(strings.TrimSpace(uc), strings.TrimSpace(*category)) {
				return model.Component{
					Name:        "category_fit",
					Value:       15,
					Explanation: fmt.Sprintf("matches affinity category %q", uc),
				}
			}
		}
	}
	return model.Component{
		Name:        "category_fit",
		Value:       7,
		Explanation: "outside supplied affinity categories",
	}
}

// scoreUniqueness scores brand saturation: recognized mass-market brands
// are crowded, unrecognized brands leave more room, unknown is neutral.
func (e *Engine) scoreUniqueness(brand *string) model.Component {
	if brand == nil || strings.TrimSpace(*brand) == "" {
		return model.Component{
			Name:        "uniqueness",
			Value:       6,
			Explanation: "brand unknown, neutral default",
		}
	}
	if e.brands.Recognized(*brand) {
		return model.Component{
			Name:        "uniqueness",
			Value:       3,
			Explanation: fmt.Sprintf("%s is a saturated mass-market brand", *brand),
		}
	}
	return model.Component{
		Name:        "uniqueness",
		Value:       8,
		Explanation: fmt.Sprintf("%s is a niche brand with differentiation room", *brand),
	}
}
