package scoring

import (
	"fmt"
	"strings"

	"github.com/affimark/verifier/internal/model"
)

// Offer & Merchant component caps.
const (
	maxMerchantTrust   = 30
	maxShippingReturns = 20
	maxPolicyClarity   = 15
	maxBrandRisk       = 20
	maxCompliance      = 15
)

// manyReviewsThreshold is the review volume above which a clean
// shipping record earns a bonus.
const manyReviewsThreshold = 100

// scoreMerchant computes the Offer & Merchant pillar (max 100).
func (e *Engine) scoreMerchant(product model.ScrapedProductData, reputation *model.ReputationData) model.PillarBreakdown {
	return sumPillar(
		scoreMerchantTrust(reputation),
		scoreShippingReturns(product, reputation),
		scorePolicyClarity(reputation),
		e.scoreBrandRisk(product),
		scoreCompliance(product),
	)
}

// scoreMerchantTrust scores the aggregated merchant reputation rating.
// Absent reputation data is neutral.
func scoreMerchantTrust(reputation *model.ReputationData) model.Component {
	if reputation == nil || reputation.OverallRating == nil {
		return model.Component{
			Name:        "merchant_trust",
			Value:       15,
			Explanation: "no reputation data, neutral default",
		}
	}

	var value float64
	switch r := *reputation.OverallRating; {
	case r >= 4.5:
		value = 30
	case r >= 4.0:
		value = 26
	case r >= 3.5:
		value = 21
	case r >= 3.0:
		value = 15
	case r >= 2.5:
		value = 10
	default:
		value = 5
	}

	return model.Component{
		Name:        "merchant_trust",
		Value:       value,
		Explanation: fmt.Sprintf("%.1f aggregated merchant rating", *reputation.OverallRating),
	}
}

// scoreShippingReturns starts neutral and adjusts for shipping
// complaints, clean high-volume records, and explicit availability.
func scoreShippingReturns(product model.ScrapedProductData, reputation *model.ReputationData) model.Component {
	value := 10.0
	var notes []string

	if reputation != nil {
		if reputation.ShippingComplaints {
			value -= 5
			notes = append(notes, "shipping complaints flagged")
		} else if reputation.OverallReviewCount != nil && *reputation.OverallReviewCount >= manyReviewsThreshold {
			value += 5
			notes = append(notes, "clean shipping record across many reviews")
		}
	}

	if product.Availability != nil {
		switch *product.Availability {
		case model.AvailabilityInStock:
			value += 3
			notes = append(notes, "in stock")
		case model.AvailabilityOutOfStock:
			value -= 3
			notes = append(notes, "out of stock")
		}
	}

	if len(notes) == 0 {
		notes = append(notes, "no shipping signals, neutral default")
	}

	return model.Component{
		Name:        "shipping_returns",
		Value:       clamp(value, 0, maxShippingReturns),
		Explanation: strings.Join(notes, "; "),
	}
}

// scorePolicyClarity starts neutral, penalizes support complaints, and
// rewards a solid overall rating.
func scorePolicyClarity(reputation *model.ReputationData) model.Component {
	value := 10.0
	var notes []string

	if reputation != nil {
		if reputation.SupportComplaints {
			value -= 4
			notes = append(notes, "support complaints flagged")
		}
		if reputation.OverallRating != nil && *reputation.OverallRating >= 4.0 {
			value += 3
			notes = append(notes, "strong overall rating")
		}
	}

	if len(notes) == 0 {
		notes = append(notes, "no policy signals, neutral default")
	}

	return model.Component{
		Name:        "policy_clarity",
		Value:       clamp(value, 0, maxPolicyClarity),
		Explanation: strings.Join(notes, "; "),
	}
}

// scoreBrandRisk scores counterparty risk: recognized brands are safe,
// unknown brands with almost no reviews are risky, everything else is
// neutral.
func (e *Engine) scoreBrandRisk(product model.ScrapedProductData) model.Component {
	reviews := 0
	if product.ReviewCount != nil {
		reviews = *product.ReviewCount
	}

	if product.Brand != nil && e.brands.Recognized(*product.Brand) {
		return model.Component{
			Name:        "brand_risk",
			Value:       20,
			Explanation: fmt.Sprintf("%s is an established brand", *product.Brand),
		}
	}
	if product.Brand != nil && strings.TrimSpace(*product.Brand) != "" && reviews < 10 {
		return model.Component{
			Name:        "brand_risk",
			Value:       5,
			Explanation: fmt.Sprintf("unknown brand %s with under 10 reviews", *product.Brand),
		}
	}
	return model.Component{
		Name:        "brand_risk",
		Value:       12,
		Explanation: "no strong brand risk signal, neutral default",
	}
}

// scoreCompliance drops sharply when the listing text carries high-risk
// marketing-claim terms.
func scoreCompliance(product model.ScrapedProductData) model.Component {
	texts := append([]string{}, product.Claims...)
	if product.Title != nil {
		texts = append(texts, *product.Title)
	}
	if product.Description != nil {
		texts = append(texts, *product.Description)
	}

	if term, ok := matchesAnyTerm(texts, riskyClaimTerms); ok {
		return model.Component{
			Name:        "compliance",
			Value:       5,
			Explanation: fmt.Sprintf("high-risk marketing claim %q in listing text", term),
		}
	}

	return model.Component{
		Name:        "compliance",
		Value:       13,
		Explanation: "no high-risk marketing claims detected",
	}
}
