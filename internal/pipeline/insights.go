package pipeline

import (
	"fmt"

	"github.com/affimark/verifier/internal/model"
)

// buildInsights turns the numeric results into short human-readable
// observations for the session snapshot. Order is fixed so identical
// analyses render identical insight lists.
func buildInsights(
	scores model.ScoreResult,
	confidence model.ConfidenceResult,
	cov model.CoverageResult,
	economics model.EconomicsSensitivity,
) []string {
	var insights []string

	strongest, weakest := extremePillars(scores)
	insights = append(insights,
		fmt.Sprintf("strongest pillar is %s at %.0f/100", strongest.name, strongest.value),
		fmt.Sprintf("weakest pillar is %s at %.0f/100", weakest.name, weakest.value),
	)

	switch confidence.Level {
	case model.ConfidenceHigh:
		insights = append(insights, fmt.Sprintf("evidence is strong: %d data points across %d source classes", confidence.TotalDataPoints, len(confidence.Sources)))
	case model.ConfidenceMed:
		insights = append(insights, "evidence is moderate; the verdict may shift as more data arrives")
	default:
		insights = append(insights, "evidence is thin; treat all scores as provisional")
	}

	if cov.OverallScore < 50 {
		insights = append(insights, fmt.Sprintf("data coverage is %.0f%%; several checklist items are missing", cov.OverallScore))
	}

	switch economics.Fragility {
	case model.FragilityFragile:
		insights = append(insights, "earnings are fragile: small assumption changes swing the outcome heavily")
	case model.FragilityModerate:
		insights = append(insights, "earnings are moderately sensitive to assumptions")
	}
	if len(economics.KeyDrivers) > 0 {
		insights = append(insights, fmt.Sprintf("the biggest earnings lever is %s", economics.KeyDrivers[0]))
	}
	if economics.BreakevenUnrealistic {
		insights = append(insights, "the breakeven click volume is unrealistic at typical traffic levels")
	}

	return insights
}

type pillar struct {
	name  string
	value float64
}

func extremePillars(scores model.ScoreResult) (strongest, weakest pillar) {
	pillars := []pillar{
		{"product viability", scores.ProductViability},
		{"offer & merchant", scores.OfferMerchant},
		{"economics feasibility", scores.EconomicsFeasibility},
	}
	strongest, weakest = pillars[0], pillars[0]
	for _, p := range pillars[1:] {
		if p.value > strongest.value {
			strongest = p
		}
		if p.value < weakest.value {
			weakest = p
		}
	}
	return strongest, weakest
}
