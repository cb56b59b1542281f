package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affimark/verifier/internal/model"
)

func TestExtremePillars(t *testing.T) {
	strongest, weakest := extremePillars(model.ScoreResult{
		ProductViability:     86,
		OfferMerchant:        60,
		EconomicsFeasibility: 72,
	})

	assert.Equal(t, "product viability", strongest.name)
	assert.Equal(t, 86.0, strongest.value)
	assert.Equal(t, "offer & merchant", weakest.name)
	assert.Equal(t, 60.0, weakest.value)
}

func TestBuildInsights_StrongEvidence(t *testing.T) {
	insights := buildInsights(
		model.ScoreResult{ProductViability: 86, OfferMerchant: 79, EconomicsFeasibility: 75},
		model.ConfidenceResult{
			Level:           model.ConfidenceHigh,
			TotalDataPoints: 9,
			Sources:         []model.ConfidenceSource{{Type: "on_page"}, {Type: "reputation"}, {Type: "commission"}},
		},
		model.CoverageResult{OverallScore: 80},
		model.EconomicsSensitivity{Fragility: model.FragilityStable, KeyDrivers: []string{"commission"}},
	)

	require.GreaterOrEqual(t, len(insights), 4)
	assert.Equal(t, "strongest pillar is product viability at 86/100", insights[0])
	assert.Equal(t, "weakest pillar is economics feasibility at 75/100", insights[1])
	assert.Contains(t, insights, "evidence is strong: 9 data points across 3 source classes")
	assert.Contains(t, insights, "the biggest earnings lever is commission")
}

func TestBuildInsights_ThinAndFragile(t *testing.T) {
	insights := buildInsights(
		model.ScoreResult{ProductViability: 50, OfferMerchant: 60, EconomicsFeasibility: 40},
		model.ConfidenceResult{Level: model.ConfidenceLow},
		model.CoverageResult{OverallScore: 35},
		model.EconomicsSensitivity{Fragility: model.FragilityFragile, BreakevenUnrealistic: true},
	)

	assert.Contains(t, insights, "evidence is thin; treat all scores as provisional")
	assert.Contains(t, insights, "data coverage is 35%; several checklist items are missing")
	assert.Contains(t, insights, "earnings are fragile: small assumption changes swing the outcome heavily")
	assert.Contains(t, insights, "the breakeven click volume is unrealistic at typical traffic levels")
}

func TestBuildInsights_Deterministic(t *testing.T) {
	scores := model.ScoreResult{ProductViability: 70, OfferMerchant: 65, EconomicsFeasibility: 60}
	conf := model.ConfidenceResult{Level: model.ConfidenceMed}
	cov := model.CoverageResult{OverallScore: 55}
	econ := model.EconomicsSensitivity{Fragility: model.FragilityModerate, KeyDrivers: []string{"aov", "refund_rate"}}

	assert.Equal(t, buildInsights(scores, conf, cov, econ), buildInsights(scores, conf, cov, econ))
}
