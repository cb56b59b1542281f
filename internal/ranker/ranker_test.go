package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affimark/verifier/internal/model"
)

func candidate(id string, viability, merchant, economics float64) model.RankerCandidate {
	return model.RankerCandidate{
		ID:                   id,
		Name:                 "Program " + id,
		ProductViability:     viability,
		OfferMerchant:        merchant,
		EconomicsFeasibility: economics,
		Confidence:           model.ConfidenceMed,
		Coverage:             50,
		RiskScore:            0.2,
	}
}

func TestRank_WinnerIsTopEligible(t *testing.T) {
	r := New(nil)
	candidates := []model.RankerCandidate{
		candidate("a", 60, 60, 60),
		candidate("b", 90, 90, 90),
		candidate("c", 70, 70, 70),
	}

	result := r.Rank(candidates, model.ModeStandard)

	require.NotNil(t, result.Winner)
	assert.Equal(t, "b", result.Winner.ID)
	assert.Equal(t, 1, result.Winner.Rank)
	assert.Len(t, result.Ranked, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{result.Ranked[0].Rank, result.Ranked[1].Rank, result.Ranked[2].Rank})
}

func TestRank_HardStoppedCandidateNeverWins(t *testing.T) {
	r := New(nil)
	flagged := candidate("a", 95, 95, 95)
	flagged.HardStopFlags = []string{model.HardStopLowMerchantTrust}
	clean := candidate("b", 70, 70, 70)

	result := r.Rank([]model.RankerCandidate{flagged, clean}, model.ModeStandard)

	// The flagged candidate outranks on composite but cannot win.
	assert.Equal(t, "a", result.Ranked[0].ID)
	assert.NotEmpty(t, result.Ranked[0].Warning)
	require.NotNil(t, result.Winner)
	assert.Equal(t, "b", result.Winner.ID)
	assert.Empty(t, result.Winner.Warning)
}

func TestRank_NoEligibleCandidatesNoWinner(t *testing.T) {
	r := New(nil)
	flagged := candidate("a", 80, 80, 80)
	flagged.HardStopFlags = []string{model.HardStopProgramPaused}

	result := r.Rank([]model.RankerCandidate{flagged}, model.ModeStandard)

	assert.Nil(t, result.Winner)
	assert.Len(t, result.Ranked, 1)
}

func TestRank_ModeWeightingChangesOrder(t *testing.T) {
	r := New(nil)
	demandHeavy := candidate("demand", 95, 50, 50)
	economicsHeavy := candidate("economics", 50, 50, 95)

	candidates := []model.RankerCandidate{demandHeavy, economicsHeavy}

	byDemand := r.Rank(candidates, model.ModeDemandFirst)
	assert.Equal(t, "demand", byDemand.Ranked[0].ID)

	byEconomics := r.Rank(candidates, model.ModeEconomicsFirst)
	assert.Equal(t, "economics", byEconomics.Ranked[0].ID)
}

func TestRank_TieBreakChain(t *testing.T) {
	r := New(nil)

	// Identical composites: confidence decides.
	high := candidate("z-high", 70, 70, 70)
	high.Confidence = model.ConfidenceHigh
	low := candidate("a-low", 70, 70, 70)
	low.Confidence = model.ConfidenceLow

	result := r.Rank([]model.RankerCandidate{low, high}, model.ModeStandard)
	assert.Equal(t, "z-high", result.Ranked[0].ID)

	// Same confidence: coverage decides.
	covered := candidate("z-covered", 70, 70, 70)
	covered.Coverage = 80
	sparse := candidate("a-sparse", 70, 70, 70)
	sparse.Coverage = 20

	result = r.Rank([]model.RankerCandidate{sparse, covered}, model.ModeStandard)
	assert.Equal(t, "z-covered", result.Ranked[0].ID)

	// Same coverage: lower risk decides.
	safe := candidate("z-safe", 70, 70, 70)
	safe.RiskScore = 0.1
	risky := candidate("a-risky", 70, 70, 70)
	risky.RiskScore = 0.5

	result = r.Rank([]model.RankerCandidate{risky, safe}, model.ModeStandard)
	assert.Equal(t, "z-safe", result.Ranked[0].ID)

	// Full tie: ID decides, independent of insertion order.
	first := candidate("alpha", 70, 70, 70)
	second := candidate("beta", 70, 70, 70)

	result = r.Rank([]model.RankerCandidate{second, first}, model.ModeStandard)
	assert.Equal(t, "alpha", result.Ranked[0].ID)
}

func TestRerankWithMode_Deterministic(t *testing.T) {
	r := New(nil)
	candidates := []model.RankerCandidate{
		candidate("c", 80, 40, 60),
		candidate("a", 60, 80, 40),
		candidate("b", 40, 60, 80),
		candidate("d", 60, 60, 60),
	}

	first := r.RerankWithMode(candidates, model.ModeTrustFirst)
	second := r.RerankWithMode(candidates, model.ModeTrustFirst)

	assert.Equal(t, first, second)
}

func TestComposite_WeightNormalization(t *testing.T) {
	c := candidate("a", 90, 60, 30)

	// Unnormalized weights land on the same scale as fractional ones.
	fractional := composite(c, WeightTable{Viability: 0.5, Merchant: 0.25, Economics: 0.25})
	scaled := composite(c, WeightTable{Viability: 2, Merchant: 1, Economics: 1})
	assert.InDelta(t, fractional, scaled, 1e-9)

	// A zero table falls back to the unweighted mean.
	assert.InDelta(t, 60.0, composite(c, WeightTable{}), 1e-9)
}
