package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/affimark/verifier/internal/model"
)

func sensitivityFixture() SensitivityInput {
	return SensitivityInput{
		ConversionRate: 0.02,
		AvgOrderValue:  100,
		RefundRate:     0.08,
		CommissionRate: 0.05,
		MonthlyClicks:  1000,
	}
}

func TestComputeSensitivity_ScenarioOrdering(t *testing.T) {
	result := ComputeSensitivity(sensitivityFixture())

	assert.LessOrEqual(t, result.Pessimistic.Net, result.Base.Net)
	assert.LessOrEqual(t, result.Base.Net, result.Optimistic.Net)
	assert.Equal(t, "pessimistic", result.Pessimistic.Name)
	assert.Equal(t, "base", result.Base.Name)
	assert.Equal(t, "optimistic", result.Optimistic.Name)
}

func TestComputeSensitivity_BaseScenarioChain(t *testing.T) {
	result := ComputeSensitivity(sensitivityFixture())

	// 1000 clicks * 0.02 = 20 orders, * 100 = 2000 gross,
	// * 0.05 = 100 commission, * 0.92 = 92 net.
	assert.InDelta(t, 20.0, result.Base.Orders, 1e-9)
	assert.InDelta(t, 2000.0, result.Base.Gross, 1e-9)
	assert.InDelta(t, 100.0, result.Base.GrossCommission, 1e-9)
	assert.InDelta(t, 92.0, result.Base.Net, 1e-9)
}

func TestComputeSensitivity_PessimisticCapsRefund(t *testing.T) {
	in := sensitivityFixture()
	in.RefundRate = 0.25

	result := ComputeSensitivity(in)

	// 0.25 * 1.5 would be 0.375, capped at 0.3.
	assert.InDelta(t, 0.3, result.Pessimistic.RefundRate, 1e-9)
}

func TestComputeSensitivity_OptimisticCapsConversion(t *testing.T) {
	in := sensitivityFixture()
	in.ConversionRate = 0.08

	result := ComputeSensitivity(in)

	// 0.08 * 1.5 would be 0.12, capped at 0.1.
	assert.InDelta(t, 0.1, result.Optimistic.ConversionRate, 1e-9)
}

func TestComputeSensitivity_RateRangeSplitsScenarios(t *testing.T) {
	in := sensitivityFixture()
	low, high := 0.03, 0.09
	in.RateLow = &low
	in.RateHigh = &high

	result := ComputeSensitivity(in)

	assert.InDelta(t, 0.03, result.Pessimistic.CommissionRate, 1e-9)
	assert.InDelta(t, 0.05, result.Base.CommissionRate, 1e-9)
	assert.InDelta(t, 0.09, result.Optimistic.CommissionRate, 1e-9)
}

func TestComputeSensitivity_Breakeven(t *testing.T) {
	result := ComputeSensitivity(sensitivityFixture())

	// Per-click: 0.02 * 100 * 0.05 * 0.92 = 0.092; 100 / 0.092.
	assert.InDelta(t, 100.0/0.092, result.BreakevenClicks, 1e-6)
	assert.False(t, result.BreakevenUnrealistic)
}

func TestComputeSensitivity_BreakevenUnrealistic(t *testing.T) {
	in := sensitivityFixture()
	in.ConversionRate = 0.0001
	in.CommissionRate = 0.01
	in.AvgOrderValue = 10

	result := ComputeSensitivity(in)
	assert.True(t, result.BreakevenUnrealistic)

	dead := sensitivityFixture()
	dead.CommissionRate = 0
	dead.RateLow = nil
	dead.RateHigh = nil
	deadResult := ComputeSensitivity(dead)
	assert.True(t, deadResult.BreakevenUnrealistic)
	assert.Zero(t, deadResult.BreakevenClicks)
}

func TestComputeSensitivity_KeyDriversRanked(t *testing.T) {
	in := sensitivityFixture()
	low, high := 0.01, 0.20
	in.RateLow = &low
	in.RateHigh = &high

	result := ComputeSensitivity(in)

	// A 0.01-0.20 rate range swings net far more than any multiplier.
	assert.Len(t, result.KeyDrivers, 4)
	assert.Equal(t, "commission", result.KeyDrivers[0])
}

func TestClassifyFragility_SpreadBands(t *testing.T) {
	assert.Equal(t, model.FragilityStable, classifyFragility(80, 100, 150))
	assert.Equal(t, model.FragilityModerate, classifyFragility(50, 100, 180))
	assert.Equal(t, model.FragilityFragile, classifyFragility(20, 100, 260))
	assert.Equal(t, model.FragilityFragile, classifyFragility(0, 0, 0))
}
