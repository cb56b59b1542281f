package scoring

import (
	"math"
	"sort"

	"github.com/affimark/verifier/internal/model"
)

// SensitivityInput holds the base assumptions for the economics
// sensitivity analysis. RateLow/RateHigh default to CommissionRate when
// no explicit range is supplied.
type SensitivityInput struct {
	ConversionRate float64
	AvgOrderValue  float64
	RefundRate     float64
	CommissionRate float64
	RateLow        *float64
	RateHigh       *float64
	MonthlyClicks  float64
}

// Scenario multipliers and caps.
const (
	pessimisticConversionMul = 0.5
	pessimisticAOVMul        = 0.8
	pessimisticRefundMul     = 1.5
	pessimisticRefundCap     = 0.3
	optimisticConversionMul  = 1.5
	optimisticConversionCap  = 0.1
	optimisticAOVMul         = 1.2
	optimisticRefundMul      = 0.5
)

// breakevenTarget is the monthly net the breakeven click estimate aims
// for; breakevenUnrealisticClicks flags estimates beyond reach.
const (
	breakevenTarget            = 100.0
	breakevenUnrealisticClicks = 10000.0
)

// ComputeSensitivity produces pessimistic/base/optimistic earning
// scenarios, a fragility classification, a key-driver ranking, and a
// breakeven click estimate.
func ComputeSensitivity(in SensitivityInput) model.EconomicsSensitivity {
	rateLow := in.CommissionRate
	if in.RateLow != nil {
		rateLow = *in.RateLow
	}
	rateHigh := in.CommissionRate
	if in.RateHigh != nil {
		rateHigh = *in.RateHigh
	}

	pessimistic := buildScenario("pessimistic", in.MonthlyClicks,
		in.ConversionRate*pessimisticConversionMul,
		in.AvgOrderValue*pessimisticAOVMul,
		math.Min(in.RefundRate*pessimisticRefundMul, pessimisticRefundCap),
		rateLow,
	)
	base := buildScenario("base", in.MonthlyClicks,
		in.ConversionRate, in.AvgOrderValue, in.RefundRate, in.CommissionRate)
	optimistic := buildScenario("optimistic", in.MonthlyClicks,
		math.Min(in.ConversionRate*optimisticConversionMul, optimisticConversionCap),
		in.AvgOrderValue*optimisticAOVMul,
		in.RefundRate*optimisticRefundMul,
		rateHigh,
	)

	breakeven, reachable := breakevenClicks(in)

	return model.EconomicsSensitivity{
		Pessimistic:          pessimistic,
		Base:                 base,
		Optimistic:           optimistic,
		Fragility:            classifyFragility(pessimistic.Net, base.Net, optimistic.Net),
		KeyDrivers:           rankDrivers(in, pessimistic, optimistic),
		BreakevenClicks:      breakeven,
		BreakevenUnrealistic: !reachable || breakeven > breakevenUnrealisticClicks,
	}
}

// buildScenario evaluates the earnings chain for one set of assumptions.
func buildScenario(name string, clicks, conversion, aov, refund, rate float64) model.EconomicsScenario {
	orders := clicks * conversion
	gross := orders * aov
	grossCommission := gross * rate
	return model.EconomicsScenario{
		Name:            name,
		Clicks:          clicks,
		ConversionRate:  conversion,
		AvgOrderValue:   aov,
		RefundRate:      refund,
		CommissionRate:  rate,
		Orders:          orders,
		Gross:           gross,
		GrossCommission: grossCommission,
		Net:             grossCommission * (1 - refund),
	}
}

// classifyFragility labels the scenario spread relative to the base
// net. A zero base is treated as maximally fragile.
func classifyFragility(pessimisticNet, baseNet, optimisticNet float64) string {
	if baseNet <= 0 {
		return model.FragilityFragile
	}
	spread := (optimisticNet - pessimisticNet) / baseNet
	switch {
	case spread > 2:
		return model.FragilityFragile
	case spread > 1:
		return model.FragilityModerate
	default:
		return model.FragilityStable
	}
}

// rankDrivers orders the four factors by how much moving each one alone
// from its pessimistic to its optimistic value swings the net.
func rankDrivers(in SensitivityInput, pessimistic, optimistic model.EconomicsScenario) []string {
	baseNet := func(conversion, aov, refund, rate float64) float64 {
		return in.MonthlyClicks * conversion * aov * rate * (1 - refund)
	}

	type driver struct {
		name  string
		swing float64
	}
	drivers := []driver{
		{"commission", math.Abs(
			baseNet(in.ConversionRate, in.AvgOrderValue, in.RefundRate, optimistic.CommissionRate) -
				baseNet(in.ConversionRate, in.AvgOrderValue, in.RefundRate, pessimistic.CommissionRate))},
		{"conversion", math.Abs(
			baseNet(optimistic.ConversionRate, in.AvgOrderValue, in.RefundRate, in.CommissionRate) -
				baseNet(pessimistic.ConversionRate, in.AvgOrderValue, in.RefundRate, in.CommissionRate))},
		{"aov", math.Abs(
			baseNet(in.ConversionRate, optimistic.AvgOrderValue, in.RefundRate, in.CommissionRate) -
				baseNet(in.ConversionRate, pessimistic.AvgOrderValue, in.RefundRate, in.CommissionRate))},
		{"refund", math.Abs(
			baseNet(in.ConversionRate, in.AvgOrderValue, optimistic.RefundRate, in.CommissionRate) -
				baseNet(in.ConversionRate, in.AvgOrderValue, pessimistic.RefundRate, in.CommissionRate))},
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].swing > drivers[j].swing
	})

	names := make([]string, len(drivers))
	for i, d := range drivers {
		names[i] = d.name
	}
	return names
}

// breakevenClicks estimates the monthly clicks needed to reach the
// breakeven target net. A dead earnings chain is unreachable and
// reports zero clicks with reachable=false.
func breakevenClicks(in SensitivityInput) (float64, bool) {
	perClick := in.ConversionRate * in.AvgOrderValue * in.CommissionRate * (1 - in.RefundRate)
	if perClick <= 0 {
		return 0, false
	}
	return breakevenTarget / perClick, true
}
