package scoring

import (
	"fmt"

	"github.com/affimark/verifier/internal/model"
)

// Economics Feasibility component caps.
const (
	maxCommission = 40
	maxConversion = 25
	maxAOV        = 20
	maxRefund     = 15
)

// Cookie duration adjustment thresholds.
const (
	longCookieDays  = 60
	shortCookieDays = 7
)

// scoreEconomics computes the Economics Feasibility pillar (max 100).
// Missing commission data falls back to category benchmarks for every
// sub-component, which lands each ratio at 1.0 (the "at benchmark" band).
func scoreEconomics(commission *model.CommissionData, benchmarks model.CategoryBenchmarks) model.PillarBreakdown {
	return sumPillar(
		scoreCommissionComponent(commission, benchmarks),
		scoreConversionComponent(commission, benchmarks),
		scoreAOVComponent(commission, benchmarks),
		scoreRefundAdjustment(commission, benchmarks),
	)
}

// ratioBand maps an actual-to-benchmark ratio onto six fixed bands
// scaled to the component cap. The bands are shared by the commission,
// conversion, and AOV components.
func ratioBand(ratio float64, bands [6]float64) float64 {
	switch {
	case ratio >= 2.0:
		return bands[0]
	case ratio >= 1.5:
		return bands[1]
	case ratio >= 1.0:
		return bands[2]
	case ratio >= 0.7:
		return bands[3]
	case ratio >= 0.3:
		return bands[4]
	default:
		return bands[5]
	}
}

// scoreCommissionComponent scores the commission rate against the
// category benchmark, adjusted for cookie duration.
func scoreCommissionComponent(commission *model.CommissionData, benchmarks model.CategoryBenchmarks) model.Component {
	ratio := 1.0
	cookieDays := benchmarks.AvgCookieDays
	source := "benchmark fallback"
	if commission != nil {
		if benchmarks.AvgCommission > 0 {
			ratio = commission.MidRate() / benchmarks.AvgCommission
		}
		cookieDays = commission.CookieDays
		source = fmt.Sprintf("%.2fx benchmark commission", ratio)
	}

	value := ratioBand(ratio, [6]float64{40, 34, 28, 20, 12, 5})

	explanation := source
	switch {
	case cookieDays >= longCookieDays:
		value += 3
		explanation += fmt.Sprintf(", long %dd cookie", cookieDays)
	case cookieDays > 0 && cookieDays <= shortCookieDays:
		value -= 3
		explanation += fmt.Sprintf(", short %dd cookie", cookieDays)
	}

	return model.Component{
		Name:        "commission_component",
		Value:       clamp(value, 0, maxCommission),
		Explanation: explanation,
	}
}

// scoreConversionComponent scores the program conversion rate against
// the category benchmark.
func scoreConversionComponent(commission *model.CommissionData, benchmarks model.CategoryBenchmarks) model.Component {
	ratio := 1.0
	source := "benchmark fallback"
	if commission != nil && commission.ConversionRate != nil && benchmarks.AvgConversion > 0 {
		ratio = *commission.ConversionRate / benchmarks.AvgConversion
		source = fmt.Sprintf("%.2fx benchmark conversion", ratio)
	}

	return model.Component{
		Name:        "conversion_component",
		Value:       ratioBand(ratio, [6]float64{25, 21, 17, 12, 7, 3}),
		Explanation: source,
	}
}

// scoreAOVComponent scores the program average order value against the
// category benchmark.
func scoreAOVComponent(commission *model.CommissionData, benchmarks model.CategoryBenchmarks) model.Component {
	ratio := 1.0
	source := "benchmark fallback"
	if commission != nil && commission.AvgOrderValue != nil && benchmarks.AvgOrderValue > 0 {
		ratio = *commission.AvgOrderValue / benchmarks.AvgOrderValue
		source = fmt.Sprintf("%.2fx benchmark order value", ratio)
	}

	return model.Component{
		Name:        "aov_component",
		Value:       ratioBand(ratio, [6]float64{20, 17, 14, 10, 6, 3}),
		Explanation: source,
	}
}

// scoreRefundAdjustment scores refund exposure in six bands: lower
// refund rates score higher.
func scoreRefundAdjustment(commission *model.CommissionData, benchmarks model.CategoryBenchmarks) model.Component {
	refund := benchmarks.AvgRefundRate
	source := "benchmark fallback"
	if commission != nil && commission.RefundRate != nil {
		refund = *commission.RefundRate
		source = fmt.Sprintf("%.1f%% refund rate", refund*100)
	}

	var value float64
	switch {
	case refund <= 0.03:
		value = 15
	case refund <= 0.06:
		value = 12
	case refund <= 0.10:
		value = 10
	case refund <= 0.15:
		value = 7
	case refund <= 0.25:
		value = 4
	default:
		value = 2
	}

	return model.Component{
		Name:        "refund_adjustment",
		Value:       value,
		Explanation: source,
	}
}
