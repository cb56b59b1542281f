package scoring

import "github.com/affimark/verifier/internal/model"

// Assumed monthly click range for the earning band. The optimistic
// bound deliberately couples more traffic with the high commission
// rate: the band is meant to be wide.
const (
	EarningClicksLow  = 500.0
	EarningClicksHigh = 2000.0
)

// ComputeEarningBand estimates a monthly-earnings range for the product
// under the assumed click volume. Missing commission terms fall back to
// category benchmarks.
func (e *Engine) ComputeEarningBand(
	product model.ScrapedProductData,
	commission *model.CommissionData,
	benchmarks model.CategoryBenchmarks,
) model.EarningBand {
	rateLow := benchmarks.AvgCommission
	rateHigh := benchmarks.AvgCommission
	conversion := benchmarks.AvgConversion
	aov := benchmarks.AvgOrderValue
	refund := benchmarks.AvgRefundRate

	if commission != nil {
		rateLow = commission.RateLow
		rateHigh = commission.RateHigh
		if commission.ConversionRate != nil {
			conversion = *commission.ConversionRate
		}
		if commission.AvgOrderValue != nil {
			aov = *commission.AvgOrderValue
		}
		if commission.RefundRate != nil {
			refund = *commission.RefundRate
		}
	}

	// Prefer the listing's own price over the benchmark order value
	// when the program publishes no AOV.
	if (commission == nil || commission.AvgOrderValue == nil) && product.Price != nil && product.Price.Amount > 0 {
		aov = product.Price.Amount
	}

	currency := "EUR"
	if product.Price != nil && product.Price.Currency != "" {
		currency = product.Price.Currency
	}

	net := func(clicks, rate float64) float64 {
		return clicks * conversion * aov * rate * (1 - refund)
	}

	return model.EarningBand{
		Low:      net(EarningClicksLow, rateLow),
		High:     net(EarningClicksHigh, rateHigh),
		Currency: currency,
	}
}
