package model

// Component is one named sub-score with its human-readable explanation.
// Pillar totals are exactly the sum of their components after clamping;
// there is no hidden normalization step.
type Component struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Explanation string  `json:"explanation"`
}

// PillarBreakdown holds the components that sum to one pillar total.
type PillarBreakdown struct {
	Total      float64     `json:"total"`
	Components []Component `json:"components"`
}

// Component returns the named component, or a zero Component if absent.
func (b PillarBreakdown) Component(name string) Component {
	for _, c := range b.Components {
		if c.Name == name {
			return c
		}
	}
	return Component{}
}

// ScoreResult holds the three pillar totals and their breakdowns. Every
// total and component value lies in [0,100]. Breakdowns serialize as a
// sibling of the totals at the snapshot level, not nested inside them.
type ScoreResult struct {
	ProductViability     float64                    `json:"product_viability"`
	OfferMerchant        float64                    `json:"offer_merchant"`
	EconomicsFeasibility float64                    `json:"economics_feasibility"`
	Breakdowns           map[string]PillarBreakdown `json:"-"`
}

// Pillar breakdown map keys.
const (
	PillarViability = "product_viability"
	PillarMerchant  = "offer_merchant"
	PillarEconomics = "economics_feasibility"
)

// Overall returns the unweighted mean of the three pillar totals.
func (s ScoreResult) Overall() float64 {
	return (s.ProductViability + s.OfferMerchant + s.EconomicsFeasibility) / 3
}

// ConfidenceLevel classifies evidentiary strength.
type ConfidenceLevel string

const (
	ConfidenceLow  ConfidenceLevel = "LOW"
	ConfidenceMed  ConfidenceLevel = "MED"
	ConfidenceHigh ConfidenceLevel = "HIGH"
)

// AtLeast reports whether l is at least as strong as other.
func (l ConfidenceLevel) AtLeast(other ConfidenceLevel) bool {
	return confidenceOrder(l) >= confidenceOrder(other)
}

func confidenceOrder(l ConfidenceLevel) int {
	switch l {
	case ConfidenceHigh:
		return 2
	case ConfidenceMed:
		return 1
	default:
		return 0
	}
}

// ConfidenceSource describes one contributing evidence source.
type ConfidenceSource struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	ItemCount   int    `json:"item_count"`
	RecencyDays int    `json:"recency_days"`
}

// ConfidenceResult classifies how much independent evidence backs the
// scores, distinct from the scores themselves.
type ConfidenceResult struct {
	Level           ConfidenceLevel    `json:"level"`
	Sources         []ConfidenceSource `json:"sources"`
	CrossAgreement  string             `json:"cross_agreement"`
	TotalDataPoints int                `json:"total_data_points"`
}

// CoverageChecklist is the fixed boolean checklist coverage is computed
// from. Field order matches the weighted table in the coverage package.
type CoverageChecklist struct {
	PricePresent        bool `json:"price_present"`
	ReviewsPresent      bool `json:"reviews_present"`
	RatingPresent       bool `json:"rating_present"`
	BrandPresent        bool `json:"brand_present"`
	CategoryPresent     bool `json:"category_present"`
	ReputationPrimary   bool `json:"reputation_primary"`
	ReputationSecondary bool `json:"reputation_secondary"`
	CommissionPresent   bool `json:"commission_present"`
	CookiePresent       bool `json:"cookie_present"`
	ConversionPresent   bool `json:"conversion_present"`
	AOVPresent          bool `json:"aov_present"`
	RefundPresent       bool `json:"refund_present"`
	TrendPresent        bool `json:"trend_present"`
}

// CoverageResult is the weighted completeness score plus the checklist
// it was computed from.
type CoverageResult struct {
	OverallScore float64           `json:"overall_score"`
	Checklist    CoverageChecklist `json:"checklist"`
}

// EarningBand is a deliberately wide monthly-earnings range that
// communicates uncertainty rather than false precision.
type EarningBand struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Currency string  `json:"currency"`
}

// EconomicsScenario is one named point in the sensitivity analysis.
type EconomicsScenario struct {
	Name            string  `json:"name"`
	Clicks          float64 `json:"clicks"`
	ConversionRate  float64 `json:"conversion_rate"`
	AvgOrderValue   float64 `json:"avg_order_value"`
	RefundRate      float64 `json:"refund_rate"`
	CommissionRate  float64 `json:"commission_rate"`
	Orders          float64 `json:"orders"`
	Gross           float64 `json:"gross"`
	GrossCommission float64 `json:"gross_commission"`
	Net             float64 `json:"net"`
}

// Fragility labels for the economics sensitivity spread.
const (
	FragilityStable   = "stable"
	FragilityModerate = "moderate"
	FragilityFragile  = "fragile"
)

// EconomicsSensitivity holds the pessimistic/base/optimistic scenarios,
// fragility classification, driver ranking, and breakeven estimate.
type EconomicsSensitivity struct {
	Pessimistic          EconomicsScenario `json:"pessimistic"`
	Base                 EconomicsScenario `json:"base"`
	Optimistic           EconomicsScenario `json:"optimistic"`
	Fragility            string            `json:"fragility"`
	KeyDrivers           []string          `json:"key_drivers"`
	BreakevenClicks      float64           `json:"breakeven_clicks"`
	BreakevenUnrealistic bool              `json:"breakeven_unrealistic"`
}
