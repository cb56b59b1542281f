package model

// RankMode is a named weighting profile for composite candidate scoring.
type RankMode string

const (
	ModeStandard       RankMode = "standard"
	ModeDemandFirst    RankMode = "demand_first"
	ModeTrustFirst     RankMode = "trust_first"
	ModeEconomicsFirst RankMode = "economics_first"
)

// Valid reports whether m is a known rank mode.
func (m RankMode) Valid() bool {
	switch m {
	case ModeStandard, ModeDemandFirst, ModeTrustFirst, ModeEconomicsFirst:
		return true
	}
	return false
}

// PriceBand buckets a program's typical product price.
type PriceBand string

const (
	PriceBandLow  PriceBand = "low"
	PriceBandMid  PriceBand = "mid"
	PriceBandHigh PriceBand = "high"
)

// RankerCandidate is an alternative affiliate program with all scoring
// inputs pre-populated by the candidate loader.
type RankerCandidate struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Brand                string          `json:"brand"`
	Network              string          `json:"network"`
	ProductViability     float64         `json:"product_viability"`
	OfferMerchant        float64         `json:"offer_merchant"`
	EconomicsFeasibility float64         `json:"economics_feasibility"`
	CommissionRate       float64         `json:"commission_rate"`
	CookieDays           int             `json:"cookie_days"`
	ConversionRate       float64         `json:"conversion_rate"`
	AvgOrderValue        float64         `json:"avg_order_value"`
	RefundRate           float64         `json:"refund_rate"`
	Coverage             float64         `json:"coverage"`
	Confidence           ConfidenceLevel `json:"confidence"`
	HardStopFlags        []string        `json:"hard_stop_flags,omitempty"`
	RiskScore            float64         `json:"risk_score"`
	TrendScore           *float64        `json:"trend_score,omitempty"`
	PriceBand            PriceBand       `json:"price_band"`
}

// Eligible reports whether the candidate can win (no hard stops).
func (c RankerCandidate) Eligible() bool {
	return len(c.HardStopFlags) == 0
}

// RankedAlternative is a candidate with its mode-specific composite
// score and rank position.
type RankedAlternative struct {
	RankerCandidate
	CompositeScore float64 `json:"composite_score"`
	Rank           int     `json:"rank"`
	Warning        string  `json:"warning,omitempty"`
}

// Bucket names. Winner is not itself a bucket.
const (
	BucketSafe     = "safe"
	BucketUpside   = "upside"
	BucketBudget   = "budget"
	BucketTrending = "trending"
)

// Bucket is one named, size-capped, non-overlapping group of ranked
// alternatives.
type Bucket struct {
	Name  string              `json:"name"`
	Items []RankedAlternative `json:"items"`
}

// Routing is the intent router's decision for a session.
type Routing struct {
	RankMode       RankMode `json:"rank_mode"`
	ShowTrending   bool     `json:"show_trending"`
	BucketStrategy string   `json:"bucket_strategy"`
}

// Bucket strategies.
const (
	BucketStrategyBalanced     = "balanced"
	BucketStrategyConservative = "conservative"
)

// Recommendations is the ranked-and-bucketed output attached to a session.
type Recommendations struct {
	Mode            RankMode           `json:"mode"`
	Routing         Routing            `json:"routing"`
	Winner          *RankedAlternative `json:"winner"`
	Buckets         []Bucket           `json:"buckets"`
	TotalCandidates int                `json:"total_candidates"`
	CanRerank       bool               `json:"can_rerank"`
}
