package model

// Price holds a listing price with optional strike-through original amount.
type Price struct {
	Amount         float64  `json:"amount"`
	Currency       string   `json:"currency"`
	OriginalAmount *float64 `json:"original_amount,omitempty"`
}

// ScrapedProductData is the read-only input produced by the external
// scraper. Every field may be absent; downstream scoring substitutes a
// documented neutral default for anything nil.
type ScrapedProductData struct {
	URL                string   `json:"url"`
	Title              *string  `json:"title,omitempty"`
	Brand              *string  `json:"brand,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Description        *string  `json:"description,omitempty"`
	Price              *Price   `json:"price,omitempty"`
	Rating             *float64 `json:"rating,omitempty"`
	ReviewCount        *int     `json:"review_count,omitempty"`
	Availability       *string  `json:"availability,omitempty"`
	ImageURL           *string  `json:"image_url,omitempty"`
	Variants           []string `json:"variants,omitempty"`
	Claims             []string `json:"claims,omitempty"`
	SellerName         *string  `json:"seller_name,omitempty"`
	RegionAvailability []string `json:"region_availability,omitempty"`
}

// Availability values the scraper normalizes to.
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
)

// ReputationSource is one independent review aggregator's view of a merchant.
type ReputationSource struct {
	Name        string   `json:"name"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
}

// ReputationData aggregates merchant reputation across sources. Optional
// end to end; absence is an expected case, never an error.
type ReputationData struct {
	Sources            []ReputationSource `json:"sources,omitempty"`
	OverallRating      *float64           `json:"overall_rating,omitempty"`
	OverallReviewCount *int               `json:"overall_review_count,omitempty"`
	ShippingComplaints bool               `json:"shipping_complaints"`
	QualityComplaints  bool               `json:"quality_complaints"`
	SupportComplaints  bool               `json:"support_complaints"`
}

// CommissionData describes an affiliate program's terms. Optional.
type CommissionData struct {
	RateLow             float64  `json:"rate_low"`
	RateHigh            float64  `json:"rate_high"`
	CookieDays          int      `json:"cookie_days"`
	Network             string   `json:"network"`
	ConversionRate      *float64 `json:"conversion_rate,omitempty"`
	AvgOrderValue       *float64 `json:"avg_order_value,omitempty"`
	RefundRate          *float64 `json:"refund_rate,omitempty"`
	RequiresApplication bool     `json:"requires_application"`
}

// MidRate returns the midpoint of the commission rate range.
func (c *CommissionData) MidRate() float64 {
	return (c.RateLow + c.RateHigh) / 2
}

// CategoryBenchmarks holds category-average figures used as scoring
// baselines. Always resolvable: unknown categories fall back to a
// global default bucket.
type CategoryBenchmarks struct {
	Category       string  `json:"category"`
	AvgCommission  float64 `json:"avg_commission"`
	AvgCookieDays  int     `json:"avg_cookie_days"`
	AvgConversion  float64 `json:"avg_conversion"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	AvgRefundRate  float64 `json:"avg_refund_rate"`
	AvgReviewCount int     `json:"avg_review_count"`
	AvgPrice       float64 `json:"avg_price"`
}
