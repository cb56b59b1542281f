package lookup

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/scoring"
)

// ProgramRecord is one raw affiliate program row from the candidate
// feed, before deterministic scoring.
type ProgramRecord struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Network        string   `json:"network"`
	Category       string   `json:"category"`
	MerchantRating *float64 `json:"merchant_rating,omitempty"`
	ReviewCount    *int     `json:"review_count,omitempty"`
	CommissionRate float64  `json:"commission_rate"`
	CookieDays     int      `json:"cookie_days"`
	ConversionRate *float64 `json:"conversion_rate,omitempty"`
	AvgOrderValue  *float64 `json:"avg_order_value,omitempty"`
	RefundRate     *float64 `json:"refund_rate,omitempty"`
	Verified       bool     `json:"verified"`
	Paused         bool     `json:"paused"`
	TrendScore     *float64 `json:"trend_score,omitempty"`
}

// CandidateSource loads scored alternative candidates for a category.
// excludeBrand drops the base product's own brand so it never competes
// against itself.
type CandidateSource interface {
	Load(ctx context.Context, category, excludeBrand string, limit int) ([]model.RankerCandidate, error)
}

// HTTPCandidateSource fetches raw program records from a candidate feed
// and scores them deterministically.
type HTTPCandidateSource struct {
	client  *Client
	baseURL string
	brands  map[string]bool
}

// NewHTTPCandidateSource creates a candidate source. brands is the
// recognized-brand set used in program scoring; nil disables the brand
// recognition bonus.
func NewHTTPCandidateSource(client *Client, baseURL string, brands map[string]bool) *HTTPCandidateSource {
	return &HTTPCandidateSource{client: client, baseURL: baseURL, brands: brands}
}

func (s *HTTPCandidateSource) Load(ctx context.Context, category, excludeBrand string, limit int) ([]model.RankerCandidate, error) {
	reqURL := s.baseURL + "?category=" + url.QueryEscape(category)
	var records []ProgramRecord
	if err := s.client.GetJSON(ctx, reqURL, &records); err != nil {
		return nil, err
	}

	if excludeBrand != "" {
		filtered := records[:0]
		for _, r := range records {
			if normalizeBrand(r.Brand) != normalizeBrand(excludeBrand) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	benchmarks := scoring.ResolveBenchmarks(&category)
	candidates := ScorePrograms(records, benchmarks, s.brands)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// ScorePrograms converts raw program records into ranker candidates
// with pillar scores, hard-stop flags, risk, and price band attached.
// Pure and order-stable: identical records produce identical output.
func ScorePrograms(records []ProgramRecord, benchmarks model.CategoryBenchmarks, brands map[string]bool) []model.RankerCandidate {
	candidates := make([]model.RankerCandidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, scoreProgram(r, benchmarks, brands))
	}
	// Stable feed order regardless of upstream ordering.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return candidates
}

func scoreProgram(r ProgramRecord, benchmarks model.CategoryBenchmarks, brands map[string]bool) model.RankerCandidate {
	c := model.RankerCandidate{
		ID:             r.ID,
		Name:           r.Name,
		Brand:          r.Brand,
		Network:        r.Network,
		CommissionRate: r.CommissionRate,
		CookieDays:     r.CookieDays,
		ConversionRate: orBenchmark(r.ConversionRate, benchmarks.AvgConversion),
		AvgOrderValue:  orBenchmark(r.AvgOrderValue, benchmarks.AvgOrderValue),
		RefundRate:     orBenchmark(r.RefundRate, benchmarks.AvgRefundRate),
		TrendScore:     r.TrendScore,
	}

	c.ProductViability = programViability(r, brands)
	c.OfferMerchant = programMerchant(r)
	c.EconomicsFeasibility = programEconomics(c, benchmarks)
	c.HardStopFlags = programHardStops(r, c.RefundRate)
	c.RiskScore = programRisk(r, c.RefundRate)
	c.PriceBand = priceBandFor(c.AvgOrderValue)
	c.Coverage = programCoverage(r)
	c.Confidence = programConfidence(r)

	return c
}

func programViability(r ProgramRecord, brands map[string]bool) float64 {
	score := 40.0
	if r.ReviewCount != nil {
		switch n := *r.ReviewCount; {
		case n >= 1000:
			score += 30
		case n >= 500:
			score += 25
		case n >= 100:
			score += 18
		case n >= 10:
			score += 10
		default:
			score += 3
		}
	}
	if r.MerchantRating != nil && *r.MerchantRating >= 4.0 {
		score += 15
	}
	if brands[normalizeBrand(r.Brand)] {
		score += 10
	}
	return clampScore(score)
}

func programMerchant(r ProgramRecord) float64 {
	score := 30.0
	if r.MerchantRating != nil {
		switch rating := *r.MerchantRating; {
		case rating >= 4.5:
			score += 40
		case rating >= 4.0:
			score += 32
		case rating >= 3.5:
			score += 24
		case rating >= 3.0:
			score += 14
		default:
			score += 4
		}
	} else {
		score += 18
	}
	if r.Verified {
		score += 20
	}
	return clampScore(score)
}

func programEconomics(c model.RankerCandidate, benchmarks model.CategoryBenchmarks) float64 {
	score := 20.0
	if benchmarks.AvgCommission > 0 {
		switch ratio := c.CommissionRate / benchmarks.AvgCommission; {
		case ratio >= 1.5:
			score += 40
		case ratio >= 1.0:
			score += 30
		case ratio >= 0.7:
			score += 20
		default:
			score += 8
		}
	}
	if c.CookieDays >= 30 {
		score += 15
	} else if c.CookieDays >= 14 {
		score += 10
	} else {
		score += 4
	}
	switch {
	case c.RefundRate <= 0.05:
		score += 20
	case c.RefundRate <= 0.15:
		score += 12
	default:
		score += 3
	}
	return clampScore(score)
}

func programHardStops(r ProgramRecord, refundRate float64) []string {
	var flags []string
	if r.MerchantRating != nil && *r.MerchantRating < 2.5 {
		flags = append(flags, model.HardStopLowMerchantTrust)
	}
	if r.ReviewCount != nil && *r.ReviewCount == 0 {
		flags = append(flags, model.HardStopNoDemandEvidence)
	}
	if r.Paused {
		flags = append(flags, model.HardStopProgramPaused)
	}
	if refundRate > 0.35 {
		flags = append(flags, model.HardStopHighRefundRate)
	}
	return flags
}

// programRisk maps the record's trust signals onto [0,1], 0 safest.
func programRisk(r ProgramRecord, refundRate float64) float64 {
	risk := 0.0
	if !r.Verified {
		risk += 0.25
	}
	if r.MerchantRating == nil {
		risk += 0.20
	} else if *r.MerchantRating < 3.5 {
		risk += 0.30
	}
	if refundRate > 0.15 {
		risk += 0.25
	} else if refundRate > 0.08 {
		risk += 0.10
	}
	if r.ReviewCount == nil || *r.ReviewCount < 50 {
		risk += 0.15
	}
	if risk > 1 {
		risk = 1
	}
	return risk
}

func priceBandFor(avgOrderValue float64) model.PriceBand {
	switch {
	case avgOrderValue < 50:
		return model.PriceBandLow
	case avgOrderValue < 150:
		return model.PriceBandMid
	default:
		return model.PriceBandHigh
	}
}

func programCoverage(r ProgramRecord) float64 {
	fields := []bool{
		r.MerchantRating != nil,
		r.ReviewCount != nil,
		r.CommissionRate > 0,
		r.CookieDays > 0,
		r.ConversionRate != nil,
		r.AvgOrderValue != nil,
		r.RefundRate != nil,
		r.TrendScore != nil,
	}
	present := 0
	for _, ok := range fields {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(fields)) * 100
}

func programConfidence(r ProgramRecord) model.ConfidenceLevel {
	signals := 0
	if r.Verified {
		signals += 2
	}
	if r.MerchantRating != nil {
		signals++
	}
	if r.ReviewCount != nil && *r.ReviewCount >= 50 {
		signals++
	}
	if r.ConversionRate != nil && r.AvgOrderValue != nil {
		signals++
	}
	switch {
	case signals >= 4:
		return model.ConfidenceHigh
	case signals >= 2:
		return model.ConfidenceMed
	default:
		return model.ConfidenceLow
	}
}

func normalizeBrand(brand string) string {
	return strings.ToLower(strings.TrimSpace(brand))
}

func orBenchmark(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func clampScore(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
