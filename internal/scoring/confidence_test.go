package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/affimark/verifier/internal/model"
)

func TestComputeConfidence_HighNeedsBreadthAndVolume(t *testing.T) {
	e := NewEngine(nil)
	product := model.ScrapedProductData{
		Title:       strPtr("Noise cancelling headphones"),
		Brand:       strPtr("Quietude"),
		Price:       &model.Price{Amount: 120, Currency: "EUR"},
		Rating:      floatPtr(4.4),
		ReviewCount: intPtr(800),
	}
	reputation := &model.ReputationData{
		OverallRating:      floatPtr(4.2),
		OverallReviewCount: intPtr(3000),
	}
	commission := &model.CommissionData{RateLow: 0.05, RateHigh: 0.08, CookieDays: 30}

	result := e.ComputeConfidence(product, reputation, commission)

	assert.Equal(t, model.ConfidenceHigh, result.Level)
	assert.GreaterOrEqual(t, result.TotalDataPoints, 8)
	assert.GreaterOrEqual(t, len(result.Sources), 3)
	assert.Equal(t, "high", result.CrossAgreement)
}

func TestComputeConfidence_SingleClassStaysLow(t *testing.T) {
	e := NewEngine(nil)
	// Plenty of on-page fields but nothing independent: volume without
	// breadth never leaves LOW.
	product := model.ScrapedProductData{
		Title:        strPtr("Widget"),
		Brand:        strPtr("Acme"),
		Category:     strPtr("home"),
		Description:  strPtr("A widget."),
		Price:        &model.Price{Amount: 20},
		Rating:       floatPtr(4.0),
		ReviewCount:  intPtr(30),
		Availability: strPtr(model.AvailabilityInStock),
		ImageURL:     strPtr("https://img.example/w.png"),
		SellerName:   strPtr("Acme Store"),
	}

	result := e.ComputeConfidence(product, nil, nil)

	assert.Equal(t, model.ConfidenceLow, result.Level)
	assert.Len(t, result.Sources, 1)
	assert.Equal(t, "unknown", result.CrossAgreement)
}

func TestComputeConfidence_TwoClassesReachMed(t *testing.T) {
	e := NewEngine(nil)
	product := model.ScrapedProductData{
		Title:  strPtr("Widget"),
		Rating: floatPtr(4.0),
	}
	commission := &model.CommissionData{RateLow: 0.04, RateHigh: 0.06, CookieDays: 14}

	result := e.ComputeConfidence(product, nil, commission)

	// 2 on-page fields + 2 commission points = 4 across 2 classes.
	assert.Equal(t, model.ConfidenceMed, result.Level)
	assert.Equal(t, 4, result.TotalDataPoints)
}

func TestComputeConfidence_ReviewVolumeIsOwnClass(t *testing.T) {
	e := NewEngine(nil)
	product := model.ScrapedProductData{ReviewCount: intPtr(600)}

	result := e.ComputeConfidence(product, nil, nil)

	var volume *model.ConfidenceSource
	for i := range result.Sources {
		if result.Sources[i].Type == classReviewVolume {
			volume = &result.Sources[i]
		}
	}
	assert.NotNil(t, volume)
	assert.Equal(t, 2, volume.ItemCount)
}

func TestCrossAgreement_GapBands(t *testing.T) {
	rep := func(r float64) *model.ReputationData {
		return &model.ReputationData{OverallRating: &r}
	}
	product := func(r float64) model.ScrapedProductData {
		return model.ScrapedProductData{Rating: &r}
	}

	assert.Equal(t, "high", crossAgreement(product(4.5), rep(4.2)))
	assert.Equal(t, "medium", crossAgreement(product(4.5), rep(3.6)))
	assert.Equal(t, "low", crossAgreement(product(4.5), rep(3.0)))
	assert.Equal(t, "unknown", crossAgreement(model.ScrapedProductData{}, rep(4.0)))
}
