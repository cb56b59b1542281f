package lookup

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/affimark/verifier/internal/model"
)

// CommissionSource fetches affiliate program terms. A nil result with a
// nil error means no program data was found; scoring then falls back to
// category benchmarks.
type CommissionSource interface {
	Lookup(ctx context.Context, brand, category string) (*model.CommissionData, error)
}

// HTTPCommissionSource queries a commission database by brand first,
// then by category. The by-category record is a coarser program-family
// average, still usable for economics scoring.
type HTTPCommissionSource struct {
	client  *Client
	baseURL string
}

// NewHTTPCommissionSource creates a commission source.
func NewHTTPCommissionSource(client *Client, baseURL string) *HTTPCommissionSource {
	return &HTTPCommissionSource{client: client, baseURL: baseURL}
}

func (s *HTTPCommissionSource) Lookup(ctx context.Context, brand, category string) (*model.CommissionData, error) {
	var attempts []Attempt[model.CommissionData]
	if brand != "" {
		attempts = append(attempts, Attempt[model.CommissionData]{
			Name: "by-brand", Fn: s.fetch("brand", brand),
		})
	}
	if category != "" {
		attempts = append(attempts, Attempt[model.CommissionData]{
			Name: "by-category", Fn: s.fetch("category", category),
		})
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	commission, err := FirstSuccess(ctx, "commission", attempts)
	if err != nil {
		// Commission is optional: degrade to absent, never fail the run.
		zap.L().Info("lookup: commission terms unavailable, continuing without them",
			zap.String("brand", brand),
			zap.String("category", category),
			zap.Error(err),
		)
		return nil, nil
	}
	return commission, nil
}

func (s *HTTPCommissionSource) fetch(param, value string) func(ctx context.Context) (*model.CommissionData, error) {
	return func(ctx context.Context) (*model.CommissionData, error) {
		reqURL := s.baseURL + "?" + param + "=" + url.QueryEscape(value)
		var commission model.CommissionData
		if err := s.client.GetJSON(ctx, reqURL, &commission); err != nil {
			return nil, err
		}
		return &commission, nil
	}
}
