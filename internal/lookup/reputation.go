package lookup

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/affimark/verifier/internal/model"
)

// ReputationSource fetches merchant reputation data. A nil result with
// a nil error means no reputation data exists for the merchant, which
// downstream scoring treats as a neutral default rather than a failure.
type ReputationSource interface {
	Lookup(ctx context.Context, merchantDomain string) (*model.ReputationData, error)
}

// HTTPReputationSource queries a reputation aggregator service by
// merchant domain, with an optional secondary aggregator.
type HTTPReputationSource struct {
	client       *Client
	primaryURL   string
	secondaryURL string
}

// NewHTTPReputationSource creates a reputation source. secondaryURL may
// be empty.
func NewHTTPReputationSource(client *Client, primaryURL, secondaryURL string) *HTTPReputationSource {
	return &HTTPReputationSource{client: client, primaryURL: primaryURL, secondaryURL: secondaryURL}
}

func (s *HTTPReputationSource) Lookup(ctx context.Context, merchantDomain string) (*model.ReputationData, error) {
	attempts := []Attempt[model.ReputationData]{
		{Name: "primary", Fn: s.fetchFrom(s.primaryURL, merchantDomain)},
	}
	if s.secondaryURL != "" {
		attempts = append(attempts, Attempt[model.ReputationData]{
			Name: "secondary", Fn: s.fetchFrom(s.secondaryURL, merchantDomain),
		})
	}

	reputation, err := FirstSuccess(ctx, "reputation", attempts)
	if err != nil {
		// Reputation is optional: degrade to absent, never fail the run.
		zap.L().Info("lookup: reputation unavailable, continuing without it",
			zap.String("merchant", merchantDomain),
			zap.Error(err),
		)
		return nil, nil
	}
	return reputation, nil
}

func (s *HTTPReputationSource) fetchFrom(endpoint, merchantDomain string) func(ctx context.Context) (*model.ReputationData, error) {
	return func(ctx context.Context) (*model.ReputationData, error) {
		reqURL := endpoint + "?domain=" + url.QueryEscape(merchantDomain)
		var reputation model.ReputationData
		if err := s.client.GetJSON(ctx, reqURL, &reputation); err != nil {
			return nil, err
		}
		return &reputation, nil
	}
}
