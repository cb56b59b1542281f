// Package lookup provides the external collaborator clients that feed
// the pipeline: product scraping, merchant reputation, affiliate
// program terms, and alternative candidate loading. All lookups are
// rate-limited, and everything except the product scrape degrades to
// "data absent" instead of failing the analysis.
package lookup

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Attempt is one step in an ordered fallback chain.
type Attempt[T any] struct {
	Name string
	Fn   func(ctx context.Context) (*T, error)
}

// FirstSuccess runs attempts in order and returns the first non-nil
// result. Failures short-circuit nothing: each failed attempt is
// logged and the next one runs. All-failed returns the last error.
func FirstSuccess[T any](ctx context.Context, what string, attempts []Attempt[T]) (*T, error) {
	var lastErr error
	for _, a := range attempts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result, err := a.Fn(ctx)
		if err == nil && result != nil {
			return result, nil
		}
		if err != nil {
			zap.L().Debug("lookup: attempt failed, trying next",
				zap.String("lookup", what),
				zap.String("attempt", a.Name),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrapf(lastErr, "lookup: all %s attempts failed", what)
	}
	return nil, eris.Errorf("lookup: no %s attempt produced a result", what)
}
