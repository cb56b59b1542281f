package ranker

import "github.com/affimark/verifier/internal/model"

// Bucket assignment thresholds.
const (
	safeRiskThreshold      = 0.3
	upsideScoreThreshold   = 70.0
	budgetRiskCeiling      = 0.6
	trendingScoreThreshold = 0.6
)

// BucketOptions configures the partition.
type BucketOptions struct {
	ItemsPerBucket int
	ShowTrending   bool
	BucketStrategy string
}

// BucketResult is the winner plus the categorized alternative groups.
type BucketResult struct {
	Winner          *model.RankedAlternative `json:"winner"`
	Buckets         []model.Bucket           `json:"buckets"`
	TotalCandidates int                      `json:"total_candidates"`
}

// Bucketize partitions the ranked list into Safe/Upside/Budget/Trending
// groups. The winner never appears in a bucket, and a candidate
// matching several rules is assigned to the first matching bucket in
// fixed priority order, so membership is a true partition.
func Bucketize(ranked []model.RankedAlternative, winner *model.RankedAlternative, opts BucketOptions) BucketResult {
	if opts.ItemsPerBucket <= 0 {
		opts.ItemsPerBucket = 3
	}

	buckets := map[string]*model.Bucket{
		model.BucketSafe:     {Name: model.BucketSafe},
		model.BucketUpside:   {Name: model.BucketUpside},
		model.BucketBudget:   {Name: model.BucketBudget},
		model.BucketTrending: {Name: model.BucketTrending},
	}

	for _, alt := range ranked {
		if winner != nil && alt.ID == winner.ID {
			continue
		}
		name, ok := assignBucket(alt, opts.ShowTrending)
		if !ok {
			continue
		}
		b := buckets[name]
		if len(b.Items) >= opts.ItemsPerBucket {
			continue
		}
		b.Items = append(b.Items, alt)
	}

	// Fixed presentation order; empty buckets are omitted.
	var out []model.Bucket
	for _, name := range []string{model.BucketSafe, model.BucketUpside, model.BucketBudget, model.BucketTrending} {
		if len(buckets[name].Items) > 0 {
			out = append(out, *buckets[name])
		}
	}

	return BucketResult{
		Winner:          winner,
		Buckets:         out,
		TotalCandidates: len(ranked),
	}
}

// assignBucket applies the bucket rules in priority order
// Safe > Upside > Budget > Trending.
func assignBucket(alt model.RankedAlternative, showTrending bool) (string, bool) {
	switch {
	case alt.Eligible() && alt.RiskScore < safeRiskThreshold:
		return model.BucketSafe, true
	case alt.CompositeScore >= upsideScoreThreshold:
		return model.BucketUpside, true
	case alt.PriceBand == model.PriceBandLow && alt.RiskScore <= budgetRiskCeiling:
		return model.BucketBudget, true
	case showTrending && alt.TrendScore != nil && *alt.TrendScore >= trendingScoreThreshold:
		return model.BucketTrending, true
	}
	return "", false
}
