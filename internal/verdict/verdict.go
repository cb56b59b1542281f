// Package verdict combines pillar scores, confidence, and hard-stop
// conditions into a single auditable recommendation. The engine is a
// single fresh evaluation per analysis, not a transition system.
package verdict

import (
	"fmt"
	"sort"

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/scoring"
)

// Threshold table for the status decision.
const (
	lowOverallThreshold   = 45 // below, with LOW confidence, manual testing beats a guess
	strongPillarThreshold = 65
	lowMerchantRating     = 2.5
	highRefundRate        = 0.35
)

// Input carries everything the verdict engine evaluates.
type Input struct {
	Scores     model.ScoreResult
	Confidence model.ConfidenceResult
	Product    model.ScrapedProductData
	Reputation *model.ReputationData
	Commission *model.CommissionData
}

// Evaluate produces the verdict for one analysis.
func Evaluate(in Input) model.VerdictResult {
	flags := DetectHardStops(in.Product, in.Reputation, in.Commission)

	status := deriveStatus(in.Scores, in.Confidence.Level, flags)

	return model.VerdictResult{
		Status:         status,
		PrimaryAction:  primaryAction(status),
		HardStopFlags:  flags,
		TopPros:        topComponents(in.Scores, false, 3),
		TopRisks:       topComponents(in.Scores, true, 3),
		KeyAssumptions: keyAssumptions(in),
	}
}

// DetectHardStops returns the hard-stop flags for the base product.
// Any flag unconditionally prevents a GREEN verdict.
func DetectHardStops(product model.ScrapedProductData, reputation *model.ReputationData, commission *model.CommissionData) []string {
	var flags []string

	if reputation != nil && reputation.OverallRating != nil && *reputation.OverallRating < lowMerchantRating {
		flags = append(flags, model.HardStopLowMerchantTrust)
	}

	noListingReviews := product.ReviewCount == nil || *product.ReviewCount == 0
	noReputationReviews := reputation == nil || reputation.OverallReviewCount == nil || *reputation.OverallReviewCount == 0
	if noListingReviews && noReputationReviews {
		flags = append(flags, model.HardStopNoDemandEvidence)
	}

	if commission != nil && commission.RefundRate != nil && *commission.RefundRate > highRefundRate {
		flags = append(flags, model.HardStopHighRefundRate)
	}

	return flags
}

// deriveStatus applies the threshold table. RED on any hard stop, then
// TEST_FIRST when both evidence and score are weak, GREEN only when all
// pillars are strong and confidence is at least MED.
func deriveStatus(scores model.ScoreResult, confidence model.ConfidenceLevel, flags []string) model.VerdictStatus {
	if len(flags) > 0 {
		return model.VerdictRed
	}

	overall := scores.Overall()
	if overall < lowOverallThreshold && confidence == model.ConfidenceLow {
		return model.VerdictTestFirst
	}

	allStrong := scores.ProductViability >= strongPillarThreshold &&
		scores.OfferMerchant >= strongPillarThreshold &&
		scores.EconomicsFeasibility >= strongPillarThreshold
	if allStrong && confidence.AtLeast(model.ConfidenceMed) {
		return model.VerdictGreen
	}

	return model.VerdictYellow
}

func primaryAction(status model.VerdictStatus) string {
	switch status {
	case model.VerdictGreen:
		return "promote this product"
	case model.VerdictYellow:
		return "verify before promoting"
	case model.VerdictTestFirst:
		return "test manually before committing"
	default:
		return "avoid this product"
	}
}

// topComponents picks the best (or worst) sub-components across all
// three pillars, sorted by score relative to nothing but the raw value.
// Ties fall back to component name for deterministic output.
func topComponents(scores model.ScoreResult, worst bool, n int) []string {
	var all []model.Component
	for _, key := range []string{model.PillarViability, model.PillarMerchant, model.PillarEconomics} {
		all = append(all, scores.Breakdowns[key].Components...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Value != all[j].Value {
			if worst {
				return all[i].Value < all[j].Value
			}
			return all[i].Value > all[j].Value
		}
		return all[i].Name < all[j].Name
	})

	if len(all) > n {
		all = all[:n]
	}

	out := make([]string, len(all))
	for i, c := range all {
		out[i] = fmt.Sprintf("%s: %s", c.Name, c.Explanation)
	}
	return out
}

// keyAssumptions makes the verdict auditable: every neutral default and
// baked-in assumption is spelled out.
func keyAssumptions(in Input) []string {
	assumptions := []string{
		fmt.Sprintf("monthly click volume assumed between %.0f and %.0f", scoring.EarningClicksLow, scoring.EarningClicksHigh),
	}
	if in.Reputation == nil {
		assumptions = append(assumptions, "no merchant reputation data; neutral trust defaults applied")
	}
	if in.Commission == nil {
		assumptions = append(assumptions, "no affiliate program terms; category benchmarks substituted")
	}
	if in.Product.Price == nil {
		assumptions = append(assumptions, "no listing price; pricing scored at the neutral midpoint")
	}
	if in.Confidence.CrossAgreement == "low" {
		assumptions = append(assumptions, "listing and merchant ratings disagree; treat sentiment with caution")
	}
	return assumptions
}
