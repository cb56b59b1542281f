package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/session"
)

// BuildPlaybook generates the action plan for the base product or, when
// programID names a cached candidate, for that alternative. The session
// moves to playbook_ready.
func (o *Orchestrator) BuildPlaybook(ctx context.Context, sessionID string, programID string) (*model.Playbook, error) {
	sess, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Snapshot == nil {
		return nil, eris.Errorf("pipeline: session %s has no analysis to build a playbook from", sessionID)
	}
	if !session.CanTransition(sess.Status, model.SessionPlaybookReady) {
		return nil, eris.Errorf("pipeline: session %s in status %s cannot build a playbook", sessionID, sess.Status)
	}

	var playbook *model.Playbook
	if programID == "" {
		playbook = basePlaybook(sess.Snapshot)
	} else {
		candidate, ok := findCandidate(sess.Candidates, programID)
		if !ok {
			return nil, eris.Errorf("pipeline: program %s not in session %s candidate set", programID, sessionID)
		}
		playbook = alternativePlaybook(candidate, sess.Snapshot.EarningBand.Currency)
	}

	if err := o.store.SavePlaybook(ctx, sessionID, playbook); err != nil {
		return nil, err
	}
	if err := session.Transition(sess, model.SessionPlaybookReady); err != nil {
		return nil, err
	}
	if err := o.store.UpdateSessionStatus(ctx, sessionID, sess.Status); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: playbook built",
		zap.String("session_id", sessionID),
		zap.String("program", playbook.ProgramName),
		zap.Bool("for_alternative", playbook.ForAlternative),
	)
	return playbook, nil
}

func basePlaybook(snapshot *model.Snapshot) *model.Playbook {
	name := snapshot.Product.URL
	if snapshot.Product.Title != nil {
		name = *snapshot.Product.Title
	}

	steps := []model.PlaybookStep{
		{Order: 1, Title: "join the affiliate program", Detail: "apply to the program and wait for approval before producing content"},
		{Order: 2, Title: "verify the offer yourself", Detail: "place a small test order to confirm shipping times and the checkout flow"},
		{Order: 3, Title: "produce comparison content", Detail: "target buyers comparing this product against its closest alternatives"},
		{Order: 4, Title: "track early conversion data", Detail: "watch the first two weeks of clicks and orders against the base scenario"},
	}
	if snapshot.Verdict.Status == model.VerdictTestFirst || snapshot.Verdict.Status == model.VerdictYellow {
		steps = append(steps, model.PlaybookStep{
			Order:  len(steps) + 1,
			Title:  "limit initial spend",
			Detail: "keep promotion effort small until the open risks resolve",
		})
	}

	return &model.Playbook{
		ProgramName:    name,
		ForAlternative: false,
		Steps:          steps,
		Pros:           snapshot.Verdict.TopPros,
		Risks:          snapshot.Verdict.TopRisks,
		EarningsNote:   earningsNote(snapshot.EarningBand),
	}
}

func alternativePlaybook(c model.RankerCandidate, currency string) *model.Playbook {
	steps := []model.PlaybookStep{
		{Order: 1, Title: "apply to the program", Detail: fmt.Sprintf("join %s via the %s network", c.Name, c.Network)},
		{Order: 2, Title: "validate the merchant", Detail: "confirm shipping, returns, and support quality with a test order"},
		{Order: 3, Title: "build dedicated content", Detail: "create content targeting this program's product line rather than re-pointing existing links"},
		{Order: 4, Title: "compare against your current pick", Detail: "run both programs side by side for a month before committing"},
	}

	var pros, risks []string
	if c.CommissionRate > 0 {
		pros = append(pros, fmt.Sprintf("commission rate of %.1f%%", c.CommissionRate*100))
	}
	if c.CookieDays >= 30 {
		pros = append(pros, fmt.Sprintf("long %d-day cookie window", c.CookieDays))
	}
	if c.RiskScore >= 0.5 {
		risks = append(risks, "elevated risk profile; verify the merchant before scaling")
	}
	if c.RefundRate > 0.15 {
		risks = append(risks, fmt.Sprintf("refund rate of %.0f%% eats into net earnings", c.RefundRate*100))
	}
	for _, flag := range c.HardStopFlags {
		risks = append(risks, fmt.Sprintf("hard stop: %s", flag))
	}

	monthly := defaultMonthlyClicks * c.ConversionRate * c.AvgOrderValue * c.CommissionRate * (1 - c.RefundRate)
	return &model.Playbook{
		ProgramName:    c.Name,
		ForAlternative: true,
		Steps:          steps,
		Pros:           pros,
		Risks:          risks,
		EarningsNote:   formatEarnings(monthly, monthly, currency),
	}
}

func findCandidate(candidates []model.RankerCandidate, programID string) (model.RankerCandidate, bool) {
	for _, c := range candidates {
		if c.ID == programID {
			return c, true
		}
	}
	return model.RankerCandidate{}, false
}

func earningsNote(band model.EarningBand) string {
	return formatEarnings(band.Low, band.High, band.Currency)
}

// formatEarnings renders the earnings range with locale-aware grouping.
func formatEarnings(low, high float64, currency string) string {
	p := message.NewPrinter(language.English)
	if low == high {
		return p.Sprintf("estimated %.0f %s net per month at base assumptions", low, currency)
	}
	return p.Sprintf("estimated %.0f to %.0f %s net per month across the assumed click range", low, high, currency)
}
