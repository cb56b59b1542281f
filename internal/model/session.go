package model

import "time"

// SessionStatus is the lifecycle state of a verifier session.
type SessionStatus string

const (
	SessionAnalyzing            SessionStatus = "analyzing"
	SessionRecommendationsReady SessionStatus = "recommendations_ready"
	SessionPlaybookReady        SessionStatus = "playbook_ready"
	SessionCompleted            SessionStatus = "completed"
	SessionFailed               SessionStatus = "failed"
)

// Snapshot is the immutable analysis result for the base product.
// Rerank never touches any field of the snapshot.
type Snapshot struct {
	Product         ScrapedProductData         `json:"product"`
	Scores          ScoreResult                `json:"scores"`
	ScoreBreakdowns map[string]PillarBreakdown `json:"score_breakdowns"`
	Confidence      ConfidenceResult           `json:"confidence"`
	Verdict         VerdictResult              `json:"verdict"`
	Insights        []string                   `json:"insights"`
	Economics       EconomicsSensitivity       `json:"economics"`
	EarningBand     EarningBand                `json:"earning_band"`
	Coverage        CoverageResult             `json:"coverage"`
}

// VerifierSession is the persisted aggregate for one analysis request.
type VerifierSession struct {
	ID              string            `json:"id"`
	OriginalURL     string            `json:"original_url"`
	NormalizedURL   string            `json:"normalized_url"`
	UserContext     UserContext       `json:"user_context"`
	Status          SessionStatus     `json:"status"`
	Snapshot        *Snapshot         `json:"snapshot,omitempty"`
	Recommendations *Recommendations  `json:"recommendations,omitempty"`
	Candidates      []RankerCandidate `json:"candidates,omitempty"`
	Playbook        *Playbook         `json:"playbook,omitempty"`
	WatchedProgram  string            `json:"watched_program,omitempty"`
	Error           string            `json:"error,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// UserContext carries optional per-user analysis preferences.
type UserContext struct {
	UserID             string   `json:"user_id,omitempty"`
	AffinityCategories []string `json:"affinity_categories,omitempty"`
	ModeOverride       RankMode `json:"mode_override,omitempty"`
	MonthlyClicks      *float64 `json:"monthly_clicks,omitempty"`
}

// PlaybookStep is one action item in a generated playbook.
type PlaybookStep struct {
	Order  int    `json:"order"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Playbook is the structured action plan for promoting either the base
// product or one selected alternative.
type Playbook struct {
	ProgramName    string         `json:"program_name"`
	ForAlternative bool           `json:"for_alternative"`
	Steps          []PlaybookStep `json:"steps"`
	Pros           []string       `json:"pros"`
	Risks          []string       `json:"risks"`
	EarningsNote   string         `json:"earnings_note"`
}

// AnalyzeResponse is the normative pipeline output contract. Field
// names and nesting are fixed for UI compatibility.
type AnalyzeResponse struct {
	SessionID       string           `json:"session_id"`
	Status          SessionStatus    `json:"status"`
	Snapshot        *Snapshot        `json:"snapshot"`
	Recommendations *Recommendations `json:"recommendations"`
}

// RerankResponse is the normative rerank output contract.
type RerankResponse struct {
	Mode            RankMode           `json:"mode"`
	Winner          *RankedAlternative `json:"winner"`
	Buckets         []Bucket           `json:"buckets"`
	TotalCandidates int                `json:"total_candidates"`
}
