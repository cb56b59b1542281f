package store

import (
	"context"

	"github.com/affimark/verifier/internal/model"
)

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Status model.SessionStatus `json:"status,omitempty"`
	URL    string              `json:"url,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// Store defines the persistence interface for verifier sessions. The
// cached snapshot and candidate set are what make rerank a pure
// re-sort: stage 6 re-enters from here, never from the network.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, session *model.VerifierSession) error
	UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error
	GetSession(ctx context.Context, sessionID string) (*model.VerifierSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.VerifierSession, error)

	// Stage outputs
	SaveSnapshot(ctx context.Context, sessionID string, snapshot *model.Snapshot, candidates []model.RankerCandidate) error
	SaveRecommendations(ctx context.Context, sessionID string, recs *model.Recommendations) error
	SavePlaybook(ctx context.Context, sessionID string, playbook *model.Playbook) error
	SetWatchedProgram(ctx context.Context, sessionID string, programID string) error
	SetSessionError(ctx context.Context, sessionID string, message string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
