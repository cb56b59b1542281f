// Package session enforces the verifier session lifecycle:
//
//	analyzing → recommendations_ready → playbook_ready → completed
//
// with `failed` absorbing from analyzing or recommendations_ready.
// Rerank stays within recommendations_ready/playbook_ready.
package session

import (
	"github.com/rotisserie/eris"

	"github.com/affimark/verifier/internal/model"
)

// transitions lists the allowed status moves.
var transitions = map[model.SessionStatus][]model.SessionStatus{
	model.SessionAnalyzing: {
		model.SessionRecommendationsReady,
		model.SessionFailed,
	},
	model.SessionRecommendationsReady: {
		model.SessionRecommendationsReady, // rerank
		model.SessionPlaybookReady,
		model.SessionCompleted,
		model.SessionFailed,
	},
	model.SessionPlaybookReady: {
		model.SessionPlaybookReady, // rerank or a second playbook
		model.SessionCompleted,
	},
}

// CanTransition reports whether a session may move from one status to
// another.
func CanTransition(from, to model.SessionStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition mutates the session status after validating the move.
func Transition(s *model.VerifierSession, to model.SessionStatus) error {
	if !CanTransition(s.Status, to) {
		return eris.Errorf("session: illegal transition %s -> %s", s.Status, to)
	}
	s.Status = to
	return nil
}

// CanRerank reports whether the session is in a state where ranking
// and buckets may be recomputed from cached candidates.
func CanRerank(s *model.VerifierSession) bool {
	return s.Status == model.SessionRecommendationsReady || s.Status == model.SessionPlaybookReady
}

// Terminal reports whether the session accepts no further work.
func Terminal(s *model.VerifierSession) bool {
	return s.Status == model.SessionCompleted || s.Status == model.SessionFailed
}
