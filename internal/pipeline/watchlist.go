package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/session"
)

// Watchlist archives a session: records the program the user decided to
// pursue and moves the session to completed. An empty programID watches
// the base product itself.
func (o *Orchestrator) Watchlist(ctx context.Context, sessionID string, programID string) error {
	sess, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.CanTransition(sess.Status, model.SessionCompleted) {
		return eris.Errorf("pipeline: session %s in status %s cannot be archived", sessionID, sess.Status)
	}

	watched := programID
	if watched == "" {
		watched = sess.NormalizedURL
	} else if _, ok := findCandidate(sess.Candidates, programID); !ok {
		return eris.Errorf("pipeline: program %s not in session %s candidate set", programID, sessionID)
	}

	if err := o.store.SetWatchedProgram(ctx, sessionID, watched); err != nil {
		return err
	}
	if err := session.Transition(sess, model.SessionCompleted); err != nil {
		return err
	}
	if err := o.store.UpdateSessionStatus(ctx, sessionID, sess.Status); err != nil {
		return err
	}

	zap.L().Info("pipeline: session archived to watchlist",
		zap.String("session_id", sessionID),
		zap.String("watched_program", watched),
	)
	return nil
}
