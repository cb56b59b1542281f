package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/session"
)

// Rerank re-sorts the session's cached candidate set under a new rank
// mode. It re-reads the stored snapshot and candidates and performs no
// network I/O: the snapshot stays byte-identical, only the ranking and
// buckets change.
func (o *Orchestrator) Rerank(ctx context.Context, sessionID string, mode model.RankMode) (*model.RerankResponse, error) {
	if !mode.Valid() {
		return nil, eris.Errorf("pipeline: unknown rank mode %q", mode)
	}

	sess, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.CanRerank(sess) {
		return nil, eris.Errorf("pipeline: session %s in status %s cannot rerank", sessionID, sess.Status)
	}
	if sess.Snapshot == nil || sess.Recommendations == nil {
		return nil, eris.Errorf("pipeline: session %s has no cached analysis", sessionID)
	}

	// Keep the original routing decision except for the mode itself.
	routing := sess.Recommendations.Routing
	routing.RankMode = mode

	recs := o.rankAndBucket(sess.Candidates, routing)

	if err := o.store.SaveRecommendations(ctx, sessionID, recs); err != nil {
		return nil, err
	}
	// Rerank stays within the current status; persisting it re-touches
	// updated_at without moving the lifecycle.
	if err := o.store.UpdateSessionStatus(ctx, sessionID, sess.Status); err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: reranked",
		zap.String("session_id", sessionID),
		zap.String("mode", string(mode)),
		zap.Int("candidates", recs.TotalCandidates),
	)

	return &model.RerankResponse{
		Mode:            recs.Mode,
		Winner:          recs.Winner,
		Buckets:         recs.Buckets,
		TotalCandidates: recs.TotalCandidates,
	}, nil
}
