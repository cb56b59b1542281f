package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/affimark/verifier/internal/db"
	"github.com/affimark/verifier/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection
// for the hottest store operations.
var preparedStatements = map[string]string{
	"insert_session":       `INSERT INTO sessions (id, original_url, normalized_url, user_context, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_status":        `UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`,
	"get_session":          `SELECT id, original_url, normalized_url, user_context, status, snapshot, recommendations, playbook, watched_program, error, created_at, updated_at FROM sessions WHERE id = $1`,
	"save_snapshot":        `UPDATE sessions SET snapshot = $1, updated_at = $2 WHERE id = $3`,
	"save_recommendations": `UPDATE sessions SET recommendations = $1, updated_at = $2 WHERE id = $3`,
	"save_playbook":        `UPDATE sessions SET playbook = $1, updated_at = $2 WHERE id = $3`,
	"set_watched":          `UPDATE sessions SET watched_program = $1, updated_at = $2 WHERE id = $3`,
	"set_error":            `UPDATE sessions SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_candidates":       `SELECT candidate FROM session_candidates WHERE session_id = $1 ORDER BY position`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	original_url    TEXT NOT NULL,
	normalized_url  TEXT NOT NULL,
	user_context    JSONB NOT NULL DEFAULT '{}'::jsonb,
	status          TEXT NOT NULL DEFAULT 'analyzing',
	snapshot        JSONB,
	recommendations JSONB,
	playbook        JSONB,
	watched_program TEXT,
	error           TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS session_candidates (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	candidate  JSONB NOT NULL,
	PRIMARY KEY (session_id, position)
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_normalized_url ON sessions(normalized_url);
CREATE INDEX IF NOT EXISTS idx_session_candidates_session ON session_candidates(session_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *model.VerifierSession) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	userCtxJSON, err := json.Marshal(session.UserContext)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal user context")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, original_url, normalized_url, user_context, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.OriginalURL, session.NormalizedURL, userCtxJSON, string(session.Status), now, now,
	)
	return eris.Wrap(err, "postgres: insert session")
}

func (s *PostgresStore) UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session status %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, sessionID string, snapshot *model.Snapshot, candidates []model.RankerCandidate) error {
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET snapshot = $1, updated_at = $2 WHERE id = $3`,
		snapJSON, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save snapshot %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", sessionID)
	}

	if len(candidates) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(candidates))
	for i, c := range candidates {
		candJSON, err := json.Marshal(c)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal candidate")
		}
		rows = append(rows, []any{sessionID, i, candJSON})
	}
	_, err = db.CopyFrom(ctx, s.pool, "session_candidates", []string{"session_id", "position", "candidate"}, rows)
	return eris.Wrapf(err, "postgres: save candidates %s", sessionID)
}

func (s *PostgresStore) SaveRecommendations(ctx context.Context, sessionID string, recs *model.Recommendations) error {
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recommendations")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET recommendations = $1, updated_at = $2 WHERE id = $3`,
		recsJSON, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save recommendations %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) SavePlaybook(ctx context.Context, sessionID string, playbook *model.Playbook) error {
	pbJSON, err := json.Marshal(playbook)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal playbook")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET playbook = $1, updated_at = $2 WHERE id = $3`,
		pbJSON, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save playbook %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) SetWatchedProgram(ctx context.Context, sessionID string, programID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET watched_program = $1, updated_at = $2 WHERE id = $3`,
		programID, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set watched program %s", sessionID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func (s *PostgresStore) SetSessionError(ctx context.Context, sessionID string, message string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE sessions SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		message, string(model.SessionFailed), time.Now().UTC(), sessionID,
	)
	return eris.Wrapf(err, "postgres: set session error %s", sessionID)
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*model.VerifierSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, original_url, normalized_url, user_context, status, snapshot, recommendations, playbook, watched_program, error, created_at, updated_at FROM sessions WHERE id = $1`,
		sessionID,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("session not found: %s", sessionID)
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT candidate FROM session_candidates WHERE session_id = $1 ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query candidates")
	}
	defer rows.Close()

	for rows.Next() {
		var candJSON []byte
		if err := rows.Scan(&candJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		var c model.RankerCandidate
		if err := json.Unmarshal(candJSON, &c); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal candidate")
		}
		sess.Candidates = append(sess.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate candidates")
	}

	return sess, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.VerifierSession, error) {
	query := `SELECT id, original_url, normalized_url, user_context, status, snapshot, recommendations, playbook, watched_program, error, created_at, updated_at FROM sessions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.URL != "" {
		args = append(args, filter.URL)
		query += fmt.Sprintf(` AND normalized_url = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sessions")
	}
	defer rows.Close()

	var sessions []model.VerifierSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "postgres: list sessions iterate")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.VerifierSession, error) {
	var sess model.VerifierSession
	var userCtxJSON []byte
	var snapJSON, recsJSON, pbJSON []byte
	var watched, errMsg *string

	err := row.Scan(&sess.ID, &sess.OriginalURL, &sess.NormalizedURL, &userCtxJSON,
		&sess.Status, &snapJSON, &recsJSON, &pbJSON, &watched, &errMsg, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan session")
	}

	if err := json.Unmarshal(userCtxJSON, &sess.UserContext); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal user context")
	}
	if snapJSON != nil {
		sess.Snapshot = &model.Snapshot{}
		if err := json.Unmarshal(snapJSON, sess.Snapshot); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal snapshot")
		}
	}
	if recsJSON != nil {
		sess.Recommendations = &model.Recommendations{}
		if err := json.Unmarshal(recsJSON, sess.Recommendations); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal recommendations")
		}
	}
	if pbJSON != nil {
		sess.Playbook = &model.Playbook{}
		if err := json.Unmarshal(pbJSON, sess.Playbook); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal playbook")
		}
	}
	if watched != nil {
		sess.WatchedProgram = *watched
	}
	if errMsg != nil {
		sess.Error = *errMsg
	}

	return &sess, nil
}
