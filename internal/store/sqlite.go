package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/affimark/verifier/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for
// local single-user runs where a Postgres instance is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures
// WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	original_url    TEXT NOT NULL,
	normalized_url  TEXT NOT NULL,
	user_context    TEXT NOT NULL DEFAULT '{}',
	status          TEXT NOT NULL DEFAULT 'analyzing',
	snapshot        TEXT,
	recommendations TEXT,
	playbook        TEXT,
	watched_program TEXT,
	error           TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS session_candidates (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position   INTEGER NOT NULL,
	candidate  TEXT NOT NULL,
	PRIMARY KEY (session_id, position)
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_normalized_url ON sessions(normalized_url);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, session *model.VerifierSession) error {
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	userCtxJSON, err := json.Marshal(session.UserContext)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal user context")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, original_url, normalized_url, user_context, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.OriginalURL, session.NormalizedURL, string(userCtxJSON), string(session.Status), now, now,
	)
	return eris.Wrap(err, "sqlite: insert session")
}

func (s *SQLiteStore) UpdateSessionStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session status %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, sessionID string, snapshot *model.Snapshot, candidates []model.RankerCandidate) error {
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET snapshot = ?, updated_at = ? WHERE id = ?`,
		string(snapJSON), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save snapshot %s", sessionID)
	}
	if err := checkRowsAffected(res, "session", sessionID); err != nil {
		return err
	}

	for i, c := range candidates {
		candJSON, err := json.Marshal(c)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal candidate")
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO session_candidates (session_id, position, candidate) VALUES (?, ?, ?)`,
			sessionID, i, string(candJSON),
		); err != nil {
			return eris.Wrapf(err, "sqlite: save candidate %d", i)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveRecommendations(ctx context.Context, sessionID string, recs *model.Recommendations) error {
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recommendations")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET recommendations = ?, updated_at = ? WHERE id = ?`,
		string(recsJSON), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save recommendations %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) SavePlaybook(ctx context.Context, sessionID string, playbook *model.Playbook) error {
	pbJSON, err := json.Marshal(playbook)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal playbook")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET playbook = ?, updated_at = ? WHERE id = ?`,
		string(pbJSON), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save playbook %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) SetWatchedProgram(ctx context.Context, sessionID string, programID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET watched_program = ?, updated_at = ? WHERE id = ?`,
		programID, time.Now().UTC(), sessionID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set watched program %s", sessionID)
	}
	return checkRowsAffected(res, "session", sessionID)
}

func (s *SQLiteStore) SetSessionError(ctx context.Context, sessionID string, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		message, string(model.SessionFailed), time.Now().UTC(), sessionID,
	)
	return eris.Wrapf(err, "sqlite: set session error %s", sessionID)
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*model.VerifierSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, original_url, normalized_url, user_context, status, snapshot, recommendations, playbook, watched_program, error, created_at, updated_at FROM sessions WHERE id = ?`,
		sessionID,
	)

	sess, err := scanSQLiteSession(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate FROM session_candidates WHERE session_id = ? ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query candidates")
	}
	defer rows.Close()

	for rows.Next() {
		var candJSON string
		if err := rows.Scan(&candJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		var c model.RankerCandidate
		if err := json.Unmarshal([]byte(candJSON), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal candidate")
		}
		sess.Candidates = append(sess.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate candidates")
	}

	return sess, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.VerifierSession, error) {
	query := `SELECT id, original_url, normalized_url, user_context, status, snapshot, recommendations, playbook, watched_program, error, created_at, updated_at FROM sessions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.URL != "" {
		query += ` AND normalized_url = ?`
		args = append(args, filter.URL)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sessions")
	}
	defer rows.Close()

	var sessions []model.VerifierSession
	for rows.Next() {
		sess, err := scanSQLiteSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, eris.Wrap(rows.Err(), "sqlite: list sessions iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func scanSQLiteSession(row rowScanner) (*model.VerifierSession, error) {
	var sess model.VerifierSession
	var userCtxJSON string
	var snapJSON, recsJSON, pbJSON, watched, errMsg sql.NullString

	err := row.Scan(&sess.ID, &sess.OriginalURL, &sess.NormalizedURL, &userCtxJSON,
		&sess.Status, &snapJSON, &recsJSON, &pbJSON, &watched, &errMsg, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("session not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan session")
	}

	if err := json.Unmarshal([]byte(userCtxJSON), &sess.UserContext); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal user context")
	}
	if snapJSON.Valid {
		sess.Snapshot = &model.Snapshot{}
		if err := json.Unmarshal([]byte(snapJSON.String), sess.Snapshot); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal snapshot")
		}
	}
	if recsJSON.Valid {
		sess.Recommendations = &model.Recommendations{}
		if err := json.Unmarshal([]byte(recsJSON.String), sess.Recommendations); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal recommendations")
		}
	}
	if pbJSON.Valid {
		sess.Playbook = &model.Playbook{}
		if err := json.Unmarshal([]byte(pbJSON.String), sess.Playbook); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal playbook")
		}
	}
	if watched.Valid {
		sess.WatchedProgram = watched.String
	}
	if errMsg.Valid {
		sess.Error = errMsg.String
	}

	return &sess, nil
}
