package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/andresmejia3/spotter/internal/session"
)

// Store manages the PostgreSQL connection holding session history.
type Store struct {
	conn *pgx.Conn
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the necessary tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS video_metadata (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			indexed_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS form_sessions (
			id UUID PRIMARY KEY,
			video_id TEXT REFERENCES video_metadata(id),
			exercise TEXT NOT NULL,
			side TEXT NOT NULL,
			athlete TEXT NOT NULL DEFAULT '',
			total_frames INT NOT NULL,
			passed_frames INT NOT NULL,
			failed_frames INT NOT NULL,
			unknown_frames INT NOT NULL,
			undetected_frames INT NOT NULL,
			pass_rate DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS rule_stats (
			session_id UUID REFERENCES form_sessions(id) ON DELETE CASCADE,
			rule TEXT NOT NULL,
			position INT NOT NULL,
			passes INT NOT NULL,
			fails INT NOT NULL,
			unknowns INT NOT NULL,
			mean_value DOUBLE PRECISION NOT NULL,
			std_value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (session_id, rule)
		);
		CREATE INDEX IF NOT EXISTS form_sessions_video_id_idx ON form_sessions (video_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// EnsureVideoMetadata registers the video in the database. If it exists, it updates the timestamp.
func (s *Store) EnsureVideoMetadata(ctx context.Context, videoID, path string) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO video_metadata (id, path, indexed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET indexed_at = NOW(), path = EXCLUDED.path
	`, videoID, path)
	return err
}

// SaveSession persists a finalized clip summary and its per-rule
// counts in one transaction, returning the new session ID.
func (s *Store) SaveSession(ctx context.Context, videoID string, summary session.Summary) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO form_sessions
			(id, video_id, exercise, side, total_frames, passed_frames,
			 failed_frames, unknown_frames, undetected_frames, pass_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, videoID, string(summary.Exercise), string(summary.Side),
		summary.Total, summary.Passed, summary.Failed, summary.Unknown,
		summary.Undetected, summary.ClipPassRate())
	if err != nil {
		return uuid.Nil, err
	}

	for pos, rule := range summary.RuleOrder {
		counts := summary.Rules[rule]
		stat := summary.Metrics[rule]
		_, err = tx.Exec(ctx, `
			INSERT INTO rule_stats
				(session_id, rule, position, passes, fails, unknowns, mean_value, std_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, rule, pos, counts.Pass, counts.Fail, counts.Unknown, stat.Mean, stat.Std)
		if err != nil {
			return uuid.Nil, err
		}
	}

	return id, tx.Commit(ctx)
}

// SessionRow is one persisted session joined with its video path.
type SessionRow struct {
	ID         uuid.UUID
	VideoPath  string
	Exercise   string
	Side       string
	Athlete    string
	Total      int
	Passed     int
	Undetected int
	PassRate   float64
	CreatedAt  time.Time
}

// ListSessions returns all persisted sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionRow, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT fs.id, vm.path, fs.exercise, fs.side, fs.athlete,
		       fs.total_frames, fs.passed_frames, fs.undetected_frames,
		       fs.pass_rate, fs.created_at
		FROM form_sessions fs
		JOIN video_metadata vm ON vm.id = fs.video_id
		ORDER BY fs.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var r SessionRow
		if err := rows.Scan(&r.ID, &r.VideoPath, &r.Exercise, &r.Side, &r.Athlete,
			&r.Total, &r.Passed, &r.Undetected, &r.PassRate, &r.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

// RuleStatRow is one rule's persisted counts for a session.
type RuleStatRow struct {
	Rule      string
	Passes    int
	Fails     int
	Unknowns  int
	MeanValue float64
	StdValue  float64
}

// SessionRules returns a session's per-rule counts in evaluation order.
func (s *Store) SessionRules(ctx context.Context, id uuid.UUID) ([]RuleStatRow, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT rule, passes, fails, unknowns, mean_value, std_value
		FROM rule_stats
		WHERE session_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []RuleStatRow
	for rows.Next() {
		var r RuleStatRow
		if err := rows.Scan(&r.Rule, &r.Passes, &r.Fails, &r.Unknowns, &r.MeanValue, &r.StdValue); err != nil {
			return nil, err
		}
		stats = append(stats, r)
	}
	return stats, rows.Err()
}

// LabelSession tags a session with an athlete name.
func (s *Store) LabelSession(ctx context.Context, id uuid.UUID, athlete string) error {
	tag, err := s.conn.Exec(ctx, "UPDATE form_sessions SET athlete = $1 WHERE id = $2", athlete, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no session with id %s", id)
	}
	return nil
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS rule_stats CASCADE;
		DROP TABLE IF EXISTS form_sessions CASCADE;
		DROP TABLE IF EXISTS video_metadata CASCADE;
	`)
	return err
}
