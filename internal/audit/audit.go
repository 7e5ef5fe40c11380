// Package audit keeps a queryable trail of conversational turns.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hadesai/hades/internal/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// SQLiteTurnLog records turns in a SQLite database
type SQLiteTurnLog struct {
	db *sql.DB
}

// Filter narrows a Query; zero fields match everything
type Filter struct {
	SessionID string
	Topic     string
	Kind      models.ResponseKind
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

// Stats summarises the turns of a period
type Stats struct {
	Total           int
	AIAnswers       int
	Fallbacks       int
	AverageDuration time.Duration
	ByKind          map[models.ResponseKind]int
}

// NewSQLiteTurnLog opens (creating if needed) the audit database at dbPath.
// ":memory:" gives a private in-memory database.
func NewSQLiteTurnLog(dbPath string) (*SQLiteTurnLog, error) {
	if dbPath != ":memory:" {
		if strings.HasPrefix(dbPath, "~/") {
			home, _ := os.UserHomeDir()
			dbPath = filepath.Join(home, dbPath[2:])
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Keeps ":memory:" on a single shared connection and serialises writers.
	db.SetMaxOpenConns(1)

	log := &SQLiteTurnLog{db: db}
	if err := log.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return log, nil
}

func (l *SQLiteTurnLog) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		input TEXT NOT NULL,
		response TEXT NOT NULL,
		topic TEXT,
		kind TEXT NOT NULL,
		score REAL,
		provider TEXT,
		phase TEXT,
		sentiment REAL,
		duration_ms INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id);
	CREATE INDEX IF NOT EXISTS idx_turns_timestamp ON turns(timestamp);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Record stores a turn, assigning an ID and timestamp when missing
func (l *SQLiteTurnLog) Record(ctx context.Context, turn models.Turn) error {
	if turn.ID == "" {
		turn.ID = ulid.Make().String()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	query := `
		INSERT INTO turns (
			id, session_id, timestamp, input, response, topic,
			kind, score, provider, phase, sentiment, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := l.db.ExecContext(ctx, query,
		turn.ID,
		turn.SessionID,
		turn.Timestamp.UTC(),
		turn.Input,
		turn.Response,
		turn.Topic,
		string(turn.Kind),
		turn.Score,
		turn.Provider,
		string(turn.Phase),
		turn.Sentiment,
		turn.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// Query returns matching turns, newest first
func (l *SQLiteTurnLog) Query(ctx context.Context, filter Filter) ([]models.Turn, error) {
	query := "SELECT id, session_id, timestamp, input, response, topic, kind, score, provider, phase, sentiment, duration_ms FROM turns WHERE 1=1"
	args := []interface{}{}

	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if filter.Topic != "" {
		query += " AND topic = ?"
		args = append(args, filter.Topic)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until.UTC())
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn       models.Turn
			kind       string
			phase      string
			topic      sql.NullString
			provider   sql.NullString
			durationMs int64
		)
		err := rows.Scan(
			&turn.ID,
			&turn.SessionID,
			&turn.Timestamp,
			&turn.Input,
			&turn.Response,
			&topic,
			&kind,
			&turn.Score,
			&provider,
			&phase,
			&turn.Sentiment,
			&durationMs,
		)
		if err != nil {
			return nil, err
		}
		turn.Topic = topic.String
		turn.Provider = provider.String
		turn.Kind = models.ResponseKind(kind)
		turn.Phase = models.Phase(phase)
		turn.Duration = time.Duration(durationMs) * time.Millisecond
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Stats summarises turns recorded since the given time
func (l *SQLiteTurnLog) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT kind, COUNT(*), AVG(duration_ms) FROM turns WHERE timestamp >= ? GROUP BY kind`,
		since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{ByKind: make(map[models.ResponseKind]int)}
	var weighted float64
	for rows.Next() {
		var (
			kind  string
			count int
			avg   sql.NullFloat64
		)
		if err := rows.Scan(&kind, &count, &avg); err != nil {
			return nil, err
		}
		k := models.ResponseKind(kind)
		stats.ByKind[k] = count
		stats.Total += count
		if k == models.KindAI {
			stats.AIAnswers += count
		}
		if k.IsFallback() {
			stats.Fallbacks += count
		}
		if avg.Valid {
			weighted += avg.Float64 * float64(count)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.Total > 0 {
		stats.AverageDuration = time.Duration(weighted/float64(stats.Total)) * time.Millisecond
	}
	return stats, nil
}

// Close closes the database connection
func (l *SQLiteTurnLog) Close() error {
	return l.db.Close()
}
