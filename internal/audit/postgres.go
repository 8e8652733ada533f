package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/podgate/podgate/internal/logging"
)

// PostgresConfig holds database connection settings for the audit store.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// PostgresRecorder writes audit entries to a PostgreSQL table, for
// deployments that query the trail relationally instead of grepping files.
type PostgresRecorder struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresRecorder connects and ensures the audit table exists.
func NewPostgresRecorder(cfg PostgresConfig, logger *logging.Logger) (*PostgresRecorder, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	recorder := &PostgresRecorder{db: db, logger: logger}
	if err := recorder.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return recorder, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS moderation_audit (
			id BIGSERIAL PRIMARY KEY,
			recorded_at TIMESTAMPTZ NOT NULL,
			action TEXT NOT NULL,
			content_kind TEXT,
			resource_path TEXT NOT NULL,
			pod TEXT NOT NULL,
			actor_id TEXT,
			declared_mime TEXT,
			reason TEXT,
			scores JSONB,
			classifier_request_id TEXT
		)
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

// Record inserts one entry. Failures are logged and swallowed.
func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) {
	scoresJSON, err := json.Marshal(entry.Scores)
	if err != nil {
		r.logger.Error("Failed to serialize audit scores", logging.WithField("error", err.Error()))
		scoresJSON = []byte("null")
	}

	actorID := sql.NullString{}
	if entry.ActorID != "" {
		actorID = sql.NullString{String: entry.ActorID, Valid: true}
	}

	query := `
		INSERT INTO moderation_audit (
			recorded_at, action, content_kind, resource_path, pod,
			actor_id, declared_mime, reason, scores, classifier_request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(
		ctx,
		query,
		entry.Timestamp,
		string(entry.Action),
		string(entry.ContentKind),
		entry.ResourcePath,
		entry.Pod,
		actorID,
		entry.DeclaredMime,
		entry.Reason,
		scoresJSON,
		entry.ClassifierRequestID,
	)
	if err != nil {
		r.logger.Error("Failed to insert audit entry", logging.WithField("error", err.Error()))
	}
}

// Close closes the database connection.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
