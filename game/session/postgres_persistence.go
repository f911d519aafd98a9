package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/wricardo/mcp-training/sokoban/game/service"
)

// PostgresPersistence implements SessionPersistence on a PostgreSQL table
// holding one JSONB document per session.
type PostgresPersistence struct {
	db      *sql.DB
	codec   codec
	timeout time.Duration
	logger  *log.Logger
}

var (
	_ SessionPersistence = (*PostgresPersistence)(nil)
	_ ExistenceChecker   = (*PostgresPersistence)(nil)
)

// NewPostgresPersistence opens dsn, checks the connection and creates the schema
func NewPostgresPersistence(ctx context.Context, dsn string, configManager service.ConfigManager, logger *log.Logger) (*PostgresPersistence, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	pp := &PostgresPersistence{
		db:      db,
		codec:   codec{configs: configManager},
		timeout: 5 * time.Second,
		logger:  logger,
	}

	if err := pp.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return pp, nil
}

func (pp *PostgresPersistence) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS game_sessions (
		id TEXT PRIMARY KEY,
		config_name TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`
	_, err := pp.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database handle
func (pp *PostgresPersistence) Close() error {
	return pp.db.Close()
}

func (pp *PostgresPersistence) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), pp.timeout)
}

// Save upserts the session document
func (pp *PostgresPersistence) Save(session *service.Session) error {
	data, err := pp.codec.encode(session)
	if err != nil {
		return err
	}

	ctx, cancel := pp.ctx()
	defer cancel()

	query := `
	INSERT INTO game_sessions (id, config_name, data, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (id) DO UPDATE SET
		config_name = EXCLUDED.config_name,
		data = EXCLUDED.data,
		updated_at = NOW()
	`
	_, err = pp.db.ExecContext(ctx, query,
		normalizeID(session.ID), pp.codec.configID(session.Config.Name), string(data), session.CreatedAt)
	if err != nil {
		pp.logger.Printf("postgres: failed to save session %s: %v", session.ID, err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load fetches and decodes a session
func (pp *PostgresPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := pp.ctx()
	defer cancel()

	var data []byte
	err := pp.db.QueryRowContext(ctx, `SELECT data FROM game_sessions WHERE id = $1`, normalizeID(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return pp.codec.decode(data)
}

// Delete removes a session row
func (pp *PostgresPersistence) Delete(id string) error {
	ctx, cancel := pp.ctx()
	defer cancel()

	res, err := pp.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE id = $1`, normalizeID(id))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns every stored session ID, most recently updated first
func (pp *PostgresPersistence) ListAll() ([]string, error) {
	ctx, cancel := pp.ctx()
	defer cancel()

	rows, err := pp.db.QueryContext(ctx, `SELECT id FROM game_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session row is present
func (pp *PostgresPersistence) Exists(id string) bool {
	exists, err := pp.CheckExists(id)
	if err != nil {
		pp.logger.Printf("postgres: exists check for %s failed: %v", id, err)
		return false
	}
	return exists
}

// CheckExists checks for the row, reporting query failures
func (pp *PostgresPersistence) CheckExists(id string) (bool, error) {
	ctx, cancel := pp.ctx()
	defer cancel()

	var exists bool
	err := pp.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM game_sessions WHERE id = $1)`, normalizeID(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session %s: %w", id, err)
	}
	return exists, nil
}
