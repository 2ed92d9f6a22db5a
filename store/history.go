package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Observation is one persisted (timestamp, CI) pair.
type Observation struct {
	TS time.Time
	CI float64
}

// HistoryStore persists a rolling CI history per camera in Postgres so the
// forecaster's lag and rolling features survive process restarts. Retention
// is bounded by Prune; the table is append-only otherwise.
type HistoryStore struct {
	pool *pgxpool.Pool
}

const historyDDL = `
CREATE TABLE IF NOT EXISTS ci_history (
	camera_id TEXT        NOT NULL,
	ts        TIMESTAMPTZ NOT NULL,
	ci        DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (camera_id, ts)
)`

func NewHistoryStore(ctx context.Context, dsn string) (*HistoryStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db pool init failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, historyDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure ci_history table: %w", err)
	}
	return &HistoryStore{pool: pool}, nil
}

func (h *HistoryStore) Append(ctx context.Context, cameraID string, ts time.Time, ci float64) error {
	_, err := h.pool.Exec(ctx, `
		INSERT INTO ci_history (camera_id, ts, ci)
		VALUES ($1, $2, $3)
		ON CONFLICT (camera_id, ts) DO NOTHING
	`, cameraID, ts, ci)
	return err
}

// Recent returns up to limit most-recent observations for the camera,
// ordered oldest first so they can be replayed into a history buffer.
func (h *HistoryStore) Recent(ctx context.Context, cameraID string, limit int) ([]Observation, error) {
	rows, err := h.pool.Query(ctx, `
		SELECT ts, ci FROM (
			SELECT ts, ci FROM ci_history
			WHERE camera_id = $1
			ORDER BY ts DESC
			LIMIT $2
		) recent
		ORDER BY ts ASC
	`, cameraID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.TS, &o.CI); err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// Prune deletes observations older than the retention window and returns the
// number of rows removed.
func (h *HistoryStore) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := h.pool.Exec(ctx, `
		DELETE FROM ci_history WHERE ts < $1
	`, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (h *HistoryStore) Close() {
	h.pool.Close()
}
