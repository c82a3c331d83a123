package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const schema = `
	CREATE TABLE IF NOT EXISTS render_runs (
		run_id       TEXT PRIMARY KEY,
		scene        TEXT NOT NULL,
		fen          TEXT NOT NULL,
		epd          TEXT NOT NULL,
		board_fen    TEXT NOT NULL,
		compressed   TEXT NOT NULL,
		nodes        INTEGER NOT NULL,
		steps        INTEGER NOT NULL,
		output_path  TEXT NOT NULL,
		cached       BOOLEAN NOT NULL,
		delivered_to TEXT NOT NULL,
		created_at   BIGINT NOT NULL
	)`

const selectColumns = `
		run_id,
		scene,
		fen,
		epd,
		board_fen,
		compressed,
		nodes,
		steps,
		output_path,
		cached,
		delivered_to,
		created_at`

// SQLRepository stores runs with database/sql. Queries are written with ?
// placeholders and rebound for postgres.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

func NewRepository(db *sql.DB, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver}
}

func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create render_runs: %w", err)
	}
	return nil
}

func (r *SQLRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Save upserts run by id.
func (r *SQLRepository) Save(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("nil render run")
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("render run without id")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	query := r.rebind(`
		INSERT INTO render_runs (` + selectColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO UPDATE SET
			scene=EXCLUDED.scene,
			fen=EXCLUDED.fen,
			epd=EXCLUDED.epd,
			board_fen=EXCLUDED.board_fen,
			compressed=EXCLUDED.compressed,
			nodes=EXCLUDED.nodes,
			steps=EXCLUDED.steps,
			output_path=EXCLUDED.output_path,
			cached=EXCLUDED.cached,
			delivered_to=EXCLUDED.delivered_to`)
	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Scene,
		run.FEN,
		run.EPD,
		run.BoardFEN,
		run.Compressed,
		run.Nodes,
		run.Steps,
		run.OutputPath,
		run.Cached,
		run.DeliveredTo,
		run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert render run: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*Run, error) {
	query := r.rebind(`SELECT ` + selectColumns + ` FROM render_runs WHERE run_id = ?`)
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select render run: %w", err)
	}
	return run, nil
}

// Recent lists runs newest first.
func (r *SQLRepository) Recent(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := r.rebind(`SELECT ` + selectColumns + `
		FROM render_runs
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select render runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan render run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run       Run
		createdMS int64
	)
	if err := s.Scan(
		&run.ID,
		&run.Scene,
		&run.FEN,
		&run.EPD,
		&run.BoardFEN,
		&run.Compressed,
		&run.Nodes,
		&run.Steps,
		&run.OutputPath,
		&run.Cached,
		&run.DeliveredTo,
		&createdMS,
	); err != nil {
		return nil, err
	}
	run.CreatedAt = time.UnixMilli(createdMS).UTC()
	return &run, nil
}

// rebind turns ? placeholders into $n for postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
