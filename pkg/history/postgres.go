package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS panorama_runs (
	id               TEXT PRIMARY KEY,
	video_path       TEXT NOT NULL,
	status           TEXT NOT NULL,
	error            TEXT NOT NULL DEFAULT '',
	stitch_status    INTEGER,
	stitcher         TEXT NOT NULL DEFAULT '',
	frame_count      INTEGER NOT NULL DEFAULT 0,
	sampled_frames   INTEGER NOT NULL DEFAULT 0,
	width            INTEGER NOT NULL DEFAULT 0,
	height           INTEGER NOT NULL DEFAULT 0,
	source_ms        BIGINT NOT NULL DEFAULT 0,
	processing_ms    BIGINT NOT NULL DEFAULT 0,
	output_path      TEXT NOT NULL DEFAULT '',
	object_url       TEXT NOT NULL DEFAULT '',
	started_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS panorama_runs_finished_at ON panorama_runs (finished_at DESC);
`

const columns = `id, video_path, status, error, stitch_status, stitcher, frame_count, sampled_frames,
	width, height, source_ms, processing_ms, output_path, object_url, started_at, finished_at`

// Postgres is a Repository backed by PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and creates the table if needed.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) Save(ctx context.Context, rec Record) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO panorama_runs (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			video_path = EXCLUDED.video_path,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			stitch_status = EXCLUDED.stitch_status,
			stitcher = EXCLUDED.stitcher,
			frame_count = EXCLUDED.frame_count,
			sampled_frames = EXCLUDED.sampled_frames,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			source_ms = EXCLUDED.source_ms,
			processing_ms = EXCLUDED.processing_ms,
			output_path = EXCLUDED.output_path,
			object_url = EXCLUDED.object_url,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at`,
		rec.ID, rec.VideoPath, string(rec.Status), rec.Error, rec.StitchStatus, rec.Stitcher,
		rec.FrameCount, rec.SampledFrames, rec.Width, rec.Height,
		rec.SourceDuration.Milliseconds(), rec.ProcessingTime.Milliseconds(),
		rec.OutputPath, rec.ObjectURL, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (Record, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+columns+` FROM panorama_runs WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return rec, nil
}

func (p *Postgres) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + columns + ` FROM panorama_runs ORDER BY finished_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec          Record
		status       string
		sourceMs     int64
		processingMs int64
	)
	err := row.Scan(
		&rec.ID, &rec.VideoPath, &status, &rec.Error, &rec.StitchStatus, &rec.Stitcher,
		&rec.FrameCount, &rec.SampledFrames, &rec.Width, &rec.Height,
		&sourceMs, &processingMs, &rec.OutputPath, &rec.ObjectURL, &rec.StartedAt, &rec.FinishedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	rec.SourceDuration = time.Duration(sourceMs) * time.Millisecond
	rec.ProcessingTime = time.Duration(processingMs) * time.Millisecond
	return rec, nil
}

var _ Repository = (*Postgres)(nil)
