package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.AnalysisRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/order_blocks.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		source TEXT NOT NULL,
		candle_range INTEGER NOT NULL,
		show_pd INTEGER NOT NULL,
		show_bearish_bos INTEGER NOT NULL,
		show_bullish_bos INTEGER NOT NULL,
		bar_count INTEGER NOT NULL,
		first_bar TIMESTAMP NOT NULL,
		last_bar TIMESTAMP NOT NULL,
		final_color TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS analysis_shapes (
		run_id TEXT NOT NULL REFERENCES analysis_runs (id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		kind TEXT NOT NULL,
		x0 TIMESTAMP NOT NULL,
		x1 TIMESTAMP NOT NULL,
		y0 REAL NOT NULL,
		y1 REAL NOT NULL,
		xref TEXT NOT NULL,
		yref TEXT NOT NULL,
		line_width INTEGER NOT NULL,
		fill_color TEXT NOT NULL,
		line_color TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_runs_symbol_created ON analysis_runs (symbol, created_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveRun stores run and its shapes in one transaction. A missing ID or
// creation time is filled in and written back to run.
func (r *Repository) SaveRun(ctx context.Context, run *domain.AnalysisRun) (string, error) {
	if run == nil {
		return "", fmt.Errorf("nil analysis run: %w", ports.ErrInvalidRequest)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction for run %s: %w: %w", run.ID, ports.ErrDBConnection, err)
	}
	defer tx.Rollback()

	const runQuery = `
	INSERT INTO analysis_runs (id, symbol, source, candle_range, show_pd, show_bearish_bos, show_bullish_bos,
	                           bar_count, first_bar, last_bar, final_color, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, runQuery,
		run.ID, run.Symbol, run.Source, run.Params.CandleRange, run.Params.ShowPreviousDay,
		run.Params.ShowBearishBOS, run.Params.ShowBullishBOS, run.BarCount,
		run.FirstBar, run.LastBar, run.FinalColor, run.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert run for symbol %s: %w: %w", run.Symbol, ports.ErrQueryFailed, err)
	}

	const shapeQuery = `
	INSERT INTO analysis_shapes (run_id, seq, type, kind, x0, x1, y0, y1, xref, yref, line_width, fill_color, line_color)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, shapeQuery)
	if err != nil {
		return "", fmt.Errorf("failed to prepare shape insert: %w: %w", ports.ErrQueryFailed, err)
	}
	defer stmt.Close()

	for i, s := range run.Shapes {
		_, err := stmt.ExecContext(ctx, run.ID, i, s.Type, s.Kind, s.X0, s.X1, s.Y0, s.Y1,
			s.XRef, s.YRef, s.LineWidth, s.FillColor, s.LineColor)
		if err != nil {
			return "", fmt.Errorf("failed to insert shape %d of run %s: %w: %w", i, run.ID, ports.ErrQueryFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w: %w", run.ID, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Analysis run saved", map[string]interface{}{
		"runID":  run.ID,
		"symbol": run.Symbol,
		"shapes": len(run.Shapes),
	})
	return run.ID, nil
}

const runColumns = `id, symbol, source, candle_range, show_pd, show_bearish_bos, show_bullish_bos,
	       bar_count, first_bar, last_bar, final_color, created_at`

// FindRun retrieves a run with its shapes. Returns nil, nil if not found.
func (r *Repository) FindRun(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Analysis run not found", map[string]interface{}{"runID": id})
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query run %s: %w: %w", id, ports.ErrQueryFailed, err)
	}

	shapes, err := r.FindShapes(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Shapes = shapes
	return run, nil
}

// ListRuns retrieves the most recent runs for symbol, newest first, without shapes.
func (r *Repository) ListRuns(ctx context.Context, symbol string, limit int) ([]*domain.AnalysisRun, error) {
	query := `SELECT ` + runColumns + `
	FROM analysis_runs
	WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs for symbol %s: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	runs := make([]*domain.AnalysisRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run during ListRuns: %w", err)
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

// FindShapes retrieves the shapes of a run in render order.
func (r *Repository) FindShapes(ctx context.Context, runID string) ([]domain.Shape, error) {
	const query = `
	SELECT type, kind, x0, x1, y0, y1, xref, yref, line_width, fill_color, line_color
	FROM analysis_shapes
	WHERE run_id = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shapes for run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	shapes := make([]domain.Shape, 0)
	for rows.Next() {
		var s domain.Shape
		var shapeType string
		err := rows.Scan(&shapeType, &s.Kind, &s.X0, &s.X1, &s.Y0, &s.Y1,
			&s.XRef, &s.YRef, &s.LineWidth, &s.FillColor, &s.LineColor)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shape of run %s: %w", runID, err)
		}
		s.Type = domain.ShapeType(shapeType)
		shapes = append(shapes, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shape rows: %w", err)
	}
	return shapes, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRun scans a row into a domain.AnalysisRun.
func scanRun(s scanner) (*domain.AnalysisRun, error) {
	run := &domain.AnalysisRun{}
	err := s.Scan(
		&run.ID, &run.Symbol, &run.Source, &run.Params.CandleRange, &run.Params.ShowPreviousDay,
		&run.Params.ShowBearishBOS, &run.Params.ShowBullishBOS, &run.BarCount,
		&run.FirstBar, &run.LastBar, &run.FinalColor, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	return run, nil
}
