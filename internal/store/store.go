package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/autocorrect/internal"
)

// Store is the correction memory: batches a human already accepted, keyed by
// their normalised source text and language, plus a log of runs.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS correction_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		language TEXT NOT NULL,
		corrected_text TEXT NOT NULL,
		run_id TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, language)
	);

	-- runs records every invocation of the pipeline
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		language TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		chunks INTEGER DEFAULT 0,
		batches INTEGER DEFAULT 0,
		cached INTEGER DEFAULT 0,
		corrected INTEGER DEFAULT 0,
		error TEXT,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON correction_memory(source_text, language);
	`

	_, err := s.db.Exec(schema)
	return err
}

// GetCorrection returns the accepted correction of text, if one is stored and
// not invalidated.
func (s *Store) GetCorrection(ctx context.Context, text, lang string) (string, bool, error) {
	var corrected string
	var invalidated bool

	key := normalizeText(text)
	err := s.db.QueryRowContext(ctx,
		`SELECT corrected_text, invalidated FROM correction_memory WHERE source_text = ? AND language = ?`,
		key, lang).Scan(&corrected, &invalidated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE correction_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND language = ?`,
		time.Now(), key, lang)

	return corrected, true, err
}

// SaveCorrection stores corrected as the accepted correction of text,
// replacing any earlier entry.
func (s *Store) SaveCorrection(ctx context.Context, runID, text, lang, corrected string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO correction_memory (id, source_text, language, corrected_text, run_id, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		uuid.New().String(), normalizeText(text), lang, corrected, runID, now, now)
	return err
}

// MemoryEntry is a row from the correction_memory table.
type MemoryEntry struct {
	ID            string
	SourceText    string
	Language      string
	CorrectedText string
	UsageCount    int
	Invalidated   bool
	LastUsed      time.Time
}

// CacheStats summarises correction memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
	Runs           int
}

func (s *Store) InvalidateCorrection(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE correction_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteCorrection permanently removes an entry by ID. It reports whether an
// entry existed.
func (s *Store) DeleteCorrection(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM correction_memory WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ClearCorrections removes all entries.
func (s *Store) ClearCorrections(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM correction_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListCorrections returns all entries ordered by most recently used.
func (s *Store) ListCorrections(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, language, corrected_text, usage_count, invalidated, last_used FROM correction_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.Language, &e.CorrectedText, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM correction_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return nil, err
	}
	return stats, nil
}

// RunRecord is a row from the runs table.
type RunRecord struct {
	internal.Run
	internal.RunStats
	Status     string
	Error      string
	FinishedAt *time.Time
}

// StartRun records the start of a run.
func (s *Store) StartRun(ctx context.Context, run internal.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_file, output_file, language, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputFile, run.OutputFile, run.Language, internal.RunRunning, run.StartedAt)
	return err
}

// FinishRun stores the outcome of a run. runErr may be nil.
func (s *Store) FinishRun(ctx context.Context, runID string, stats internal.RunStats, runErr error) error {
	status := internal.RunCompleted
	var msg string
	if runErr != nil {
		status = internal.RunFailed
		msg = runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, chunks = ?, batches = ?, cached = ?, corrected = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, stats.Chunks, stats.Batches, stats.Cached, stats.Corrected, msg, time.Now(), runID)
	return err
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	var r RunRecord
	var errMsg sql.NullString
	var finished sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, output_file, language, status, chunks, batches, cached, corrected, error, started_at, finished_at FROM runs WHERE id = ?`,
		runID).Scan(&r.ID, &r.InputFile, &r.OutputFile, &r.Language, &r.Status,
		&r.Chunks, &r.Batches, &r.Cached, &r.Corrected, &errMsg, &r.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}
	r.Error = errMsg.String
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
