// Package sqlite implements the run journal: a history of completed
// inference runs kept as JSONL in the data directory and queried through
// SQLite. Knowledge bases are never stored.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/frames/pkg/types"
)

// Journal implements types.Journal.
type Journal struct {
	mu     sync.RWMutex
	open   bool
	config types.Config
	db     *sql.DB
	now    func() time.Time
}

// NewJournal creates a closed journal. Call Open with a Config to use it.
func NewJournal() *Journal {
	return &Journal{now: time.Now}
}

// Open creates DataDir if needed, rebuilds the SQLite tables and loads
// runs.jsonl into them. Returns ErrAlreadyOpen if already open.
func (j *Journal) Open(config types.Config) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.open {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	// The database is a cache of runs.jsonl; start from a fresh schema.
	dbPath := filepath.Join(dataDir, journalDB)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	if err := applySchema(db); err != nil {
		db.Close()
		return err
	}
	if _, err := loadRunsJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	j.db = db
	j.config = config
	j.open = true
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Close releases the database. Close is idempotent.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.open {
		return nil
	}
	if j.db != nil {
		if err := j.db.Close(); err != nil {
			return err
		}
		j.db = nil
	}
	j.open = false
	return nil
}

// Record stores run, assigning its RunID and, when unset, CreatedAt. The run
// is appended to runs.jsonl only after the SQLite insert succeeds.
func (j *Journal) Record(run *types.Run) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.open {
		return "", types.ErrJournalClosed
	}

	run.RunID = generateUUID()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = j.now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	tx, err := j.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning record transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(tx, run); err != nil {
		return "", err
	}
	if err := appendJSONL(filepath.Join(j.config.DataDir, runsJSONL), toRunJSON(run)); err != nil {
		return "", fmt.Errorf("persist run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.RunID, nil
}

// Runs returns up to limit runs, newest first. A limit <= 0 returns all.
func (j *Journal) Runs(limit int) ([]*types.Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.open {
		return nil, types.ErrJournalClosed
	}

	query := `SELECT run_id, created_at, preferences, platform, genres, best
FROM runs ORDER BY created_at DESC, run_id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	var runs []*types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, run := range runs {
		if err := j.loadChildren(run); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Get returns the run with the given ID. It returns ErrInvalidID for an ID
// that is not a UUID and ErrNotFound when no such run was recorded.
func (j *Journal) Get(id string) (*types.Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.open {
		return nil, types.ErrJournalClosed
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, types.ErrInvalidID
	}

	row := j.db.QueryRow(`SELECT run_id, created_at, preferences, platform, genres, best
FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := j.loadChildren(run); err != nil {
		return nil, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*types.Run, error) {
	var (
		run                  types.Run
		created, prefs, gens string
		best                 sql.NullString
	)
	if err := s.Scan(&run.RunID, &created, &prefs, &run.Platform, &gens, &best); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("run %s: created_at: %w", run.RunID, err)
	}
	run.CreatedAt = t
	run.Best = best.String
	if err := json.Unmarshal([]byte(prefs), &run.Preferences); err != nil {
		return nil, fmt.Errorf("run %s: preferences: %w", run.RunID, err)
	}
	if err := json.Unmarshal([]byte(gens), &run.Genres); err != nil {
		return nil, fmt.Errorf("run %s: genres: %w", run.RunID, err)
	}
	return &run, nil
}

// loadChildren fills in the recommendations and trace of run.
func (j *Journal) loadChildren(run *types.Run) error {
	rows, err := j.db.Query(`SELECT game, compatibility, platform, genre, session_length
FROM run_recommendations WHERE run_id = ? ORDER BY rank`, run.RunID)
	if err != nil {
		return fmt.Errorf("querying recommendations: %w", err)
	}
	run.Recommendations = []types.Recommendation{}
	for rows.Next() {
		var (
			rec                      types.Recommendation
			platform, genre, session sql.NullString
		)
		if err := rows.Scan(&rec.Game, &rec.Compatibility, &platform, &genre, &session); err != nil {
			rows.Close()
			return err
		}
		rec.Platform, rec.Genre, rec.SessionLength = platform.String, genre.String, session.String
		run.Recommendations = append(run.Recommendations, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = j.db.Query(`SELECT action, frame, details
FROM run_trace WHERE run_id = ? ORDER BY seq`, run.RunID)
	if err != nil {
		return fmt.Errorf("querying trace: %w", err)
	}
	defer rows.Close()
	run.Trace = nil
	for rows.Next() {
		var (
			entry   types.TraceEntry
			details sql.NullString
		)
		if err := rows.Scan(&entry.Action, &entry.Frame, &details); err != nil {
			return err
		}
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return fmt.Errorf("run %s: trace details: %w", run.RunID, err)
			}
		}
		run.Trace = append(run.Trace, entry)
	}
	return rows.Err()
}

// insertRun writes run and its children inside tx.
func insertRun(tx *sql.Tx, run *types.Run) error {
	prefs, err := json.Marshal(run.Preferences)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	genres := run.Genres
	if genres == nil {
		genres = []string{}
	}
	gens, err := json.Marshal(genres)
	if err != nil {
		return fmt.Errorf("encoding genres: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO runs (run_id, created_at, preferences, platform, genres, best)
VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.UTC().Format(timeFormat), string(prefs), run.Platform, string(gens), nullable(run.Best)); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, rec := range run.Recommendations {
		if _, err := tx.Exec(`INSERT INTO run_recommendations
(run_id, rank, game, compatibility, platform, genre, session_length) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, i, rec.Game, rec.Compatibility, nullable(rec.Platform), nullable(rec.Genre), nullable(rec.SessionLength)); err != nil {
			return fmt.Errorf("inserting recommendation: %w", err)
		}
	}

	for i, entry := range run.Trace {
		var details any
		if len(entry.Details) > 0 {
			b, err := json.Marshal(entry.Details)
			if err != nil {
				return fmt.Errorf("encoding trace details: %w", err)
			}
			details = string(b)
		}
		if _, err := tx.Exec(`INSERT INTO run_trace (run_id, seq, action, frame, details) VALUES (?, ?, ?, ?, ?)`,
			run.RunID, i, entry.Action, entry.Frame, details); err != nil {
			return fmt.Errorf("inserting trace entry: %w", err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// generateUUID generates a new UUID v7 for run IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
