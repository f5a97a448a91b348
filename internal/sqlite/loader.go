// This file rebuilds the SQLite tables from runs.jsonl on Open.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
)

// loadRunsJSONL reads runs.jsonl from dataDir and inserts every run.
// Loading is transactional: all runs load or the tables stay empty. Lines
// that do not decode into a run, or whose run ID repeats, are skipped.
// It returns the number of runs loaded.
func loadRunsJSONL(db *sql.DB, dataDir string) (int, error) {
	records, err := readJSONL(filepath.Join(dataDir, runsJSONL))
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	loaded := 0
	for _, rec := range records {
		var rj runJSON
		if err := json.Unmarshal(rec, &rj); err != nil || rj.RunID == "" {
			continue
		}
		run, err := rj.toRun()
		if err != nil {
			continue
		}
		if _, err := tx.Exec("SAVEPOINT load_run"); err != nil {
			return 0, fmt.Errorf("creating savepoint: %w", err)
		}
		if err := insertRun(tx, run); err != nil {
			if _, rbErr := tx.Exec("ROLLBACK TO load_run"); rbErr != nil {
				return 0, fmt.Errorf("rolling back run %s: %w", run.RunID, rbErr)
			}
		} else {
			loaded++
		}
		if _, err := tx.Exec("RELEASE load_run"); err != nil {
			return 0, fmt.Errorf("releasing savepoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}
