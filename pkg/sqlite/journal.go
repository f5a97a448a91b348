// Package sqlite provides the public API for the SQLite run journal. It
// exposes the factory while keeping the implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/frames/internal/sqlite"
	"github.com/mesh-intelligence/frames/pkg/types"
)

// NewJournal creates a new SQLite run journal. The journal is closed; call
// Open with a Config to use it.
//
// Example:
//
//	journal := sqlite.NewJournal()
//	err := journal.Open(types.Config{
//	    DataDir: dataDir,
//	    Limit:   types.DefaultLimit,
//	    Journal: true,
//	})
//	defer journal.Close()
func NewJournal() types.Journal {
	return sqlite.NewJournal()
}
