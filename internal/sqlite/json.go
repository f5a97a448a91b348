package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/frames/pkg/types"
)

// runsJSONL is the journal file, one run per line. It is the source of
// truth; the SQLite tables are rebuilt from it on Open.
const runsJSONL = "runs.jsonl"

// journalDB is the SQLite file inside the data directory.
const journalDB = "journal.db"

// runJSON is one line of runs.jsonl.
type runJSON struct {
	RunID           string                 `json:"run_id"`
	CreatedAt       string                 `json:"created_at"`
	Preferences     map[string]string      `json:"preferences"`
	Platform        string                 `json:"platform"`
	Genres          []string               `json:"genres"`
	Best            string                 `json:"best,omitempty"`
	Recommendations []types.Recommendation `json:"recommendations"`
	Trace           []types.TraceEntry     `json:"trace,omitempty"`
}

func toRunJSON(r *types.Run) runJSON {
	return runJSON{
		RunID:           r.RunID,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339Nano),
		Preferences:     r.Preferences,
		Platform:        r.Platform,
		Genres:          r.Genres,
		Best:            r.Best,
		Recommendations: r.Recommendations,
		Trace:           r.Trace,
	}
}

func (j runJSON) toRun() (*types.Run, error) {
	created, err := time.Parse(time.RFC3339Nano, j.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("run %s: created_at: %w", j.RunID, err)
	}
	return &types.Run{
		RunID:           j.RunID,
		CreatedAt:       created,
		Preferences:     j.Preferences,
		Platform:        j.Platform,
		Genres:          j.Genres,
		Best:            j.Best,
		Recommendations: j.Recommendations,
		Trace:           j.Trace,
	}, nil
}
