package types

import "time"

// Recommendation is one ranked match reported to callers.
type Recommendation struct {
	Game          string  `json:"game"`
	Compatibility float64 `json:"compatibility"`
	Platform      string  `json:"platform,omitempty"`
	Genre         string  `json:"genre,omitempty"`
	SessionLength string  `json:"session_length,omitempty"`
}

// TraceEntry records one step of an inference run.
type TraceEntry struct {
	Action  string         `json:"action"`
	Frame   string         `json:"frame"`
	Details map[string]any `json:"details,omitempty"`
}

// Trace actions written by the inference engine.
const (
	ActionSetPreferences = "set_preferences"
	ActionAddProtoFrame  = "add_proto_frame"
	ActionFrameMatch     = "frame_match"
)

// Run is a completed inference run as kept by the journal.
type Run struct {
	RunID           string            `json:"run_id"` // UUID v7, generated when recorded.
	CreatedAt       time.Time         `json:"created_at"`
	Preferences     map[string]string `json:"preferences"`
	Platform        string            `json:"platform"`
	Genres          []string          `json:"genres"`
	Best            string            `json:"best,omitempty"`
	Recommendations []Recommendation  `json:"recommendations"`
	Trace           []TraceEntry      `json:"trace,omitempty"`
}

// Journal stores completed inference runs. Knowledge is never stored.
type Journal interface {
	// Open connects the journal to the storage described by config.
	// Returns ErrAlreadyOpen if called while already open.
	Open(config Config) error

	// Record stores run and returns its generated ID.
	Record(run *Run) (string, error)

	// Runs returns up to limit runs, newest first. A limit <= 0 returns all.
	Runs(limit int) ([]*Run, error)

	// Get returns the run with the given ID, or ErrNotFound.
	Get(id string) (*Run, error)

	// Close releases storage resources. Idempotent.
	Close() error
}
