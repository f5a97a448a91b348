package sqlite

// timeFormat stores timestamps with fixed-width fractions so created_at
// sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Schema DDL for the run journal tables.
const (
	createRuns = `CREATE TABLE runs (
    run_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    preferences TEXT NOT NULL,
    platform TEXT NOT NULL,
    genres TEXT NOT NULL,
    best TEXT
);`

	createRunRecommendations = `CREATE TABLE run_recommendations (
    run_id TEXT NOT NULL,
    rank INTEGER NOT NULL,
    game TEXT NOT NULL,
    compatibility REAL NOT NULL,
    platform TEXT,
    genre TEXT,
    session_length TEXT,
    PRIMARY KEY (run_id, rank),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);`

	createRunTrace = `CREATE TABLE run_trace (
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    action TEXT NOT NULL,
    frame TEXT NOT NULL,
    details TEXT,
    PRIMARY KEY (run_id, seq),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxRunsCreated         = `CREATE INDEX idx_runs_created ON runs(created_at);`
	idxRecommendationsGame = `CREATE INDEX idx_run_recommendations_game ON run_recommendations(game);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createRuns,
	createRunRecommendations,
	createRunTrace,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxRunsCreated,
	idxRecommendationsGame,
}
