package types

import "errors"

// Config holds the settings shared by the CLI and the run journal.
type Config struct {
	KnowledgeFile string `json:"knowledge_file" yaml:"knowledge_file"` // empty selects the embedded knowledge base
	DataDir       string `json:"data_dir" yaml:"data_dir"`
	Limit         int    `json:"limit" yaml:"limit"`
	Journal       bool   `json:"journal" yaml:"journal"`
}

// DefaultLimit is the number of recommendations listed when none is configured.
const DefaultLimit = 5

// Config validation errors.
var (
	ErrLimitInvalid   = errors.New("limit must be positive")
	ErrDataDirMissing = errors.New("data directory must be set when the journal is enabled")
)

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return ErrLimitInvalid
	}
	if c.Journal && c.DataDir == "" {
		return ErrDataDirMissing
	}
	return nil
}
