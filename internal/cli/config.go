// Config loading for the frames CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/frames/internal/logging"
	"github.com/mesh-intelligence/frames/internal/paths"
	"github.com/mesh-intelligence/frames/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys.
	cfgKeyKnowledgeFile = "knowledge_file"
	cfgKeyDataDir       = "data_dir"
	cfgKeyLimit         = "limit"
	cfgKeyJournal       = "journal"
	cfgKeyLogLevel      = "log_level"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# frames CLI configuration

# Knowledge file (JSON or YAML). Empty uses the built-in video game frames.
# knowledge_file:

# Data directory for the run journal (optional; overridable by --data-dir)
# data_dir:

# Number of recommendations listed
limit: 5

# Record every recommend run in the journal
journal: true

# debug, info, warn or error
log_level: warn
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyLimit, types.DefaultLimit)
	v.SetDefault(cfgKeyJournal, true)
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in configDir.
func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// settings merges flags into the loaded configuration and validates it.
func (a *app) settings() (types.Config, error) {
	knowledge, err := paths.ResolveKnowledgeFile(a.knowledge, a.cfg.GetString(cfgKeyKnowledgeFile))
	if err != nil {
		return types.Config{}, sysError(err)
	}
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, sysError(err)
	}
	cfg := types.Config{
		KnowledgeFile: knowledge,
		DataDir:       dataDir,
		Limit:         a.cfg.GetInt(cfgKeyLimit),
		Journal:       a.cfg.GetBool(cfgKeyJournal),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
