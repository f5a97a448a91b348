package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/frames/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and data directory",
		Long: `Creates config.yaml in the config directory when missing and initializes
the run journal in the data directory. Running init again is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings()
			if err != nil {
				return err
			}
			journal, err := a.openJournal(cfg)
			if err != nil {
				return err
			}
			if err := journal.Close(); err != nil {
				return sysError(err)
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"config_file": paths.ConfigFile(a.configDir),
					"data_dir":    cfg.DataDir,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n", paths.ConfigFile(a.configDir))
			fmt.Fprintf(cmd.OutOrStdout(), "Data:   %s\n", cfg.DataDir)
			return nil
		},
	}
}
