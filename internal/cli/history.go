package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/frames/pkg/types"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List journaled recommend runs or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings()
			if err != nil {
				return err
			}
			journal, err := a.openJournal(cfg)
			if err != nil {
				return err
			}
			defer journal.Close()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := journal.Get(args[0])
				if errors.Is(err, types.ErrInvalidID) || errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("run %q: %w", args[0], err)
				}
				if err != nil {
					return sysError(err)
				}
				if a.jsonMode {
					return printJSON(out, run)
				}
				printRun(cmd, run, true)
				return nil
			}

			runs, err := journal.Runs(limit)
			if err != nil {
				return sysError(err)
			}
			if a.jsonMode {
				if runs == nil {
					runs = []*types.Run{}
				}
				return printJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			for _, run := range runs {
				printRun(cmd, run, false)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of runs to list (0 lists all)")
	return cmd
}

func printRun(cmd *cobra.Command, run *types.Run, detailed bool) {
	out := cmd.OutOrStdout()
	best := run.Best
	if best == "" {
		best = "-"
	}
	genres := strings.Join(run.Genres, ", ")
	if genres == "" {
		genres = "-"
	}
	fmt.Fprintf(out, "%s  %s  platform=%s genres=%s best=%s\n",
		run.RunID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Platform, genres, best)
	if !detailed {
		return
	}
	for i, rec := range run.Recommendations {
		fmt.Fprintf(out, "  %d. %s (compatibility: %.1f%%)\n", i+1, rec.Game, rec.Compatibility*100)
	}
	fmt.Fprintf(out, "  %d trace entries\n", len(run.Trace))
}
