package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/frames/internal/explain"
	"github.com/mesh-intelligence/frames/internal/inference"
	"github.com/mesh-intelligence/frames/pkg/types"
)

// recommendJSON is the JSON form of a recommend run.
type recommendJSON struct {
	RunID           string                  `json:"run_id,omitempty"`
	Platform        string                  `json:"platform"`
	Genres          []string                `json:"genres"`
	Best            string                  `json:"best,omitempty"`
	Recommendations []types.Recommendation  `json:"recommendations"`
	Explanation     *explain.CriteriaReport `json:"explanation,omitempty"`
}

func newRecommendCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend games for your preferences",
		Long: `Runs frame-based inference over the game catalog and prints the ranked
matches with an explanation of the best one. Answer the questionnaire with
flags such as --pc --action --online, or with --pref key=да|нет.`,
		Example: `  frames recommend --pc --action --online --short-sessions
  frames recommend --pref has_xbox=да --pref likes_rpg=yes --limit 3`,
		Args: cobra.NoArgs,
	}
	prefs := addPrefFlags(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "number of recommendations to list (default from config)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := a.settings()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("limit") {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}
			cfg.Limit = limit
		}

		engine, err := a.infer(cmd.Context(), cfg, prefs)
		if err != nil {
			return err
		}
		result := recommendJSON{
			Platform:        engine.Profile().Platform,
			Genres:          engine.Profile().Genres,
			Recommendations: engine.Recommendations(cfg.Limit),
		}
		x := explain.New(engine)
		if best, ok := engine.BestRecommendation(); ok {
			result.Best = best
			if report, ok := x.Criteria(best); ok {
				result.Explanation = &report
			}
		}

		if cfg.Journal {
			id, err := a.record(cfg, engine)
			if err != nil {
				return err
			}
			result.RunID = id
		}

		out := cmd.OutOrStdout()
		if a.jsonMode {
			return printJSON(out, result)
		}
		if len(result.Recommendations) == 0 {
			fmt.Fprintln(out, "No games matched your preferences.")
		} else {
			fmt.Fprintln(out, "Recommended games:")
			for i, rec := range result.Recommendations {
				fmt.Fprintf(out, "%d. %s (compatibility: %.1f%%)\n", i+1, rec.Game, rec.Compatibility*100)
			}
		}
		if result.Best != "" {
			fmt.Fprintf(out, "\nBest pick: %s\n\n", result.Best)
			fmt.Fprintln(out, x.ExplainRecommendation(result.Best))
		}
		if result.RunID != "" {
			fmt.Fprintf(out, "\nRun: %s\n", result.RunID)
		}
		return nil
	}
	return cmd
}

// record journals the finished run and returns its ID. Every match is kept,
// not only the listed ones.
func (a *app) record(cfg types.Config, engine *inference.Engine) (string, error) {
	journal, err := a.openJournal(cfg)
	if err != nil {
		return "", err
	}
	defer journal.Close()

	wm := engine.WorkingMemory()
	run := &types.Run{
		Preferences:     wm.Preferences(),
		Platform:        engine.Profile().Platform,
		Genres:          engine.Profile().Genres,
		Recommendations: engine.Recommendations(0),
		Trace:           wm.Trace(),
	}
	run.Best, _ = engine.BestRecommendation()
	id, err := journal.Record(run)
	if err != nil {
		return "", sysError(fmt.Errorf("record run: %w", err))
	}
	return id, nil
}
