package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/frames/internal/explain"
	"github.com/mesh-intelligence/frames/internal/inference"
)

func newExplainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain recommendations, slot inheritance and inference runs",
	}
	cmd.AddCommand(newExplainGameCmd(a))
	cmd.AddCommand(newExplainSlotCmd(a))
	cmd.AddCommand(newExplainHierarchyCmd(a))
	cmd.AddCommand(newExplainTraceCmd(a))
	cmd.AddCommand(newExplainProcessCmd(a))
	return cmd
}

// explainer builds an explainer over the configured knowledge. When prefs is
// non-nil inference runs first.
func (a *app) explainer(cmd *cobra.Command, prefs *prefFlags) (*explain.Explainer, error) {
	cfg, err := a.settings()
	if err != nil {
		return nil, err
	}
	if prefs != nil {
		engine, err := a.infer(cmd.Context(), cfg, prefs)
		if err != nil {
			return nil, err
		}
		return explain.New(engine), nil
	}
	knowledge, err := a.loadKnowledge(cfg)
	if err != nil {
		return nil, err
	}
	return explain.New(inference.New(knowledge, inference.WithLogger(a.logger))), nil
}

func newExplainGameCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game <name>",
		Short: "Explain why a game was recommended",
		Args:  cobra.ExactArgs(1),
	}
	prefs := addPrefFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		x, err := a.explainer(cmd, prefs)
		if err != nil {
			return err
		}
		report, ok := x.Criteria(args[0])
		if a.jsonMode {
			if !ok {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"game":    args[0],
					"found":   false,
					"message": x.ExplainRecommendation(args[0]),
				})
			}
			return printJSON(cmd.OutOrStdout(), report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), x.ExplainRecommendation(args[0]))
		return nil
	}
	return cmd
}

func newExplainSlotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "slot <frame> <slot>",
		Short: "Show how a frame obtains a slot value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := a.explainer(cmd, nil)
			if err != nil {
				return err
			}
			report := x.SlotInheritance(args[0], args[1])
			if !report.Exists {
				return fmt.Errorf("frame %q not found", args[0])
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprint(cmd.OutOrStdout(), x.ExplainSlotInheritance(args[0], args[1]))
			return nil
		},
	}
}

func newExplainHierarchyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hierarchy <frame>",
		Short: "Show the AKO chain of a frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := a.explainer(cmd, nil)
			if err != nil {
				return err
			}
			levels, ok := x.Hierarchy(args[0])
			if !ok {
				return fmt.Errorf("frame %q not found", args[0])
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), levels)
			}
			fmt.Fprint(cmd.OutOrStdout(), x.ExplainFrameHierarchy(args[0]))
			return nil
		},
	}
}

func newExplainTraceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the detailed inference trace",
		Args:  cobra.NoArgs,
	}
	prefs := addPrefFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		x, err := a.explainer(cmd, prefs)
		if err != nil {
			return err
		}
		if a.jsonMode {
			return printJSON(cmd.OutOrStdout(), x.Trace())
		}
		fmt.Fprintln(cmd.OutOrStdout(), x.DetailedTrace())
		return nil
	}
	return cmd
}

func newExplainProcessCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Describe the stages of an inference run",
		Args:  cobra.NoArgs,
	}
	prefs := addPrefFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		x, err := a.explainer(cmd, prefs)
		if err != nil {
			return err
		}
		if a.jsonMode {
			return printJSON(cmd.OutOrStdout(), x.Summary())
		}
		fmt.Fprint(cmd.OutOrStdout(), x.ExplainProcess())
		return nil
	}
	return cmd
}
