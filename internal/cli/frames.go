package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// frameJSON is the JSON form of a frame listing entry.
type frameJSON struct {
	Name    string   `json:"name"`
	Parent  string   `json:"parent,omitempty"`
	Catalog bool     `json:"catalog"`
	Slots   []string `json:"slots"`
}

func newFramesCmd(a *app) *cobra.Command {
	var catalogOnly bool

	cmd := &cobra.Command{
		Use:   "frames [name]",
		Short: "List knowledge base frames or show one frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.settings()
			if err != nil {
				return err
			}
			knowledge, err := a.loadKnowledge(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				frame, ok := knowledge.Frame(args[0])
				if !ok {
					return fmt.Errorf("frame %q not found", args[0])
				}
				if a.jsonMode {
					values := make(map[string]any)
					for _, name := range frame.SlotNames() {
						if v, ok := frame.GetSlotValue(name); ok {
							values[name] = plainValue(v)
						}
					}
					return printJSON(out, values)
				}
				fmt.Fprintln(out, frame.String())
				return nil
			}

			frames := knowledge.Frames()
			if catalogOnly {
				frames = knowledge.Catalog()
			}
			entries := make([]frameJSON, 0, len(frames))
			for _, f := range frames {
				e := frameJSON{Name: f.Name(), Catalog: knowledge.IsCatalog(f.Name()), Slots: f.SlotNames()}
				if parent, ok := f.AKO(); ok {
					e.Parent = parent.Name()
				}
				entries = append(entries, e)
			}
			if a.jsonMode {
				return printJSON(out, entries)
			}
			for _, e := range entries {
				line := e.Name
				if e.Parent != "" {
					line += " -> " + e.Parent
				}
				if e.Catalog {
					line += "  [catalog]"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&catalogOnly, "catalog", false, "list only catalog games")
	return cmd
}
