// Shared helpers for frames CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/frames/internal/inference"
	"github.com/mesh-intelligence/frames/internal/kb"
	"github.com/mesh-intelligence/frames/internal/memory"
	"github.com/mesh-intelligence/frames/pkg/sqlite"
	"github.com/mesh-intelligence/frames/pkg/types"
)

// loadKnowledge loads the configured knowledge file, or the built-in one.
func (a *app) loadKnowledge(cfg types.Config) (*kb.KnowledgeBase, error) {
	if cfg.KnowledgeFile == "" {
		knowledge, err := kb.LoadDefault(kb.WithLogger(a.logger))
		if err != nil {
			return nil, sysError(err)
		}
		return knowledge, nil
	}
	knowledge, err := kb.Load(cfg.KnowledgeFile, kb.WithLogger(a.logger))
	if err != nil {
		if errors.Is(err, kb.ErrKnowledgeNotFound) || errors.Is(err, kb.ErrMalformedKnowledge) {
			return nil, err
		}
		return nil, sysError(err)
	}
	return knowledge, nil
}

// openJournal opens the run journal in the configured data directory. The
// caller must Close it.
func (a *app) openJournal(cfg types.Config) (types.Journal, error) {
	journal := sqlite.NewJournal()
	if err := journal.Open(cfg); err != nil {
		return nil, sysError(fmt.Errorf("open journal: %w", err))
	}
	return journal, nil
}

// prefFlags binds the preference questionnaire to command flags.
type prefFlags struct {
	answers map[string]*bool
	pairs   []string
}

// prefFlagNames maps flag names to preference keys, in questionnaire order.
var prefFlagNames = []struct{ flag, key, usage string }{
	{"pc", memory.PrefPC, "you own a PC"},
	{"playstation", memory.PrefPlayStation, "you own a PlayStation"},
	{"xbox", memory.PrefXbox, "you own an Xbox"},
	{"action", memory.PrefAction, "you like action games"},
	{"rpg", memory.PrefRPG, "you like RPGs"},
	{"strategy", memory.PrefStrategy, "you like strategy games"},
	{"simulators", memory.PrefSimulators, "you like simulators"},
	{"adventure", memory.PrefAdventure, "you like adventure games"},
	{"online", memory.PrefOnline, "you have online access"},
	{"short-sessions", memory.PrefShort, "you prefer short play sessions"},
}

func addPrefFlags(cmd *cobra.Command) *prefFlags {
	p := &prefFlags{answers: make(map[string]*bool)}
	for _, f := range prefFlagNames {
		p.answers[f.key] = cmd.Flags().Bool(f.flag, false, f.usage)
	}
	cmd.Flags().StringArrayVar(&p.pairs, "pref", nil, "preference as key=answer, answer да/нет or yes/no (repeatable)")
	return p
}

// preferences merges boolean flags with --pref pairs. A --pref pair wins
// over the flag for the same key.
func (p *prefFlags) preferences() (map[string]string, error) {
	prefs := make(map[string]string, len(memory.PreferenceKeys))
	for key, set := range p.answers {
		if *set {
			prefs[key] = memory.Yes
		}
	}
	for _, pair := range p.pairs {
		key, answer, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid preference %q (expected key=answer)", pair)
		}
		if !slices.Contains(memory.PreferenceKeys, key) {
			return nil, fmt.Errorf("unknown preference %q (valid: %s)", key, strings.Join(memory.PreferenceKeys, ", "))
		}
		switch answer {
		case memory.Yes, "yes":
			prefs[key] = memory.Yes
		case memory.No, "no":
			prefs[key] = memory.No
		default:
			return nil, fmt.Errorf("invalid answer %q for %s (expected да, нет, yes or no)", answer, key)
		}
	}
	return prefs, nil
}

// infer loads knowledge and runs inference for the flagged preferences.
func (a *app) infer(ctx context.Context, cfg types.Config, p *prefFlags) (*inference.Engine, error) {
	prefs, err := p.preferences()
	if err != nil {
		return nil, err
	}
	knowledge, err := a.loadKnowledge(cfg)
	if err != nil {
		return nil, err
	}
	engine := inference.New(knowledge, inference.WithLogger(a.logger))
	engine.SetUserPreferences(prefs)
	if _, err := engine.Run(ctx); err != nil {
		return nil, sysError(err)
	}
	return engine, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// plainValue converts a slot value for JSON output. Frame references are
// rendered by name.
func plainValue(v types.Value) any {
	if f, ok := v.AsFrame(); ok {
		return f.Name()
	}
	if items, ok := v.AsList(); ok {
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = plainValue(item)
		}
		return out
	}
	return v.Interface()
}
