package kb

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/frames/pkg/types"
)

// Procedure is a named trigger implementation. Exactly one of the three
// function fields is set, and it decides which trigger kind the procedure
// can be bound to.
type Procedure struct {
	Name    string
	Compute types.ComputeFunc
	OnSet   types.SetObserver
	OnClear types.ClearObserver
}

// Kind returns the trigger kind the procedure serves.
func (p Procedure) Kind() types.TriggerKind {
	switch {
	case p.Compute != nil:
		return types.TriggerIfNeeded
	case p.OnSet != nil:
		return types.TriggerIfAdded
	case p.OnClear != nil:
		return types.TriggerIfRemoved
	}
	return ""
}

// Registry maps procedure names to implementations. Each KnowledgeBase owns
// its own Registry; there is no process-wide table.
type Registry struct {
	procs   map[string]Procedure
	similar map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		procs:   make(map[string]Procedure),
		similar: make(map[string][]string),
	}
}

// Register adds or replaces p.
func (r *Registry) Register(p Procedure) {
	r.procs[p.Name] = p
}

// Lookup returns the procedure registered under name.
func (r *Registry) Lookup(name string) (Procedure, bool) {
	p, ok := r.procs[name]
	return p, ok
}

// Names returns the registered procedure names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.procs))
	for n := range r.procs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Similar returns the related items recorded for name.
func (r *Registry) Similar(name string) []string {
	return slices.Clone(r.similar[name])
}

// bind attaches the procedure called name to trg for the given kind. It
// reports false when the name is unknown or the procedure serves another kind.
func (r *Registry) bind(trg *types.Triggers, kind types.TriggerKind, name string) bool {
	p, ok := r.procs[name]
	if !ok || p.Kind() != kind {
		return false
	}
	switch kind {
	case types.TriggerIfNeeded:
		trg.Compute = p.Compute
	case types.TriggerIfAdded:
		trg.OnSet = p.OnSet
	case types.TriggerIfRemoved:
		trg.OnClear = p.OnClear
	}
	return true
}

// Builtin procedure names.
const (
	ProcCalculateCompatibility   = "calculate_compatibility"
	ProcRecommendationReason     = "get_recommendation_reason"
	ProcDeterminePlatform        = "determine_platform"
	ProcSuggestSimilarGames      = "suggest_similar_games"
	ProcValidateBudget           = "validate_budget"
	ProcUpdateGenreCompatibility = "update_genre_compatibility"
	ProcValidateSessionLength    = "validate_session_length"
	ProcNoteCleared              = "note_cleared"
)

// DefaultPlatform is what the determine_platform procedure always answers.
const DefaultPlatform = "PC"

// defaultSimilar lists related titles per catalog game.
var defaultSimilar = map[string][]string{
	"Counter-Strike":      {"Valorant", "Rainbow Six Siege"},
	"Battlefield":         {"Call of Duty", "Titanfall 2"},
	"The_Witcher":         {"Skyrim", "Dragon Age"},
	"Skyrim":              {"The Witcher", "Fallout 4"},
	"Final_Fantasy":       {"Dragon Quest", "Persona 5"},
	"Civilization":        {"Age of Empires", "Stellaris"},
	"XCOM":                {"Phoenix Point", "Gears Tactics"},
	"Batman_Arkham":       {"Spider-Man", "Middle-earth: Shadow of Mordor"},
	"Uncharted":           {"Tomb Raider", "The Last of Us"},
	"The_Legend_of_Zelda": {"Okami", "Horizon Zero Dawn"},
	"God_of_War":          {"Devil May Cry", "Bayonetta"},
	"Halo":                {"Destiny", "Gears of War"},
	"Age_of_Empires":      {"StarCraft", "Command & Conquer"},
}

var (
	budgetLevels   = []string{"low", "medium", "high"}
	sessionLengths = []string{"short", "long", "medium"}
)

// NewBuiltinRegistry returns a registry holding the builtin procedures.
func NewBuiltinRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := NewRegistry()
	for name, items := range defaultSimilar {
		r.similar[name] = slices.Clone(items)
	}

	r.Register(Procedure{Name: ProcCalculateCompatibility, Compute: calculateCompatibility})
	r.Register(Procedure{Name: ProcRecommendationReason, Compute: recommendationReason})
	r.Register(Procedure{Name: ProcDeterminePlatform, Compute: func(*types.Frame) (types.Value, bool) {
		return types.Text(DefaultPlatform), true
	}})
	r.Register(Procedure{Name: ProcSuggestSimilarGames, Compute: func(f *types.Frame) (types.Value, bool) {
		return types.Strings(r.Similar(f.Name())...), true
	}})

	r.Register(Procedure{Name: ProcValidateBudget, OnSet: oneOf("budget", budgetLevels)})
	r.Register(Procedure{Name: ProcValidateSessionLength, OnSet: oneOf("session length", sessionLengths)})
	r.Register(Procedure{Name: ProcUpdateGenreCompatibility, OnSet: func(f *types.Frame, _, v types.Value) error {
		logger.Info("genre compatibility updated",
			zap.String("frame", f.Name()),
			zap.String("genre", v.String()))
		return nil
	}})

	r.Register(Procedure{Name: ProcNoteCleared, OnClear: func(f *types.Frame, old types.Value) {
		logger.Debug("slot value cleared",
			zap.String("frame", f.Name()),
			zap.String("old", old.String()))
	}})
	return r
}

// calculateCompatibility scores how completely a frame describes a game:
// platform and genre count 0.3 each, session length and online requirement
// 0.2 each.
func calculateCompatibility(f *types.Frame) (types.Value, bool) {
	score := 0.0
	if v, ok := f.GetSlotValue(SlotPlatform); ok && v.TextOr("") != "" {
		score += 0.3
	}
	if v, ok := f.GetSlotValue(SlotGenre); ok && v.TextOr("") != "" {
		score += 0.3
	}
	if v, ok := f.GetSlotValue(SlotSessionLength); ok && v.TextOr("") != "" {
		score += 0.2
	}
	if _, ok := f.GetSlotValue(SlotRequiresOnline); ok {
		score += 0.2
	}
	return types.Number(score), true
}

// recommendationReason summarises the requirements a game declares.
func recommendationReason(f *types.Frame) (types.Value, bool) {
	var reasons []string
	if v, ok := f.GetSlotValue(SlotPlatform); ok && v.TextOr("") != "" {
		reasons = append(reasons, "Platform: "+v.String())
	}
	if v, ok := f.GetSlotValue(SlotGenre); ok && v.TextOr("") != "" {
		reasons = append(reasons, "Genre: "+v.String())
	}
	if v, ok := f.GetSlotValue(SlotSessionLength); ok && v.TextOr("") != "" {
		reasons = append(reasons, "Session length: "+v.String())
	}
	if v, ok := f.GetSlotValue(SlotRequiresOnline); ok {
		if online, _ := v.AsBool(); online {
			reasons = append(reasons, "Requires online access")
		} else {
			reasons = append(reasons, "No online access required")
		}
	}
	if v, ok := f.GetSlotValue(SlotComplexity); ok && v.TextOr("") != "" {
		reasons = append(reasons, "Complexity: "+v.String())
	}
	if len(reasons) == 0 {
		return types.Text("General compatibility"), true
	}
	return types.Text(strings.Join(reasons, "; ")), true
}

// oneOf returns an IF-ADDED observer rejecting values outside allowed.
func oneOf(what string, allowed []string) types.SetObserver {
	return func(_ *types.Frame, _, v types.Value) error {
		if slices.Contains(allowed, v.TextOr("")) {
			return nil
		}
		return fmt.Errorf("invalid %s %q: want one of %s", what, v.String(), strings.Join(allowed, ", "))
	}
}
