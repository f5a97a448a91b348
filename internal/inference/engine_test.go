package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/frames/internal/kb"
	"github.com/mesh-intelligence/frames/internal/memory"
	"github.com/mesh-intelligence/frames/pkg/types"
)

// pcActionGamer owns a PC, likes action, has online access and prefers
// short sessions.
var pcActionGamer = map[string]string{
	memory.PrefPC:          memory.Yes,
	memory.PrefPlayStation: memory.No,
	memory.PrefXbox:        memory.No,
	memory.PrefAction:      memory.Yes,
	memory.PrefOnline:      memory.Yes,
	memory.PrefShort:       memory.Yes,
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	knowledge, err := kb.LoadDefault()
	require.NoError(t, err)
	return New(knowledge)
}

func run(t *testing.T, e *Engine, prefs map[string]string) []*types.Frame {
	t.Helper()
	e.SetUserPreferences(prefs)
	matches, err := e.Run(context.Background())
	require.NoError(t, err)
	return matches
}

func gameNames(frames []*types.Frame) []string {
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = GameName(f)
	}
	return names
}

func TestRunPCActionGamer(t *testing.T) {
	e := newEngine(t)
	matches := run(t, e, pcActionGamer)

	assert.Equal(t, PlatformPC, e.Profile().Platform)
	assert.Equal(t, []string{GenreAction}, e.Profile().Genres)

	want := []string{
		"Counter-Strike", "Battlefield", "Halo", "God_of_War",
		"The_Witcher", "Final_Fantasy", "Age_of_Empires", "Batman_Arkham",
		"XCOM", "Skyrim", "Civilization", "The_Legend_of_Zelda", "Uncharted",
	}
	if diff := cmp.Diff(want, gameNames(matches)); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}

	best, ok := e.BestRecommendation()
	require.True(t, ok)
	assert.Equal(t, "Counter-Strike", best)

	scores := map[string]float64{
		"Counter-Strike": 1.0,
		"Battlefield":    0.9,
		"Halo":           0.8,
		"God_of_War":     0.65,
		"The_Witcher":    0.6,
		"XCOM":           0.5 / 0.85,
		"Uncharted":      0.3 / 0.85,
	}
	for _, proto := range matches {
		if want, ok := scores[GameName(proto)]; ok {
			assert.InDelta(t, want, Compatibility(proto), 1e-9, GameName(proto))
		}
	}
}

func TestRunShortSessionOutranksLong(t *testing.T) {
	e := newEngine(t)
	matches := run(t, e, pcActionGamer)
	names := gameNames(matches)
	assert.Less(t, indexOf(names, "Counter-Strike"), indexOf(names, "Battlefield"))
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestRunCopiesRequirementsForward(t *testing.T) {
	e := newEngine(t)
	run(t, e, pcActionGamer)

	cs, ok := e.Match("Counter-Strike")
	require.True(t, ok)
	assert.Equal(t, types.ProtoPrefix+"Counter-Strike", cs.Name())
	for slot, want := range map[string]string{
		SlotRequiredPlatform:   "PC",
		SlotRequiredGenre:      "action",
		SlotRecommendedSession: "short",
		SlotComplexity:         "high",
	} {
		s, ok := cs.Slot(slot)
		require.True(t, ok, slot)
		assert.Equal(t, want, s.Value().TextOr(""), slot)
	}
	online, ok := cs.Slot(SlotRequiresOnline)
	require.True(t, ok)
	b, _ := online.Value().AsBool()
	assert.True(t, b)

	compat, ok := cs.Slot(SlotCompatibility)
	require.True(t, ok)
	assert.Equal(t, types.DataTypeInteger, compat.Type)

	xcom, ok := e.Match("XCOM")
	require.True(t, ok)
	_, ok = xcom.Slot(SlotRequiresOnline)
	assert.False(t, ok, "absent requirements are not copied")
}

func TestRunTrace(t *testing.T) {
	e := newEngine(t)
	matches := run(t, e, pcActionGamer)
	wm := e.WorkingMemory()

	assert.Equal(t, 1, wm.CountAction(types.ActionSetPreferences))
	assert.Equal(t, len(kb.DefaultCatalog), wm.CountAction(types.ActionAddProtoFrame))
	assert.Equal(t, len(matches), wm.CountAction(types.ActionFrameMatch))
	assert.Len(t, wm.ProtoFrames(), len(kb.DefaultCatalog))
	assert.Len(t, wm.ExoFrames(), len(kb.DefaultCatalog))

	var halo *types.TraceEntry
	for _, entry := range wm.Trace() {
		if entry.Action == types.ActionFrameMatch && entry.Frame == "Proto_Halo" {
			halo = &entry
			break
		}
	}
	require.NotNil(t, halo)
	assert.Equal(t, false, halo.Details["platform_match"])
	assert.Equal(t, true, halo.Details["genre_match"])
	assert.InDelta(t, 0.8, halo.Details["compatibility"], 1e-9)
}

func TestRunStartsFromFreshWorkingMemory(t *testing.T) {
	e := newEngine(t)
	first := run(t, e, pcActionGamer)
	firstTrace := e.WorkingMemory().Trace()

	second, err := e.Run(context.Background())
	require.NoError(t, err)
	wm := e.WorkingMemory()

	assert.Equal(t, gameNames(first), gameNames(second))
	assert.Len(t, wm.ProtoFrames(), len(kb.DefaultCatalog))
	assert.Len(t, wm.ExoFrames(), len(kb.DefaultCatalog))
	assert.Equal(t, 1, wm.CountAction(types.ActionSetPreferences))
	assert.Equal(t, len(second), wm.CountAction(types.ActionFrameMatch))
	assert.Equal(t, pcActionGamer[memory.PrefPC], wm.Preference(memory.PrefPC), "preferences survive the reset")
	assert.Len(t, wm.Trace(), len(firstTrace))

	matches := run(t, e, map[string]string{memory.PrefXbox: memory.Yes})
	assert.Equal(t, len(matches), e.WorkingMemory().CountAction(types.ActionFrameMatch))
	assert.Equal(t, memory.No, e.WorkingMemory().Preference(memory.PrefPC))
}

func TestRunIsDeterministic(t *testing.T) {
	knowledge, err := kb.LoadDefault()
	require.NoError(t, err)

	prefs := map[string]string{
		memory.PrefPlayStation: memory.Yes,
		memory.PrefRPG:         memory.Yes,
		memory.PrefStrategy:    memory.Yes,
	}
	a, b := New(knowledge), New(knowledge)
	run(t, a, prefs)
	run(t, b, prefs)

	if diff := cmp.Diff(a.Recommendations(0), b.Recommendations(0)); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestTiesKeepCatalogOrder(t *testing.T) {
	doc := `{"frames": [
	  {"name": "Game"},
	  {"name": "B", "ako": "Game", "slots": [{"name": "platform", "value": "PC"}]},
	  {"name": "A", "ako": "Game", "slots": [{"name": "platform", "value": "PC"}]},
	  {"name": "C", "ako": "Game", "slots": [{"name": "platform", "value": "multiplatform"}]}
	]}`
	knowledge, err := kb.LoadBytes([]byte(doc), kb.FormatJSON, kb.WithCatalog("B", "A", "C"))
	require.NoError(t, err)

	e := New(knowledge)
	matches := run(t, e, map[string]string{memory.PrefPC: memory.Yes})
	assert.Equal(t, []string{"B", "A", "C"}, gameNames(matches))
}

func TestThreshold(t *testing.T) {
	doc := `{"frames": [
	  {"name": "Game"},
	  {"name": "NoCriteria", "ako": "Game", "slots": [{"name": "developer", "value": "Nobody"}]},
	  {"name": "WrongGenre", "ako": "Game", "slots": [{"name": "genre", "value": "puzzle"}]},
	  {"name": "MediumSession", "ako": "Game", "slots": [{"name": "session_length", "value": "medium"}]},
	  {"name": "ConsoleOnly", "ako": "Game", "slots": [{"name": "platform", "value": "Xbox"}]}
	]}`
	knowledge, err := kb.LoadBytes([]byte(doc), kb.FormatJSON,
		kb.WithCatalog("NoCriteria", "WrongGenre", "MediumSession", "ConsoleOnly"))
	require.NoError(t, err)

	e := New(knowledge)
	matches := run(t, e, map[string]string{memory.PrefPC: memory.Yes})
	assert.Equal(t, []string{"ConsoleOnly", "MediumSession"}, gameNames(matches))
	assert.InDelta(t, 0.15/0.35, Compatibility(matches[0]), 1e-9)
	assert.InDelta(t, 0.05/0.15, Compatibility(matches[1]), 1e-9)
}

func TestRecommendations(t *testing.T) {
	e := newEngine(t)
	run(t, e, pcActionGamer)

	recs := e.Recommendations(3)
	require.Len(t, recs, 3)
	assert.Equal(t, types.Recommendation{
		Game:          "Counter-Strike",
		Compatibility: recs[0].Compatibility,
		Platform:      "PC",
		Genre:         "action",
		SessionLength: "short",
	}, recs[0])
	assert.InDelta(t, 1.0, recs[0].Compatibility, 1e-9)
	assert.Equal(t, "Battlefield", recs[1].Game)
	assert.Equal(t, "long", recs[1].SessionLength)

	assert.Len(t, e.Recommendations(0), len(kb.DefaultCatalog))
	assert.Len(t, e.Recommendations(100), len(kb.DefaultCatalog))
}

func TestBestRecommendationBeforeRun(t *testing.T) {
	e := newEngine(t)
	_, ok := e.BestRecommendation()
	assert.False(t, ok)
	assert.Empty(t, e.Recommendations(5))
}

func TestReset(t *testing.T) {
	e := newEngine(t)
	run(t, e, pcActionGamer)
	e.Reset()

	assert.Empty(t, e.Matches())
	assert.Empty(t, e.WorkingMemory().Trace())
	_, ok := e.BestRecommendation()
	assert.False(t, ok)
}

func TestRunCancelled(t *testing.T) {
	e := newEngine(t)
	e.SetUserPreferences(pcActionGamer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches, err := e.Run(ctx)
	assert.Nil(t, matches)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunLeavesKnowledgeUntouched(t *testing.T) {
	e := newEngine(t)
	run(t, e, pcActionGamer)

	cs, _ := e.KnowledgeBase().Frame("Counter-Strike")
	_, ok := cs.Slot(SlotCompatibility)
	assert.False(t, ok)
	_, ok = e.KnowledgeBase().Frame(types.ProtoPrefix + "Counter-Strike")
	assert.False(t, ok, "proto-frames never enter the knowledge base")
}
