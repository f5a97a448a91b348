package explain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/frames/internal/inference"
	"github.com/mesh-intelligence/frames/internal/kb"
	"github.com/mesh-intelligence/frames/internal/memory"
)

func newExplainer(t *testing.T, prefs map[string]string) (*Explainer, *inference.Engine) {
	t.Helper()
	knowledge, err := kb.LoadDefault()
	require.NoError(t, err)
	engine := inference.New(knowledge)
	if prefs != nil {
		engine.SetUserPreferences(prefs)
		_, err = engine.Run(context.Background())
		require.NoError(t, err)
	}
	return New(engine), engine
}

var pcActionGamer = map[string]string{
	memory.PrefPC:     memory.Yes,
	memory.PrefAction: memory.Yes,
	memory.PrefOnline: memory.Yes,
	memory.PrefShort:  memory.Yes,
}

func TestCriteriaAgreesWithScoring(t *testing.T) {
	x, _ := newExplainer(t, pcActionGamer)

	report, ok := x.Criteria("Counter-Strike")
	require.True(t, ok)
	assert.InDelta(t, 1.0, report.Compatibility, 1e-9)
	require.Len(t, report.Checks, 4)
	for _, c := range report.Checks {
		assert.True(t, c.Met, c.Criterion)
	}
	assert.Equal(t, []string{"Valorant", "Rainbow Six Siege"}, report.Similar)
	assert.Contains(t, report.Reason, "Platform: PC")

	report, ok = x.Criteria("Halo")
	require.True(t, ok)
	assert.False(t, report.Checks[0].Met, "Xbox game for a PC player")
	assert.True(t, report.Checks[1].Met)

	report, ok = x.Criteria("XCOM")
	require.True(t, ok)
	assert.Len(t, report.Checks, 3, "no online check when the game declares none")
	assert.True(t, report.Checks[0].Met, "multiplatform matches")
}

func TestExplainRecommendation(t *testing.T) {
	x, _ := newExplainer(t, pcActionGamer)

	text := x.ExplainRecommendation("Battlefield")
	assert.Contains(t, text, "Why 'Battlefield' was recommended")
	assert.Contains(t, text, "Compatibility: 90.0%")
	assert.Contains(t, text, "Platform: the game is for 'PC', you have 'PC' ✓")
	assert.Contains(t, text, "Session length: the game suits 'long' sessions, you prefer short ones ✗")
	assert.Contains(t, text, "Online: access is required, you have access ✓")
	assert.Contains(t, text, "Similar games:\n  Call of Duty, Titanfall 2")

	assert.Equal(t, "Game 'Tetris' was not found among the recommendations.", x.ExplainRecommendation("Tetris"))
}

func TestExplainRecommendationBeforeRun(t *testing.T) {
	x, _ := newExplainer(t, nil)
	assert.Contains(t, x.ExplainRecommendation("Halo"), "not found")
}

func TestSlotInheritanceLocal(t *testing.T) {
	x, _ := newExplainer(t, nil)

	report := x.SlotInheritance("Counter-Strike", kb.SlotPlatform)
	assert.True(t, report.Local)
	assert.Empty(t, report.Chain)
	assert.Equal(t, "PC", report.Value)

	text := x.ExplainSlotInheritance("Counter-Strike", kb.SlotPlatform)
	assert.Contains(t, text, "1. Local value: PC")
	assert.NotContains(t, text, "AKO chain")
}

func TestSlotInheritanceChain(t *testing.T) {
	x, _ := newExplainer(t, nil)

	report := x.SlotInheritance("Skyrim", kb.SlotGenre)
	assert.False(t, report.Local)
	require.Len(t, report.Chain, 1)
	assert.Equal(t, Source{Frame: "RPG", Value: "RPG"}, report.Chain[0])
	assert.True(t, report.Found)
	assert.Equal(t, "RPG", report.Value)

	text := x.ExplainSlotInheritance("Skyrim", kb.SlotGenre)
	assert.Contains(t, text, "1. From 'RPG': RPG")
	assert.Contains(t, text, "Final value: RPG")
}

func TestSlotInheritanceFinalValueIsFarthest(t *testing.T) {
	doc := `{"frames": [
	  {"name": "Base", "slots": [{"name": "color", "value": "far"}]},
	  {"name": "Middle", "ako": "Base", "slots": [{"name": "color", "value": "near"}]},
	  {"name": "Leaf", "ako": "Middle"}
	]}`
	knowledge, err := kb.LoadBytes([]byte(doc), kb.FormatJSON, kb.WithCatalog())
	require.NoError(t, err)
	x := New(inference.New(knowledge))

	report := x.SlotInheritance("Leaf", "color")
	assert.Equal(t, []Source{{"Middle", "near"}, {"Base", "far"}}, report.Chain)
	assert.True(t, report.Found)
	assert.Equal(t, "far", report.Value)

	text := x.ExplainSlotInheritance("Leaf", "color")
	assert.Contains(t, text, "  1. From 'Middle': near")
	assert.Contains(t, text, "  2. From 'Base': far")
	assert.Contains(t, text, "Final value: far")
}

func TestSlotInheritanceComputed(t *testing.T) {
	x, _ := newExplainer(t, nil)

	report := x.SlotInheritance("Player", kb.SlotPlatform)
	assert.True(t, report.Computed)
	assert.Equal(t, kb.DefaultPlatform, report.Value)
}

func TestSlotInheritanceMissing(t *testing.T) {
	x, _ := newExplainer(t, nil)

	report := x.SlotInheritance("Halo", "soundtrack")
	assert.True(t, report.Exists)
	assert.False(t, report.Found)
	assert.Contains(t, x.ExplainSlotInheritance("Halo", "soundtrack"), "No value was found")

	assert.Equal(t, "Frame 'Nope' was not found in the knowledge base.", x.ExplainSlotInheritance("Nope", "genre"))
}

func TestHierarchy(t *testing.T) {
	x, _ := newExplainer(t, nil)

	levels, ok := x.Hierarchy("Skyrim")
	require.True(t, ok)
	assert.Equal(t, []HierarchyLevel{{0, "Skyrim"}, {1, "RPG"}, {2, "Game"}}, levels)
	assert.Equal(t, "Hierarchy of frame 'Skyrim':\n• Skyrim\n  • RPG\n    • Game\n", x.ExplainFrameHierarchy("Skyrim"))

	levels, ok = x.Hierarchy("Game")
	require.True(t, ok)
	assert.Equal(t, []HierarchyLevel{{0, "Game"}}, levels)

	_, ok = x.Hierarchy("Nope")
	assert.False(t, ok)
	assert.Contains(t, x.ExplainFrameHierarchy("Nope"), "not found")
}

func TestDetailedTrace(t *testing.T) {
	x, _ := newExplainer(t, nil)
	assert.Equal(t, "The inference trace is empty.", x.DetailedTrace())

	x, _ = newExplainer(t, pcActionGamer)
	text := x.DetailedTrace()
	assert.Contains(t, text, "1. SET_PREFERENCES: System")
	assert.Contains(t, text, "• has_pc: да")
	assert.Contains(t, text, "2. ADD_PROTO_FRAME: Proto_Counter-Strike")
	assert.Contains(t, text, "FRAME_MATCH: Proto_Counter-Strike")
	assert.Contains(t, text, "• genre_match: true")
}

func TestExplainProcess(t *testing.T) {
	x, _ := newExplainer(t, nil)
	assert.Contains(t, x.ExplainProcess(), "Inference has not run yet.")

	x, engine := newExplainer(t, pcActionGamer)
	s := x.Summary()
	assert.True(t, s.PreferencesSet)
	assert.Equal(t, len(kb.DefaultCatalog), s.ProtoFrames)
	assert.Equal(t, len(engine.Matches()), s.Matches)

	text := x.ExplainProcess()
	assert.Contains(t, text, "13 proto-frames were created")
	assert.Contains(t, text, "Best match: Counter-Strike")
}
