package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/frames/pkg/types"
)

func TestNormalizePreferences(t *testing.T) {
	got := NormalizePreferences(map[string]string{
		PrefPC:       Yes,
		PrefAction:   "yes",
		PrefOnline:   "no",
		PrefXbox:     "maybe",
		"likes_jazz": Yes,
	})

	require.Len(t, got, len(PreferenceKeys))
	assert.Equal(t, Yes, got[PrefPC])
	assert.Equal(t, Yes, got[PrefAction], "ASCII yes is accepted")
	assert.Equal(t, No, got[PrefOnline])
	assert.Equal(t, No, got[PrefXbox], "anything else is no")
	assert.Equal(t, No, got[PrefShort], "missing keys default to no")
	assert.NotContains(t, got, "likes_jazz")
}

func TestSetPreferencesTraces(t *testing.T) {
	wm := New()
	wm.SetPreferences(map[string]string{PrefPC: Yes})

	assert.Equal(t, Yes, wm.Preference(PrefPC))
	assert.Equal(t, No, wm.Preference(PrefRPG))

	trace := wm.Trace()
	require.Len(t, trace, 1)
	assert.Equal(t, types.ActionSetPreferences, trace[0].Action)
	assert.Equal(t, "System", trace[0].Frame)
	prefs, ok := trace[0].Details["preferences"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, Yes, prefs[PrefPC])
}

func TestPreferencesReturnsCopy(t *testing.T) {
	wm := New()
	wm.SetPreferences(map[string]string{PrefPC: Yes})
	p := wm.Preferences()
	p[PrefPC] = No
	assert.Equal(t, Yes, wm.Preference(PrefPC))
}

func TestFramesAndTrace(t *testing.T) {
	wm := New()
	game := types.NewFrame("Halo")
	proto := game.CreateInstance()

	wm.AddExoFrame(game)
	wm.AddProtoFrame(proto)
	wm.AddTrace(types.ActionFrameMatch, proto.Name(), map[string]any{"compatibility": 0.8})

	require.Len(t, wm.ProtoFrames(), 1)
	assert.Same(t, proto, wm.ProtoFrames()[0])
	assert.Same(t, game, wm.ExoFrames()[0])
	assert.Equal(t, 1, wm.CountAction(types.ActionAddProtoFrame))
	assert.Equal(t, 1, wm.CountAction(types.ActionFrameMatch))
	assert.Equal(t, 0, wm.CountAction(types.ActionSetPreferences))

	frames := wm.ProtoFrames()
	frames[0] = nil
	assert.Same(t, proto, wm.ProtoFrames()[0], "callers get copies")
}

func TestClear(t *testing.T) {
	wm := New()
	wm.SetPreferences(map[string]string{PrefPC: Yes})
	wm.AddProtoFrame(types.NewFrame("Proto_X"))
	wm.Clear()

	assert.Empty(t, wm.Preferences())
	assert.Empty(t, wm.ProtoFrames())
	assert.Empty(t, wm.ExoFrames())
	assert.Empty(t, wm.Trace())
	assert.Equal(t, No, wm.Preference(PrefPC))
}
