package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/frames/internal/explain"
	"github.com/mesh-intelligence/frames/pkg/types"
)

// env is an isolated config and data directory pair.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	return env{configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
}

// exec runs the CLI with the env directories and returns the exit code,
// stdout and stderr.
func (e env) exec(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := run(NewRootCmd(), full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (e env) execJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	code, out, errOut := e.exec(t, append([]string{"--json"}, args...)...)
	require.Equal(t, exitSuccess, code, errOut)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

var pcActionFlags = []string{"recommend", "--pc", "--action", "--online", "--short-sessions"}

func TestVersion(t *testing.T) {
	code, out, _ := newEnv(t).exec(t, "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "frames v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestExitCodes(t *testing.T) {
	e := newEnv(t)

	code, _, errOut := e.exec(t, "nosuchcommand")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "Error:")

	code, _, _ = e.exec(t, "recommend", "--pref", "likes_chess=да")
	assert.Equal(t, exitUserError, code)

	code, _, _ = e.exec(t, "recommend", "--pref", "has_pc=maybe")
	assert.Equal(t, exitUserError, code)

	code, _, _ = e.exec(t, "recommend", "--pref", "has_pc")
	assert.Equal(t, exitUserError, code)

	code, _, _ = e.exec(t, "recommend", "--pc", "--limit", "0")
	assert.Equal(t, exitUserError, code)

	code, _, errOut = e.exec(t, "--knowledge", filepath.Join(t.TempDir(), "absent.yaml"), "frames")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "knowledge file not found")
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitSysError, exitCode(sysError(os.ErrPermission)))
	assert.Equal(t, exitUserError, exitCode(types.ErrLimitInvalid))
}

func TestMalformedKnowledgeIsUserError(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frames: ["), 0o644))

	code, _, errOut := e.exec(t, "--knowledge", path, "frames")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "malformed")
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	code, out, errOut := e.exec(t, "init")
	require.Equal(t, exitSuccess, code, errOut)
	assert.Contains(t, out, "config.yaml")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.DirExists(t, e.dataDir)

	code, _, _ = e.exec(t, "init")
	assert.Equal(t, exitSuccess, code, "init is repeatable")
}

func TestRecommendText(t *testing.T) {
	e := newEnv(t)
	code, out, errOut := e.exec(t, pcActionFlags...)
	require.Equal(t, exitSuccess, code, errOut)

	assert.Contains(t, out, "1. Counter-Strike (compatibility: 100.0%)")
	assert.Contains(t, out, "2. Battlefield (compatibility: 90.0%)")
	assert.NotContains(t, out, "6. ", "the default limit lists five games")
	assert.Contains(t, out, "Best pick: Counter-Strike")
	assert.Contains(t, out, "Why 'Counter-Strike' was recommended")
	assert.Contains(t, out, "Run: ")
}

func TestRecommendJSON(t *testing.T) {
	e := newEnv(t)
	var got recommendJSON
	e.execJSON(t, &got, append(pcActionFlags, "--limit", "3")...)

	assert.Equal(t, "PC", got.Platform)
	assert.Equal(t, []string{"action"}, got.Genres)
	assert.Equal(t, "Counter-Strike", got.Best)
	require.Len(t, got.Recommendations, 3)
	assert.Equal(t, "Halo", got.Recommendations[2].Game)
	require.NotNil(t, got.Explanation)
	assert.InDelta(t, 1.0, got.Explanation.Compatibility, 1e-9)
	assert.NotEmpty(t, got.RunID)
}

func TestRecommendPrefPairs(t *testing.T) {
	e := newEnv(t)
	var flags, pairs recommendJSON
	e.execJSON(t, &flags, "recommend", "--xbox", "--rpg")
	e.execJSON(t, &pairs, "recommend", "--pref", "has_xbox=да", "--pref", "likes_rpg=yes")
	assert.Equal(t, flags.Recommendations, pairs.Recommendations)

	var overridden recommendJSON
	e.execJSON(t, &overridden, "recommend", "--pc", "--pref", "has_pc=no")
	assert.Equal(t, "unknown", overridden.Platform, "a --pref pair wins over the flag")
}

func TestHistory(t *testing.T) {
	e := newEnv(t)

	code, out, _ := e.exec(t, "history")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "No runs recorded.")

	var first, second recommendJSON
	e.execJSON(t, &first, pcActionFlags...)
	e.execJSON(t, &second, "recommend", "--xbox", "--rpg")

	var runs []*types.Run
	e.execJSON(t, &runs, "history")
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID, "newest first")
	assert.Equal(t, first.RunID, runs[1].RunID)

	e.execJSON(t, &runs, "history", "--limit", "1")
	assert.Len(t, runs, 1)

	var run types.Run
	e.execJSON(t, &run, "history", first.RunID)
	assert.Equal(t, "Counter-Strike", run.Best)
	assert.Len(t, run.Recommendations, 13, "every match is journaled, not only the listed ones")
	assert.NotEmpty(t, run.Trace)
	assert.Equal(t, "да", run.Preferences["has_pc"])

	code, out, _ = e.exec(t, "history", first.RunID)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "1. Counter-Strike (compatibility: 100.0%)")

	code, _, _ = e.exec(t, "history", "not-a-uuid")
	assert.Equal(t, exitUserError, code)
	code, _, _ = e.exec(t, "history", "01890a5d-ac96-774b-bcce-b302099a8057")
	assert.Equal(t, exitUserError, code)
}

func TestJournalDisabled(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte("journal: false\nlimit: 2\n"), 0o644))

	var got recommendJSON
	e.execJSON(t, &got, pcActionFlags...)
	assert.Empty(t, got.RunID)
	assert.Len(t, got.Recommendations, 2, "limit comes from config.yaml")

	var runs []*types.Run
	e.execJSON(t, &runs, "history")
	assert.Empty(t, runs)
}

func TestInvalidConfigLimit(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte("limit: -1\n"), 0o644))

	code, _, errOut := e.exec(t, "frames")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "config:")
}

func TestFrames(t *testing.T) {
	e := newEnv(t)

	var catalog []frameJSON
	e.execJSON(t, &catalog, "frames", "--catalog")
	require.Len(t, catalog, 13)
	for _, f := range catalog {
		assert.True(t, f.Catalog, f.Name)
		assert.NotEmpty(t, f.Parent, f.Name)
	}

	code, out, _ := e.exec(t, "frames")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Skyrim -> RPG  [catalog]")

	var values map[string]any
	e.execJSON(t, &values, "frames", "Counter-Strike")
	assert.Equal(t, "PC", values["platform"])

	code, _, _ = e.exec(t, "frames", "Tetris")
	assert.Equal(t, exitUserError, code)
}

func TestExplainGame(t *testing.T) {
	e := newEnv(t)
	args := []string{"explain", "game", "Battlefield", "--pc", "--action", "--online", "--short-sessions"}

	code, out, errOut := e.exec(t, args...)
	require.Equal(t, exitSuccess, code, errOut)
	assert.Contains(t, out, "Compatibility: 90.0%")

	var report explain.CriteriaReport
	e.execJSON(t, &report, args...)
	assert.Equal(t, "Battlefield", report.Game)
	assert.Equal(t, []string{"Call of Duty", "Titanfall 2"}, report.Similar)

	code, out, _ = e.exec(t, "explain", "game", "Tetris", "--pc")
	assert.Equal(t, exitSuccess, code, "an unmatched game is reported, not failed")
	assert.Contains(t, out, "Game 'Tetris' was not found among the recommendations.")

	var missing map[string]any
	e.execJSON(t, &missing, "explain", "game", "Tetris", "--pc")
	assert.Equal(t, false, missing["found"])
}

func TestExplainSlotAndHierarchy(t *testing.T) {
	e := newEnv(t)

	code, out, _ := e.exec(t, "explain", "hierarchy", "Skyrim")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "Hierarchy of frame 'Skyrim':\n• Skyrim\n  • RPG\n    • Game\n", out)

	var report explain.InheritanceReport
	e.execJSON(t, &report, "explain", "slot", "Skyrim", "genre")
	assert.False(t, report.Local)
	assert.Equal(t, "RPG", report.Value)

	code, _, _ = e.exec(t, "explain", "slot", "Nope", "genre")
	assert.Equal(t, exitUserError, code)
	code, _, _ = e.exec(t, "explain", "hierarchy", "Nope")
	assert.Equal(t, exitUserError, code)
}

func TestExplainTraceAndProcess(t *testing.T) {
	e := newEnv(t)

	var trace []types.TraceEntry
	e.execJSON(t, &trace, "explain", "trace", "--pc", "--action")
	require.NotEmpty(t, trace)
	assert.Equal(t, types.ActionSetPreferences, trace[0].Action)

	var summary explain.ProcessSummary
	e.execJSON(t, &summary, "explain", "process", "--pc", "--action")
	assert.True(t, summary.PreferencesSet)
	assert.Equal(t, 13, summary.ProtoFrames)

	code, out, _ := e.exec(t, "explain", "process", "--pc")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "13 proto-frames were created")
}
