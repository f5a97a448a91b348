package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// framesBin is the binary built by TestMain.
var framesBin string

// TestMain builds the frames binary once so exit codes are observed from a
// real process.
func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "frames-test-*")
	if err != nil {
		os.Exit(1)
	}
	framesBin = filepath.Join(tmpDir, "frames")

	cmd := exec.Command("go", "build", "-o", framesBin, ".")
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Stderr.Write(output)
		os.RemoveAll(tmpDir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

type result struct {
	stdout   string
	stderr   string
	exitCode int
}

func runFrames(t *testing.T, dataDir string, args ...string) result {
	t.Helper()
	all := append([]string{"--config-dir", filepath.Join(t.TempDir(), "config"), "--data-dir", dataDir}, args...)
	cmd := exec.Command(framesBin, all...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		require.True(t, errors.As(err, &exitErr), "run frames: %v", err)
		code = exitErr.ExitCode()
	}
	return result{stdout.String(), stderr.String(), code}
}

func TestBinaryRecommend(t *testing.T) {
	dataDir := t.TempDir()
	res := runFrames(t, dataDir, "--json", "recommend", "--pc", "--action", "--online", "--short-sessions")
	require.Equal(t, 0, res.exitCode, res.stderr)

	var out struct {
		Best  string `json:"best"`
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, "Counter-Strike", out.Best)
	assert.FileExists(t, filepath.Join(dataDir, "runs.jsonl"))
}

func TestBinaryExitCodes(t *testing.T) {
	res := runFrames(t, t.TempDir(), "recommend", "--pref", "likes_chess=да")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "unknown preference")

	// A data directory that is a regular file cannot hold the journal.
	blocked := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))
	res = runFrames(t, blocked, "recommend", "--pc")
	assert.Equal(t, 2, res.exitCode)
	assert.Contains(t, res.stderr, "open journal")
}

func TestBinaryVersion(t *testing.T) {
	res := runFrames(t, t.TempDir(), "version")
	require.Equal(t, 0, res.exitCode)
	assert.Contains(t, res.stdout, "frames v")
}
