package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/metadex/internal/config"
	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
)

const teleportSource = `package demo;

// <--[command]
// @name teleport
// @syntax teleport [<entity>|...] [<location>]
// @short Teleports the player.
// @group entity
// @usage
// - teleport <player> spawn
// -->
class Teleport {}

// <--[command]
// @name narrate
// @syntax narrate [<text>]
// @short Shows some text to the player.
// @group player
// -->
class Narrate {}
`

// setup writes a config whose only source is a local directory holding
// two commands.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Commands.java"), []byte(teleportSource), 0o644))

	cfg := "meta:\n" +
		"  work_dir: " + filepath.Join(dir, "git") + "\n" +
		"  report_path: " + filepath.Join(dir, "reload.log") + "\n" +
		"  repositories:\n" +
		"    - path: " + src + "\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

// execute runs the root command with fresh flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, logLevel = "", ""
	listOnly, interactive, jsonOutput = false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
	assert.Contains(t, out, "Commit:")
}

func TestSearch_Exact(t *testing.T) {
	path := setup(t)

	out, err := execute(t, "--config", path, "search", "command", "teleport", "--json")
	require.NoError(t, err)

	var ans struct {
		Kind  lookup.Kind `json:"kind"`
		Type  string      `json:"type"`
		Pages []struct {
			Title string `json:"title"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ans))
	assert.Equal(t, lookup.KindRecord, ans.Kind)
	assert.Equal(t, "command", ans.Type)
	require.NotEmpty(t, ans.Pages)
}

func TestSearch_Rendered(t *testing.T) {
	path := setup(t)

	out, err := execute(t, "--config", path, "search", "command", "tele")
	require.NoError(t, err)
	assert.Contains(t, out, "teleport")
	assert.Contains(t, out, "Teleports the player.")
}

func TestSearch_NoResults(t *testing.T) {
	path := setup(t)

	out, err := execute(t, "--config", path, "search", "command", "zzzzzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No commands were found matching the specified input.")
}

func TestSearch_UnknownType(t *testing.T) {
	path := setup(t)

	_, err := execute(t, "--config", path, "search", "spell", "fire")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	path := setup(t)

	out, err := execute(t, "--config", path, "list", "command")
	require.NoError(t, err)
	assert.Contains(t, out, "All known commands")
	assert.Contains(t, out, "teleport")
	assert.Contains(t, out, "narrate")
}

func TestTypes(t *testing.T) {
	path := setup(t)

	out, err := execute(t, "--config", path, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "TYPE")
	assert.Regexp(t, `command\s+2\s+name, required, group`, out)
	assert.Regexp(t, `event\s+0`, out)
}

func TestDescribeTypes(t *testing.T) {
	types := describeTypes(meta.NewBuiltinRegistry())
	require.Len(t, types, 6)
	assert.Equal(t, "command", types[0].Type)

	var event typeSummary
	for _, ts := range types {
		if ts.Type == meta.TypeEvent {
			event = ts
		}
	}
	assert.Contains(t, event.Fields, "events")
	assert.NotContains(t, event.Fields, "regex", "hidden fields are not listed")
}

func TestReload(t *testing.T) {
	path := setup(t)

	out, err := execute(t, "--config", path, "reload")
	require.NoError(t, err)
	assert.Contains(t, out, "Reloaded 2 records from 1 files")
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "reload.log"))
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "types")
	assert.Error(t, err)
}

func TestWatchRoots(t *testing.T) {
	a := &app{cfg: config.Default()}
	a.cfg.Meta.Repositories = []config.RepositoryConfig{
		{URL: "https://github.com/example/repo.git"},
		{Path: "/srv/meta"},
	}
	assert.Nil(t, watchRoots(a))

	a.cfg.Reload.Watch = true
	assert.Equal(t, []string{"/srv/meta"}, watchRoots(a))
}
