package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gaintune/internal/config"
	"github.com/san-kum/gaintune/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestResolveConfigLayers(t *testing.T) {
	root := newRootCmd()
	tune, _, err := root.Find([]string{"tune"})
	require.NoError(t, err)
	require.NoError(t, tune.ParseFlags([]string{"--preset", "quick", "--max-trials", "7", "--seed", "9"}))

	cfg, err := resolveConfig(tune, nil)
	require.NoError(t, err)
	assert.Equal(t, "servo", cfg.Plant)
	assert.Equal(t, 7, cfg.Tuner.MaxTrials)
	assert.Equal(t, 1, cfg.Tuner.TrialsPerCandidate, "preset value kept when flag not set")
	assert.Equal(t, int64(9), cfg.Seed)
}

func TestResolveConfigPlantDefaults(t *testing.T) {
	root := newRootCmd()
	tune, _, err := root.Find([]string{"tune"})
	require.NoError(t, err)

	cfg, err := resolveConfig(tune, []string{"spring_mass"})
	require.NoError(t, err)
	assert.Equal(t, "spring_mass", cfg.Plant)
	assert.Equal(t, 50.0, cfg.PlantParams.Target)

	_, err = resolveConfig(tune, []string{"rocket"})
	assert.Error(t, err)
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := config.DefaultConfig()
	cfg.Tuner.MaxTrials = 12
	cfg.PID.AntiWindup = true
	require.NoError(t, config.Save(path, cfg))

	root := newRootCmd()
	tune, _, err := root.Find([]string{"tune"})
	require.NoError(t, err)
	require.NoError(t, tune.ParseFlags([]string{"--config", path}))

	got, err := resolveConfig(tune, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Tuner.MaxTrials)
	assert.True(t, got.PID.AntiWindup)
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "WARN", "error"} {
		_, err := parseLevel(s)
		assert.NoError(t, err, s)
	}
	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestTuneAndInspect(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "tune", "--data", dir, "--max-trials", "2", "--averaging", "1", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "run id: run_")
	assert.Contains(t, out, "trials: 3")

	runs, err := storage.New(dir).List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "servo", runs[0].Plant)
	assert.Equal(t, 3, runs[0].Trials)
	require.NotNil(t, runs[0].Best)

	out, err = execute(t, "runs", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, runs[0].ID)

	out, err = execute(t, "show", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "run: "+runs[0].ID)
	assert.Contains(t, out, "trials: 3")

	svg := filepath.Join(dir, "chart.svg")
	out, err = execute(t, "show", runs[0].ID, "--data", dir, "--svg", svg)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+svg)
	assert.FileExists(t, svg)

	_, err = execute(t, "show", "run_missing", "--data", dir)
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
}

func TestListings(t *testing.T) {
	out, err := execute(t, "plants")
	require.NoError(t, err)
	for _, name := range []string{"servo", "pendulum", "spring_mass"} {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, "presets", "pendulum")
	require.NoError(t, err)
	assert.Contains(t, out, "lift")
	assert.Contains(t, out, "horizon")

	out, err = execute(t, "presets", "rocket")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "no presets"))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaintune.yaml")
	_, err := execute(t, "init-config", path, "--preset", "spring_mass/chain")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "spring_mass", cfg.Plant)
	assert.Equal(t, 3.0, cfg.ModelParams["masses"])

	_, err = execute(t, "init-config", path, "--preset", "chain")
	assert.Error(t, err)
}
