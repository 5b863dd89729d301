package telemetry

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	tab := NewTable()
	tab.PutNumber("tuner/trial", 4)
	tab.PutString("tuner/phase", "running")
	tab.PutBool("tuner/tuning", true)

	assert.Equal(t, 4.0, tab.GetNumber("tuner/trial"))
	assert.Equal(t, "running", tab.GetString("tuner/phase"))
	assert.True(t, tab.GetBool("tuner/tuning"))
	assert.Equal(t, []string{"tuner/phase", "tuner/trial", "tuner/tuning"}, tab.Keys())

	v, ok := tab.Get("tuner/trial")
	require.True(t, ok)
	assert.Equal(t, "4", v.String())
	_, ok = tab.Get("missing")
	assert.False(t, ok)

	snap := tab.Snapshot()
	tab.PutNumber("tuner/trial", 5)
	assert.Equal(t, 4.0, snap["tuner/trial"].Number)
}

func TestEntryAsChannel(t *testing.T) {
	tab := NewTable()
	e := tab.Entry("SuggestedGains")

	assert.Empty(t, e.Read())
	tab.PutString("SuggestedGains", "0.1,0,0")
	assert.Equal(t, "0.1,0,0", e.Read())
	e.Write("")
	assert.Empty(t, tab.GetString("SuggestedGains"))
}

func TestMultiAndFilter(t *testing.T) {
	a, b := NewTable(), NewTable()
	onlyTuner := Filter{Sink: b, Allow: func(k string) bool { return strings.HasPrefix(k, "tuner/") }}
	m := Multi{a, onlyTuner}

	m.PutNumber("tuner/error", 2.5)
	m.PutNumber("pid/Kp", 0.01)
	m.PutBool("tuner/tuning", true)
	m.PutString("tuner/phase", "running")

	assert.Len(t, a.Keys(), 4)
	assert.Equal(t, []string{"tuner/error", "tuner/phase", "tuner/tuning"}, b.Keys())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewLogSink(logger, slog.LevelDebug)

	s.PutNumber("tuner/error", 1.5)
	s.PutString("tuner/phase", "running")

	out := buf.String()
	assert.Contains(t, out, "key=tuner/error value=1.5")
	assert.Contains(t, out, "key=tuner/phase value=running")
}

func TestPromSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPromSink(reg)

	s.PutNumber("tuner/best_duration", 120)
	s.PutBool("tuner/tuning", true)
	s.PutString("tuner/phase", "running")
	s.PutString("tuner/phase", "evaluating")

	assert.Equal(t, 120.0, testutil.ToFloat64(s.values.WithLabelValues("tuner/best_duration")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.values.WithLabelValues("tuner/tuning")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.info))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.info.WithLabelValues("tuner/phase", "evaluating")))

	s.PutBool("tuner/tuning", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(s.values.WithLabelValues("tuner/tuning")))
}

func TestFileChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.txt")
	c, err := NewFileChannel(path, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Empty(t, c.Read())

	require.NoError(t, os.WriteFile(path, []byte(" 0.2, 0.01, 0.1\n"), 0644))
	assert.Eventually(t, func() bool { return c.Read() == "0.2, 0.01, 0.1" }, 2*time.Second, 10*time.Millisecond)

	c.Write("invalid values: field 2 is empty")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "invalid values: field 2 is empty\n", string(data))
	assert.Equal(t, "invalid values: field 2 is empty", c.Read())

	c.Write("")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestFileChannelKeepsOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.txt")
	c, err := NewFileChannel(path, nil)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte("1,,2\n"), 0644))
		require.Eventually(t, func() bool { return c.Read() == "1,,2" }, 2*time.Second, 5*time.Millisecond)

		msg := "invalid values: field 2 is empty"
		c.Write(msg)
		assert.Never(t, func() bool { return c.Read() != msg }, 100*time.Millisecond, 5*time.Millisecond,
			"value lost after write %d", i)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary files left behind")
	}
}

func TestFileChannelReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "override.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("1,0,0"), 0644))

	c, err := NewFileChannel(path, nil)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "1,0,0", c.Read())
}
