package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/pml/pkg/config"
	"github.com/YuminosukeSato/pml/pkg/log"
)

func fakeClock(t *Table, times ...time.Time) {
	i := 0
	t.now = func() time.Time {
		ts := times[i]
		if i < len(times)-1 {
			i++
		}
		return ts
	}
}

func TestStartStopSameFunction(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	logs, restore := log.CaptureLogs(log.LevelDebug)
	t.Cleanup(restore)

	table := NewTable()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fakeClock(table, base, base.Add(1500*time.Millisecond))

	table.Start("starting CV")
	assert.Len(t, table.Pending(), 1)

	msg := table.Stop("done CV")
	assert.Equal(t, "done CV, took: 1.5s", msg)
	assert.Empty(t, table.Pending())
	assert.Equal(t, []string{"starting CV", "done CV, took: 1.5s"}, logs.Messages())
	assert.True(t, logs.ContainsField(log.DurationMsKey, 1500.0))
}

func TestCallerIDDefaultsToFunctionName(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	table := NewTable()
	table.Start("x")
	pending := table.Pending()
	require.Len(t, pending, 1)
	assert.Contains(t, pending[0], "TestCallerIDDefaultsToFunctionName")
}

func TestStopUnknownID(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	_, restore := log.CaptureLogs(log.LevelDebug)
	t.Cleanup(restore)

	msg := NewTable().Stop("done", WithID("never-started"))
	assert.Equal(t, "done, took: unknown", msg)
}

func TestDisabledWithoutDebug(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	config.Set(func(c *config.Config) { c.Debug = false })
	logs, restore := log.CaptureLogs(log.LevelDebug)
	t.Cleanup(restore)

	table := NewTable()
	table.Start("quiet", WithID("a"))
	assert.Empty(t, table.Pending())
	assert.Equal(t, "", table.Stop("quiet", WithID("a")))

	Debug("hidden")
	Dbg("hidden", 1)
	assert.Empty(t, logs.Messages())

	table.Start("forced", WithID("b"), Force())
	assert.Equal(t, []string{"b"}, table.Pending())
	assert.NotEmpty(t, table.Stop("forced", WithID("b"), Force()))
}

func TestExplicitIDsInterleave(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	_, restore := log.CaptureLogs(log.LevelDebug)
	t.Cleanup(restore)

	table := NewTable()
	table.Start("outer", WithID("outer"))
	table.Start("inner", WithID("inner"))
	assert.Equal(t, []string{"inner", "outer"}, table.Pending())

	table.Stop("inner done", WithID("inner"))
	assert.Equal(t, []string{"outer"}, table.Pending())
}

func TestCancelForgetsID(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	logs, restore := log.CaptureLogs(log.LevelDebug)
	t.Cleanup(restore)

	table := NewTable()
	table.Start("loading")
	table.Start("other", WithID("other"))
	require.Len(t, table.Pending(), 2)

	table.Cancel()
	assert.Equal(t, []string{"other"}, table.Pending())
	assert.Equal(t, []string{"loading", "other"}, logs.Messages(), "cancel does not log")

	table.Cancel(WithID("missing"))
	assert.Equal(t, []string{"other"}, table.Pending())
}

func TestDbgAndIndent(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	config.Set(func(c *config.Config) { c.Indent = 1 })
	logs, restore := log.CaptureLogs(log.LevelDebug)
	t.Cleanup(restore)

	Dbg("best", map[string]int{"max_depth": 3}, 0.5)
	Debug("plain")
	assert.Equal(t, []string{"  best map[max_depth:3] 0.5", "  plain"}, logs.Messages())
}

func TestPackageLevelPair(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)
	_, restore := log.CaptureLogs(log.LevelDebug)
	t.Cleanup(restore)

	Start("loading")
	msg := Stop("loaded")
	assert.Contains(t, msg, "loaded, took: ")
	assert.NotContains(t, msg, "unknown")
}
