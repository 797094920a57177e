package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "overstim.toml")

	out, err := execute(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--path", path)
	assert.Error(t, err, "refuses to overwrite")

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "ws://localhost:12345")
}

func TestResponseSetAndTriggers(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := execute(t, "response", "set", "mercy", "elimination", "40% 3s")
	require.NoError(t, err)
	assert.Equal(t, "Mercy Elimination: 40% 3s\n", out)

	_, err = execute(t, "response", "set", "lucio", "assist", "--disable")
	require.NoError(t, err)

	out, err = execute(t, "triggers", "--hero", "mercy")
	require.NoError(t, err)
	assert.Contains(t, out, "40% 3s")
	assert.NotContains(t, out, "Lucio")

	out, err = execute(t, "triggers", "--hero", "lucio")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")

	_, err = execute(t, "response", "reset", "mercy", "elimination")
	require.NoError(t, err)
}

func TestResponseSetRejects(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := execute(t, "response", "set", "mercy", "elimination", "pattern x1: 20% 0s")
	assert.Error(t, err)

	_, err = execute(t, "response", "set", "lucio", "heal_beam", "20% 1s")
	assert.ErrorContains(t, err, "Lucio has no Heal Beam trigger")
}

func TestSubjectSet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := execute(t, "subject", "set", "zenyatta")
	require.NoError(t, err)
	assert.Equal(t, "Hero: Zenyatta\n", out)

	out, err = execute(t, "subject", "set", "auto")
	require.NoError(t, err)
	assert.Equal(t, "Hero: auto-detect\n", out)

	_, err = execute(t, "subject", "set", "tracer")
	assert.Error(t, err)
}

func TestTriggerRows_ConditionalSpan(t *testing.T) {
	rows := triggerRows([]subject.Kind{subject.Lucio}, trigger.DefaultResponses())
	require.Len(t, rows, len(trigger.ForSubject(subject.Lucio)))
	for _, r := range rows {
		if r[1] == trigger.HealingSong.Title() {
			assert.Equal(t, "while active", r[4])
		}
	}
}

func TestMain(m *testing.M) {
	os.Unsetenv("OVERSTIM_WEBSOCKET")
	os.Exit(m.Run())
}
