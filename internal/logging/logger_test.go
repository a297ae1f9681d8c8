package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests share the package logger and therefore do not run in parallel.

func TestNewLoggerCachesPerComponent(t *testing.T) {
	a := NewLogger("store")
	b := NewLogger("store")
	c := NewLogger("bridge")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "store", a.Data["component"])
	assert.Equal(t, "bridge", c.Data["component"])
}

func TestConfigureJSONWritesComponentField(t *testing.T) {
	t.Setenv("CALLCOMPOSITE_LOG_LEVEL", "")
	require.NoError(t, Configure(Options{Level: "debug", Format: "json", Stderr: "never"}))

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	NewLogger("calling").WithField("action", "StateUpdated").Debug("dispatch")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "calling", line["component"])
	assert.Equal(t, "StateUpdated", line["action"])
	assert.Equal(t, "dispatch", line["msg"])
}

func TestConfigureEnvLevelWins(t *testing.T) {
	t.Setenv("CALLCOMPOSITE_LOG_LEVEL", "warn")
	require.NoError(t, Configure(Options{Level: "debug", Stderr: "never"}))

	assert.Equal(t, logrus.WarnLevel, NewLogger("store").Logger.GetLevel())
}

func TestConfigureRejectsBadLevel(t *testing.T) {
	t.Setenv("CALLCOMPOSITE_LOG_LEVEL", "")
	require.Error(t, Configure(Options{Level: "loud"}))
}

func TestConfigureFileSink(t *testing.T) {
	t.Setenv("CALLCOMPOSITE_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "logs", "callcomposite.log")
	require.NoError(t, Configure(Options{Level: "info", File: path, Stderr: "never"}))
	t.Cleanup(func() { _ = Configure(Options{Stderr: "always"}) })

	NewLogger("history").Info("recorded call")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "component=history"))
	assert.True(t, strings.Contains(string(raw), "recorded call"))
}

func TestToStderrModes(t *testing.T) {
	assert.True(t, toStderr("always", logrus.InfoLevel, true))
	assert.False(t, toStderr("never", logrus.DebugLevel, false))
	assert.True(t, toStderr("auto", logrus.InfoLevel, false))
	assert.True(t, toStderr("auto", logrus.DebugLevel, true))
}
