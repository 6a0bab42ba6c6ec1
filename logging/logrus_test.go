package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/taskloop/corosched/core"
)

func TestLogrus_WritesMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	l := NewLogrus(base)
	l.Info("work completed", core.F("scheduler", "s1"), core.F("attempt", 3))

	out := buf.String()
	require.Contains(t, out, "work completed")
	require.Contains(t, out, `scheduler=s1`)
	require.Contains(t, out, `attempt=3`)
}

func TestLogrus_LevelsMapThrough(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	l := NewLogrus(base)
	l.Debug("dbg")
	l.Warn("wrn")
	l.Error("err")

	out := buf.String()
	for _, want := range []string{"level=debug", "level=warning", "level=error"} {
		require.True(t, strings.Contains(out, want), "expected %q in log output:\n%s", want, out)
	}
}

func TestNewLogrus_NilFallsBackToStandardLogger(t *testing.T) {
	l := NewLogrus(nil)
	var _ core.Logger = l
	require.NotPanics(t, func() { l.Info("no panic on standard logger fallback") })
}
