package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferedLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: "test", Output: &buf}), &buf
}

func TestLogger_SuppressesBelowLevel(t *testing.T) {
	l, buf := newBufferedLogger(WARN)
	l.Info("should not appear")
	assert.Empty(t, buf.String())

	l.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestLogger_IncludesComponentAndFields(t *testing.T) {
	l, buf := newBufferedLogger(DEBUG)
	l.Info("starting", String("name", "logger"), Int("count", 3))

	out := buf.String()
	assert.Contains(t, out, "test")
	assert.Contains(t, out, "starting")
	assert.Contains(t, out, `name="logger"`)
	assert.Contains(t, out, "count=3")
}

func TestLogger_WithCreatesScopedSubcomponent(t *testing.T) {
	l, buf := newBufferedLogger(DEBUG)
	sub := l.With("scheduler")
	sub.Info("worker started")

	assert.Contains(t, buf.String(), "scheduler")
}

func TestErr_WrapsErrorUnderErrorKey(t *testing.T) {
	l, buf := newBufferedLogger(DEBUG)
	l.Error("failed", Err(assertErr("boom")))

	assert.True(t, strings.Contains(buf.String(), `error="boom"`))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestDefault_UsesStdoutAndInfoLevel(t *testing.T) {
	l := Default("component")
	assert.NotNil(t, l)
}
