package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFlags(0)
	SetVerbose(v)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		SetFlags(log.LstdFlags)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("test message %s", "arg")

	assert.Equal(t, "[DEBUG] test message arg\n", buf.String())
}

func TestDebugAndInfo_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("hidden")
	Info("hidden")
	Section("hidden")

	assert.Zero(t, buf.Len())
}

func TestWarn_AlwaysPrints(t *testing.T) {
	buf := capture(t, false)

	Warn("disk %d", 1)

	assert.Equal(t, "[WARN] disk 1\n", buf.String())
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Search")

	assert.Equal(t, "=== Search ===\n", buf.String())
}
