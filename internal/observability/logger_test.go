package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvents(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var events []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		events = append(events, m)
	}
	return events
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "")

	l.LogPlan("run-1", "organize party", 3, "planner")
	l.LogRetry(1, errors.New("rate limited"))

	events := decodeEvents(t, &buf)
	require.Len(t, events, 2)

	assert.Equal(t, "plan", events[0]["type"])
	assert.Equal(t, "info", events[0]["level"])
	assert.Equal(t, "run-1", events[0]["run_id"])
	data := events[0]["data"].(map[string]any)
	assert.Equal(t, float64(3), data["tasks"])

	assert.Equal(t, "retry", events[1]["type"])
	assert.Equal(t, "warn", events[1]["level"])
}

func TestLogger_LLMEventsGoToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "llm.jsonl")
	var buf bytes.Buffer
	l := NewLogger(&buf, path)

	l.LogLLM("prompt text", "response text")
	l.LogFeedback("not an llm event")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "response text")
}

func TestLogger_RotatesLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm.jsonl")
	l := NewLogger(&bytes.Buffer{}, path)
	l.maxSize = 10

	l.LogLLM("first", "first")
	l.LogLLM("second", "second")

	_, err := os.Stat(path + ".old")
	assert.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "second")
	assert.NotContains(t, string(data), "first")
}

func TestNilLoggerAndStatusAreSafe(t *testing.T) {
	var l *Logger
	l.LogHeartbeat()

	var s *Status
	s.Set(RolePlanner, "x")
	role, _, _ := s.Get()
	assert.Equal(t, RoleIdle, role)
}

func TestStatusLine(t *testing.T) {
	s := NewStatus()
	s.Set(RoleExecutor, "a very long task description that will be cut")

	line := StatusLine(s, time.Now())
	assert.Contains(t, line, "HEALTHY")
	assert.Contains(t, line, "EXECUTOR")
	assert.Contains(t, line, "a very long task descr...")
}

func TestStatusLine_TruncatesOnRunes(t *testing.T) {
	s := NewStatus()
	s.Set(RoleExecutor, strings.Repeat("ü", 30))

	line := StatusLine(s, time.Now())
	assert.True(t, utf8.ValidString(line))
	assert.Contains(t, line, "["+strings.Repeat("ü", 22)+"...]")
}
