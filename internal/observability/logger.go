package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan        EventType = "plan"
	EventTypeStep        EventType = "step"
	EventTypeFeedback    EventType = "feedback"
	EventTypeToolCall    EventType = "tool_call"
	EventTypeToolResult  EventType = "tool_result"
	EventTypePolicyCheck EventType = "policy_check"
	EventTypeRetry       EventType = "retry"
	EventTypeHeartbeat   EventType = "heartbeat"
	EventTypeLLM         EventType = "llm"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	Level     Level     `json:"level"`
	RunID     string    `json:"run_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger writes one JSON event per line. LLM events are also appended to a
// jsonl file when llmLogPath is set.
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

func NewLogger(out io.Writer, llmLogPath string) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		out:        out,
		llmLogPath: llmLogPath,
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewLogger(io.Discard, "")
}

func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.Level == "" {
		evt.Level = LevelInfo
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": "failed to marshal event: %v"}`, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(append(data, '\n'))

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

// keep one .old file
func (l *Logger) rotateLogs() {
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

func (l *Logger) LogPlan(runID, query string, taskCount int, source string) {
	l.Log(Event{
		Type:  EventTypePlan,
		RunID: runID,
		Data: map[string]any{
			"query":  query,
			"tasks":  taskCount,
			"source": source,
		},
	})
}

func (l *Logger) LogStep(runID, taskID, node string, cursor, iterations int) {
	l.Log(Event{
		Type:   EventTypeStep,
		RunID:  runID,
		TaskID: taskID,
		Data: map[string]any{
			"node":       node,
			"cursor":     cursor,
			"iterations": iterations,
		},
	})
}

func (l *Logger) LogHalt(runID, reason string, iterations int) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Data: map[string]any{
			"node":       "end",
			"halt":       reason,
			"iterations": iterations,
		},
	})
}

func (l *Logger) LogFeedback(message string) {
	l.Log(Event{
		Type: EventTypeFeedback,
		Data: map[string]string{"message": message},
	})
}

func (l *Logger) LogToolCall(runID, taskID, tool, args string) {
	l.Log(Event{
		Type:   EventTypeToolCall,
		RunID:  runID,
		TaskID: taskID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogToolResult(runID, taskID, result string) {
	l.Log(Event{
		Type:   EventTypeToolResult,
		RunID:  runID,
		TaskID: taskID,
		Data:   map[string]string{"result": result},
	})
}

func (l *Logger) LogPolicyCheck(tool string, allowed bool, reason string) {
	lvl := LevelInfo
	if !allowed {
		lvl = LevelWarn
	}
	l.Log(Event{
		Type:  EventTypePolicyCheck,
		Level: lvl,
		Data: map[string]any{
			"tool":    tool,
			"allowed": allowed,
			"reason":  reason,
		},
	})
}

func (l *Logger) LogRetry(attempt int, err error) {
	l.Log(Event{
		Type:  EventTypeRetry,
		Level: LevelWarn,
		Data: map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		},
	})
}

func (l *Logger) LogError(evtType EventType, runID string, err error) {
	l.Log(Event{
		Type:  evtType,
		Level: LevelError,
		RunID: runID,
		Data:  map[string]string{"error": err.Error()},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}

func (l *Logger) LogLLM(prompt, response string) {
	l.Log(Event{
		Type: EventTypeLLM,
		Data: map[string]any{
			"prompt":   prompt,
			"response": response,
		},
	})
}
