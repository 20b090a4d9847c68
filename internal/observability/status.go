package observability

import (
	"sync"
	"time"
)

type Role string

const (
	RoleIdle     Role = "IDLE"
	RolePlanner  Role = "PLANNER"
	RoleExecutor Role = "EXECUTOR"
)

// Status is what the live status line shows. A nil *Status ignores updates.
type Status struct {
	mu            sync.RWMutex
	currentRole   Role
	activeTask    string
	lastHeartbeat time.Time
}

func NewStatus() *Status {
	return &Status{
		currentRole:   RoleIdle,
		lastHeartbeat: time.Now(),
	}
}

func (s *Status) Set(role Role, task string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentRole = role
	s.activeTask = task
}

func (s *Status) Get() (Role, string, time.Time) {
	if s == nil {
		return RoleIdle, "", time.Time{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRole, s.activeTask, s.lastHeartbeat
}

func (s *Status) Heartbeat() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = time.Now()
}
