package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Session is the task list a chat surface keeps between human interactions.
// The workflow itself never reads it; only gateways do.
type Session struct {
	ChatID    string    `json:"chat_id"`
	Query     string    `json:"query"`
	Tasks     TaskList  `json:"tasks"`
	Results   []Result  `json:"results"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run is an archived approved run.
type Run struct {
	RunID     string    `json:"run_id"`
	ChatID    string    `json:"chat_id"`
	Query     string    `json:"query"`
	Tasks     TaskList  `json:"tasks"`
	Results   []Result  `json:"results"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionStore struct {
	DB *sql.DB
}

func NewSessionStore(dbPath string) (*SessionStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// one writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			chat_id TEXT PRIMARY KEY,
			query TEXT,
			tasks TEXT,
			results TEXT,
			updated_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			chat_id TEXT,
			query TEXT,
			tasks TEXT,
			results TEXT,
			created_at TEXT
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to init schema: %w", err)
		}
	}

	return &SessionStore{DB: db}, nil
}

func (s *SessionStore) Close() error {
	return s.DB.Close()
}

// Load returns the session for a chat, or an empty one if none exists.
func (s *SessionStore) Load(chatID string) (*Session, error) {
	query := `SELECT query, tasks, results, updated_at FROM sessions WHERE chat_id = ?`
	var q, tasks, results, updated string
	err := s.DB.QueryRow(query, chatID).Scan(&q, &tasks, &results, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return &Session{ChatID: chatID}, nil
	}
	if err != nil {
		return nil, err
	}

	sess := &Session{ChatID: chatID, Query: q}
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	if err := json.Unmarshal([]byte(tasks), &sess.Tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks for %s: %w", chatID, err)
	}
	if err := json.Unmarshal([]byte(results), &sess.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results for %s: %w", chatID, err)
	}
	return sess, nil
}

func (s *SessionStore) Save(sess *Session) error {
	tasks, err := json.Marshal(sess.Tasks)
	if err != nil {
		return err
	}
	results, err := json.Marshal(sess.Results)
	if err != nil {
		return err
	}
	sess.UpdatedAt = time.Now().UTC()

	query := `INSERT INTO sessions (chat_id, query, tasks, results, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			query = excluded.query,
			tasks = excluded.tasks,
			results = excluded.results,
			updated_at = excluded.updated_at`
	_, err = s.DB.Exec(query, sess.ChatID, sess.Query, string(tasks), string(results), sess.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *SessionStore) Clear(chatID string) error {
	_, err := s.DB.Exec(`DELETE FROM sessions WHERE chat_id = ?`, chatID)
	return err
}

func (s *SessionStore) RecordRun(run Run) error {
	tasks, err := json.Marshal(run.Tasks)
	if err != nil {
		return err
	}
	results, err := json.Marshal(run.Results)
	if err != nil {
		return err
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO runs (run_id, chat_id, query, tasks, results, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.DB.Exec(query, run.RunID, run.ChatID, run.Query, string(tasks), string(results), run.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// ListRuns returns the most recent runs for a chat, newest first.
func (s *SessionStore) ListRuns(chatID string, limit int) ([]Run, error) {
	query := `SELECT run_id, query, tasks, results, created_at FROM runs WHERE chat_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.DB.Query(query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var tasks, results, created string
		if err := rows.Scan(&r.RunID, &r.Query, &tasks, &results, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		if err := json.Unmarshal([]byte(tasks), &r.Tasks); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(results), &r.Results); err != nil {
			return nil, err
		}
		r.ChatID = chatID
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
