package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rahul/taskflow/internal/store"
	"gopkg.in/yaml.v3"
)

// loadTasks reads a task list from JSON or YAML. The file holds either a bare
// list or an object with a "tasks" key, as printed by `plan --json`.
func loadTasks(path string) (store.TaskList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tasks file: %w", err)
	}

	var wrapped struct {
		Tasks store.TaskList `json:"tasks" yaml:"tasks"`
	}
	var tasks store.TaskList

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tasks); err != nil {
			if err := yaml.Unmarshal(data, &wrapped); err != nil {
				return nil, fmt.Errorf("failed to parse tasks file: %w", err)
			}
			tasks = wrapped.Tasks
		}
	default:
		if err := json.Unmarshal(data, &tasks); err != nil {
			if err := json.Unmarshal(data, &wrapped); err != nil {
				return nil, fmt.Errorf("failed to parse tasks file: %w", err)
			}
			tasks = wrapped.Tasks
		}
	}

	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks in %s", path)
	}
	if err := tasks.Validate(); err != nil {
		return nil, err
	}
	return tasks, nil
}
