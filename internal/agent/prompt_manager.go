package agent

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// DefaultPlannerPrompt is used when the prompts directory has no planner.md.
const DefaultPlannerPrompt = "Split the following query into 8-9 specific subtasks to address its requirements. " +
	"Return as a bulleted list with one-line descriptive subtasks as full sentences " +
	"(5-15 words each, no colons). Example: '- Research project requirements and scope.'\n\n{{.query}}"

const plannerFile = "planner.md"

type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetWorkerPrompt joins every .md file except planner.md, identity and
// directive first, for the LLM answer tool.
func (pm *PromptManager) GetWorkerPrompt() (string, error) {
	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %w", err)
	}

	order := map[string]int{
		"identity.md":         1,
		"worker_directive.md": 2,
		"user.md":             3,
	}

	sort.Slice(files, func(i, j int) bool {
		oi, okI := order[files[i].Name()]
		oj, okJ := order[files[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return files[i].Name() < files[j].Name()
	})

	var contents []string
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") || f.Name() == plannerFile {
			continue
		}
		path := filepath.Join(pm.Directory, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, string(data))
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", pm.Directory)
	}

	return strings.Join(contents, "\n\n---\n\n"), nil
}

// GetPlannerPrompt returns planner.md, or DefaultPlannerPrompt if the file is
// missing. The text must reference the query as {{.query}}.
func (pm *PromptManager) GetPlannerPrompt() (string, error) {
	path := filepath.Join(pm.Directory, plannerFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultPlannerPrompt, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read planner prompt: %w", err)
	}
	return string(data), nil
}

func (pm *PromptManager) PlannerTemplate() (prompts.PromptTemplate, error) {
	text, err := pm.GetPlannerPrompt()
	if err != nil {
		return prompts.PromptTemplate{}, err
	}
	return prompts.NewPromptTemplate(text, []string{"query"}), nil
}
