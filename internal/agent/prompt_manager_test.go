package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_GetWorkerPrompt(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"identity.md":         "Identity Content",
		"worker_directive.md": "Directive Content",
		"user.md":             "User Content",
		"extra.md":            "Extra Content",
		"planner.md":          "Planner Content {{.query}}",
	}

	for name, content := range files {
		err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt, err := pm.GetWorkerPrompt()
	if err != nil {
		t.Fatal(err)
	}

	for _, part := range []string{"Identity Content", "Directive Content", "User Content", "Extra Content"} {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}
	if strings.Contains(prompt, "Planner Content") {
		t.Error("Worker prompt should not include planner.md")
	}

	if strings.Index(prompt, "Identity Content") >= strings.Index(prompt, "Directive Content") {
		t.Error("Identity should be before Directive")
	}
	if strings.Index(prompt, "Directive Content") >= strings.Index(prompt, "User Content") {
		t.Error("Directive should be before User")
	}
}

func TestPromptManager_PlannerTemplateFromFile(t *testing.T) {
	tempDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tempDir, "planner.md"), []byte("Plan this: {{.query}}"), 0644)
	if err != nil {
		t.Fatal(err)
	}

	tmpl, err := NewPromptManager(tempDir).PlannerTemplate()
	if err != nil {
		t.Fatal(err)
	}
	out, err := tmpl.Format(map[string]any{"query": "organize a party"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "Plan this: organize a party" {
		t.Errorf("unexpected prompt: %q", out)
	}
}

func TestPromptManager_PlannerTemplateDefault(t *testing.T) {
	tmpl, err := NewPromptManager(t.TempDir()).PlannerTemplate()
	if err != nil {
		t.Fatal(err)
	}
	out, err := tmpl.Format(map[string]any{"query": "write a report"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Split the following query into 8-9 specific subtasks") {
		t.Errorf("default template not used: %q", out)
	}
	if !strings.HasSuffix(out, "\n\nwrite a report") {
		t.Errorf("query not rendered at the end: %q", out)
	}
}

func TestPromptManager_MissingDirectory(t *testing.T) {
	pm := NewPromptManager(filepath.Join(t.TempDir(), "missing"))
	if _, err := pm.GetWorkerPrompt(); err == nil {
		t.Error("expected error for missing directory")
	}
}
