package governance

import (
	"context"
	"testing"

	"github.com/rahul/taskflow/pkg/config"
)

func TestDefaultPolicyEngine_Evaluate(t *testing.T) {
	engine := NewDefaultPolicyEngine()
	ctx := context.Background()

	// Test Allow (Default)
	res1, err := engine.Evaluate(ctx, Request{Tool: "search"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !res1.Allowed() {
		t.Errorf("Expected EffectAllow, got %s", res1.Effect)
	}

	// Test Deny
	engine.DenyTool("browser")
	res2, err := engine.Evaluate(ctx, Request{Tool: "browser"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res2.Effect != EffectDeny {
		t.Errorf("Expected EffectDeny, got %s", res2.Effect)
	}
}

func TestFromConfig(t *testing.T) {
	engine, err := FromConfig(config.ToolsConfig{
		DeniedTools:    []string{"scraper"},
		DeniedPatterns: []string{`(?i)password`},
	})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	ctx := context.Background()

	res, _ := engine.Evaluate(ctx, Request{Tool: "scraper", Arguments: `{"url":"https://example.com"}`})
	if res.Allowed() {
		t.Error("Expected scraper to be denied")
	}

	res, _ = engine.Evaluate(ctx, Request{Tool: "llm", Task: "Find the admin PASSWORD for the router"})
	if res.Allowed() {
		t.Error("Expected task text to match denied pattern")
	}

	res, _ = engine.Evaluate(ctx, Request{Tool: "llm", Task: "Draft the guest list"})
	if !res.Allowed() {
		t.Errorf("Expected allow, got %s: %s", res.Effect, res.Reason)
	}
}

func TestFromConfig_BadPattern(t *testing.T) {
	if _, err := FromConfig(config.ToolsConfig{DeniedPatterns: []string{"("}}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}
