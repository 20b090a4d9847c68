package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"
)

const defaultSearchResults = 5

// leading verbs planners put in front of the actual search terms
var searchPrefixRe = regexp.MustCompile(`(?i)^(search|look up|research|find)\s+(the web\s+)?((for|about|on)\s+)?`)

// SearchTool runs a DuckDuckGo query for research tasks.
type SearchTool struct {
	client *duckduckgo.Tool
}

func NewSearchTool() (*SearchTool, error) {
	ddg, err := duckduckgo.New(defaultSearchResults, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &SearchTool{client: ddg}, nil
}

func (s *SearchTool) Name() string {
	return "search"
}

func (s *SearchTool) Description() string {
	return "Search the web with DuckDuckGo for tasks that need current information."
}

func (s *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to look up",
			},
		},
		"required": []string{"query"},
	}
}

func (s *SearchTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("empty search query")
	}

	res, err := s.client.Call(ctx, args.Query)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	return res, nil
}

// SearchQuery turns a task description into search terms by dropping the
// instruction in front of them and any trailing period.
func SearchQuery(task string) string {
	q := strings.TrimSpace(task)
	q = searchPrefixRe.ReplaceAllString(q, "")
	q = strings.TrimRight(q, ". ")
	if q == "" {
		return strings.TrimSpace(task)
	}
	return q
}
