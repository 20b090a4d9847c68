package gateway

import (
	"context"
	"strings"
)

// Gateway is a surface the task workflow is reachable through (Telegram,
// Discord, HTTP).
type Gateway interface {
	Name() string
	// Start blocks until ctx is done or the transport fails.
	Start(ctx context.Context) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

// Messenger is a chat gateway that can push text to a chat.
type Messenger interface {
	Gateway
	Send(chatID string, text string) error
}

// Responder turns one incoming chat message into a reply.
type Responder interface {
	Respond(ctx context.Context, chatID, text string) string
}

// splitMessage cuts text into chunks of at most limit runes, preferring line
// breaks so task lists are not split mid-line.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
