package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserTool_InvalidURL(t *testing.T) {
	b := NewBrowserTool()
	defer b.Close()

	_, err := b.Execute(context.Background(), `{"url":"not a url"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid url")
	assert.Nil(t, b.browserCtx)
}

func TestBrowserTool_FailedStartIsNotKept(t *testing.T) {
	b := NewBrowserTool()
	b.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")
	defer b.Close()

	for i := 0; i < 2; i++ {
		_, err := b.Execute(context.Background(), `{"url":"https://example.com"}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize browser")

		b.mu.Lock()
		assert.Nil(t, b.browserCtx)
		assert.Nil(t, b.allocCancel)
		b.mu.Unlock()
	}
}

func TestBrowserTool_CloseNeverStarted(t *testing.T) {
	b := NewBrowserTool()
	b.Close()
	b.Close()
}
