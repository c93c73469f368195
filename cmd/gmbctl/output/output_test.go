package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestMessagesGoToOut(t *testing.T) {
	buf := capture(t)

	Success("synced %d", 2)
	Alert("Post queued for publishing")

	assert.Contains(t, buf.String(), "synced 2")
	assert.Contains(t, buf.String(), "Post queued for publishing")
}

func TestStars(t *testing.T) {
	s := Stars(models.Review{Rating: 4})
	assert.Equal(t, 4, strings.Count(s, "★"))
	assert.Equal(t, 1, strings.Count(s, "☆"))
}

func TestStatusIcon(t *testing.T) {
	assert.Contains(t, StatusIcon(models.PostStatusPublished), "✓")
	assert.Contains(t, StatusIcon(models.PostStatusFailed), "✗")
	assert.Contains(t, StatusIcon("UNKNOWN"), "•")
}
