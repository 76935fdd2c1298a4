package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockResponder_IncludesAgentAndPreview(t *testing.T) {
	t.Parallel()

	general, _ := NewRegistry().Get("general")
	got, err := MockResponder{}.Respond(context.Background(), general, "The sky is blue",
		[]*schema.Message{schema.UserMessage("sky")})
	require.NoError(t, err)

	assert.Contains(t, got, "General Assistant")
	assert.Contains(t, got, "The sky is blue")
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestMockResponder_TruncatesContext(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 150) + "TAIL"
	got, err := MockResponder{}.Respond(context.Background(), Agent{Name: "Code Assistant"}, long, nil)
	require.NoError(t, err)

	assert.Contains(t, got, strings.Repeat("a", PreviewRunes))
	assert.NotContains(t, got, strings.Repeat("a", PreviewRunes+1))
	assert.NotContains(t, got, "TAIL")
}

func TestMockResponder_EmptyContext(t *testing.T) {
	t.Parallel()

	got, err := MockResponder{}.Respond(context.Background(), Agent{Name: "Research Assistant"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Research Assistant: This is a mock response. I would use this context: ...", got)
}

func TestResponderFunc(t *testing.T) {
	t.Parallel()

	var r Responder = ResponderFunc(func(_ context.Context, a Agent, c string, conv []*schema.Message) (string, error) {
		return a.ID + "|" + c + "|" + conv[len(conv)-1].Content, nil
	})

	got, err := r.Respond(context.Background(), Agent{ID: "coder"}, "ctx", []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "coder|ctx|hi", got)
}
