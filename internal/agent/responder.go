package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/ragdesk/internal/budget"
)

// PreviewRunes is the number of context runes the mock responder echoes back.
const PreviewRunes = 100

// Responder produces the assistant's reply for one chat turn. It is the seam
// where a real generation backend plugs in; retrieval and agent lookup have
// already happened by the time Respond is called.
// Implementations must be safe to call from multiple goroutines.
type Responder interface {
	// Respond returns the reply text for conversation, framed by agent and
	// grounded on the retrieved context string.
	Respond(ctx context.Context, agent Agent, context string, conversation []*schema.Message) (string, error)
}

// ResponderFunc adapts a plain function to the Responder interface.
type ResponderFunc func(ctx context.Context, agent Agent, context string, conversation []*schema.Message) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, agent Agent, context string, conversation []*schema.Message) (string, error) {
	return f(ctx, agent, context, conversation)
}

// MockResponder is the default Responder. It performs no generation and
// echoes a short preview of the context it would have used.
type MockResponder struct{}

// Respond returns "<agent name>: This is a mock response. I would use this
// context: <first PreviewRunes runes of context>...".
func (MockResponder) Respond(_ context.Context, agent Agent, context string, _ []*schema.Message) (string, error) {
	return fmt.Sprintf("%s: This is a mock response. I would use this context: %s...",
		agent.Name, budget.Preview(context, PreviewRunes)), nil
}
