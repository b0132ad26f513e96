// Package llm abstracts the chat-completion providers that play the scammer
// in a simulation session.
package llm

import (
	"context"
	"fmt"
)

// Provider generates scammer-side chat turns.
type Provider interface {
	// Generate sends the conversation to the model and returns its reply.
	// When Request.JSON is set the provider asks for a single JSON object.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes one generation call.
type Request struct {
	// System is the persona prompt. It carries the scenario framing and the
	// output contract.
	System string

	// Messages is the replayed conversation window, oldest first.
	Messages []Message

	// JSON requests a single JSON object as the whole reply.
	JSON bool

	// MaxTokens caps the reply length. Zero means provider default.
	MaxTokens int

	// Temperature controls randomness. Zero means provider default.
	Temperature float64
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the model output.
type Response struct {
	Content string
	Model   string

	InputTokens  int
	OutputTokens int
}

// ErrProviderUnavailable indicates the provider is down, unreachable, or
// returned an unusable response. Callers map this to a 502.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation provider unavailable: %v", e.Err)
	}
	return "generation provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }
