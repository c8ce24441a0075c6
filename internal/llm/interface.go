package llm

import "context"

// Provider is a single-turn text completion backend
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request holds one prompt and its generation settings
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
	// JSON asks the backend to constrain output to a JSON object when it
	// supports doing so.
	JSON bool
}

// Response is the generated text with token usage
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens is used when a request leaves MaxTokens unset
const DefaultMaxTokens = 4096
