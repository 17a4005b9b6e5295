// Package provider holds clients for upstream LLM chat-completion services.
package provider

import "context"

// Message is one chat message sent to the model.
type Message struct {
	Role    string
	Content string
}

// Request is a normalized chat-completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	// JSONMode asks the provider to constrain the reply to a JSON object.
	JSONMode bool
}

// Usage holds token accounting reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the first-choice reply from the model.
type Response struct {
	Content string
	Usage   Usage
}

// Provider is the interface for all upstream LLM providers.
type Provider interface {
	ChatCompletion(ctx context.Context, req *Request) (*Response, error)
}
