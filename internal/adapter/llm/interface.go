// Package llm provides a client for an OpenAI-compatible chat-completion API.
package llm

import "context"

// StreamCallback is called for each chunk in a streaming response.
type StreamCallback func(chunk *StreamChunk) error

// StreamClient defines the streaming chat-completion operation.
type StreamClient interface {
	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each chunk received, in upstream order.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) error
}

// Ensure Client implements StreamClient interface.
var _ StreamClient = (*Client)(nil)
