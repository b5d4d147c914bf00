package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "BREACHCHAT_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewStreamClient creates a chat-completion client based on the
// BREACHCHAT_MODE environment variable. If BREACHCHAT_MODE=MOCK, returns a
// MockClient; otherwise returns a real Client.
func NewStreamClient(baseURL, apiKey string, timeout time.Duration) StreamClient {
	if os.Getenv(EnvMode) == ModeMock {
		log.Println("BREACHCHAT_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}

	return NewClient(baseURL, apiKey, timeout)
}
