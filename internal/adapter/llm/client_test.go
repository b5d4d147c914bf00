package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/breachchat/backend/internal/domain"
)

func TestCreateChatCompletionStream(t *testing.T) {
	var gotReq ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", time.Second)
	var got string
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:     "gpt-4",
		Messages:  []domain.ChatMessage{{Role: domain.RoleUser, Content: "hello"}},
		MaxTokens: 250,
	}, func(chunk *StreamChunk) error {
		got += chunk.DeltaContent()
		return nil
	})
	if err != nil {
		t.Fatalf("CreateChatCompletionStream failed: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("expected concatenated content %q, got %q", "Hello", got)
	}
	if gotReq.MaxTokens != 250 || !gotReq.Stream {
		t.Fatalf("unexpected upstream request: %+v", gotReq)
	}
}

func TestCreateChatCompletionStreamUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test", time.Second)
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hello"}},
	}, func(chunk *StreamChunk) error {
		t.Fatalf("callback should not run on upstream error")
		return nil
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestCreateChatCompletionStreamCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"hi\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	wantErr := fmt.Errorf("consumer gone")
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hello"}},
	}, func(chunk *StreamChunk) error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestCreateChatCompletionStreamSkipsMalformedChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	var chunks []string
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hello"}},
	}, func(chunk *StreamChunk) error {
		chunks = append(chunks, chunk.DeltaContent())
		return nil
	})
	if err != nil {
		t.Fatalf("CreateChatCompletionStream failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "ok" {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}

func TestMockClientStream(t *testing.T) {
	client := NewMockClient()
	var got string
	var sawStop bool
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "is my email safe?"}},
	}, func(chunk *StreamChunk) error {
		got += chunk.DeltaContent()
		if len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason == "stop" {
			sawStop = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("mock stream failed: %v", err)
	}
	if got == "" || !sawStop {
		t.Fatalf("unexpected mock stream: content=%q stop=%v", got, sawStop)
	}
}
