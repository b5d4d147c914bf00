// Package chat implements the chat relay endpoint: it seeds a conversation
// with a breach-check digest or appends a follow-up message, forwards the
// assembled dialogue to the chat-completion API, and streams the reply back
// as newline-delimited JSON fragments.
package chat

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/breachchat/backend/internal/adapter/hibp"
	"github.com/breachchat/backend/internal/adapter/llm"
	"github.com/breachchat/backend/internal/domain"
)

const (
	completionModel     = "gpt-4"
	completionMaxTokens = 250

	firstMessagePrompt = "You are a helpful assistant that provides online security advice. " +
		"You have just received information about an email address from the HaveIBeenPwned API. " +
		"Provide a helpful interpretation of this information and offer advice on what steps the user should take next."
	followUpPrompt = "You are a helpful assistant that provides online security advice."

	errMissingEmail   = "Email is required for the first message"
	errMissingMessage = "No message provided"
	errGeneric        = "An error occurred while processing your request"
)

// Handler handles chat relay HTTP requests.
type Handler struct {
	breach hibp.AccountChecker
	llm    llm.StreamClient
}

// NewHandler creates a new chat handler.
func NewHandler(breach hibp.AccountChecker, llmClient llm.StreamClient) *Handler {
	return &Handler{
		breach: breach,
		llm:    llmClient,
	}
}

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
}

type chatRequest struct {
	Message        string `json:"message"`
	Email          string `json:"email"`
	IsFirstMessage bool   `json:"isFirstMessage"`
	// Raw so a non-array value is tolerated rather than a bind failure.
	ConversationHistory json.RawMessage `json:"conversationHistory"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type contentFragment struct {
	Content string `json:"content"`
}

// Chat handles the chat relay request.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	// Request ID for trace correlation in server logs
	requestID := "chat_" + uuid.New().String()[:8]

	var messages []domain.ChatMessage
	if req.IsFirstMessage {
		if req.Email == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errMissingEmail})
		}

		digest, err := h.breach.CheckAccount(ctx, req.Email)
		if err != nil {
			log.Printf("ERROR: [%s] breach lookup failed: %v", requestID, err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: errGeneric})
		}

		messages = []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: firstMessagePrompt},
			{Role: domain.RoleUser, Content: "Here's the result of the HaveIBeenPwned check: " + digest},
		}
	} else {
		if req.Message == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: errMissingMessage})
		}

		history := parseHistory(req.ConversationHistory)
		messages = make([]domain.ChatMessage, 0, len(history)+2)
		messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: followUpPrompt})
		messages = append(messages, history...)
		messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: req.Message})
	}

	messages = repairRoles(requestID, messages)

	return h.stream(c, requestID, messages)
}

// parseHistory decodes the caller-supplied conversation history. Anything
// that is not a JSON array of messages is treated as an empty history.
func parseHistory(raw json.RawMessage) []domain.ChatMessage {
	if len(raw) == 0 {
		return nil
	}
	var history []domain.ChatMessage
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil
	}
	return history
}

// repairRoles returns a copy of messages with any missing role defaulted to
// user. Order, length and content are preserved.
func repairRoles(requestID string, messages []domain.ChatMessage) []domain.ChatMessage {
	repaired := make([]domain.ChatMessage, len(messages))
	for i, msg := range messages {
		if msg.Role == "" {
			log.Printf("WARN: [%s] message without role at index %d, defaulting to user", requestID, i)
			msg.Role = domain.RoleUser
		}
		repaired[i] = msg
	}
	return repaired
}

// stream dispatches the assembled messages and relays fragments to the
// caller. The response status is committed when the first fragment arrives,
// so dispatch failures still produce a structured 500. Failures after that
// point truncate the stream; the upstream error is only logged.
func (h *Handler) stream(c echo.Context, requestID string, messages []domain.ChatMessage) error {
	ctx := c.Request().Context()

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: errGeneric})
	}

	req := &llm.ChatCompletionRequest{
		Model:     completionModel,
		Messages:  messages,
		MaxTokens: completionMaxTokens,
		Stream:    true,
	}

	started := false
	begin := func() {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c.Response().Header().Set("Cache-Control", "no-cache")
		c.Response().WriteHeader(http.StatusOK)
		started = true
	}

	err := h.llm.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		content := chunk.DeltaContent()
		// Empty fragments are suppressed
		if content == "" {
			return nil
		}

		if !started {
			begin()
		}

		line, err := json.Marshal(contentFragment{Content: content})
		if err != nil {
			return err
		}
		if _, err := c.Response().Write(append(line, '\n')); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			log.Printf("ERROR: [%s] chat completion dispatch failed: %v", requestID, err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: errGeneric})
		}
		log.Printf("ERROR: [%s] chat completion stream aborted: %v", requestID, err)
		return nil
	}

	// Upstream completed without producing content; still commit a 200.
	if !started {
		begin()
	}
	return nil
}
