// Package http provides the HTTP server for the backend.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/breachchat/backend/internal/adapter/hibp"
	"github.com/breachchat/backend/internal/adapter/llm"
	"github.com/breachchat/backend/internal/store"
	"github.com/breachchat/backend/internal/transport/http/account"
	"github.com/breachchat/backend/internal/transport/http/chat"
)

// NewServer creates and configures the HTTP server: the chat relay endpoint
// and the data accessor endpoints.
func NewServer(breach hibp.AccountChecker, llmClient llm.StreamClient, st store.Store) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	chatHandler := chat.NewHandler(breach, llmClient)
	accountHandler := account.NewHandler(st)

	// Register Routes
	chatHandler.RegisterRoutes(e)
	accountHandler.RegisterRoutes(e)

	return e
}
