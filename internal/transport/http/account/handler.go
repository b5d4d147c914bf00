// Package account exposes the data accessor endpoints: user, subscription,
// product and conversation reads/writes used by the application pages.
package account

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/breachchat/backend/internal/domain"
	"github.com/breachchat/backend/internal/store"
)

// HeaderUserID carries the authenticated user identity. It is set by the
// platform auth middleware in front of this service; these handlers do not
// authenticate.
const HeaderUserID = "X-User-ID"

// Handler handles data accessor HTTP requests.
type Handler struct {
	store store.Store
}

// NewHandler creates a new accessor handler.
func NewHandler(s store.Store) *Handler {
	return &Handler{store: s}
}

// RegisterRoutes registers accessor routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/user", h.GetUser)
	e.GET("/api/user/details", h.GetUserDetails)
	e.GET("/api/subscription", h.GetSubscription)
	e.GET("/api/products", h.GetProducts)
	e.GET("/api/account", h.GetAccount)
	e.POST("/api/conversations", h.CreateConversation)
}

type errorResponse struct {
	Error string `json:"error"`
}

// cached returns a store view memoized for the current request. Each request
// gets a fresh cache; it is never promoted past the request lifetime.
func (h *Handler) cached() store.Store {
	return store.NewRequestCache(h.store)
}

func userID(c echo.Context) string {
	return c.Request().Header.Get(HeaderUserID)
}

// GetUser returns the authenticated principal.
// GET /api/user
func (h *Handler) GetUser(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
	}

	user, err := h.cached().GetUser(c.Request().Context(), uid)
	if err != nil {
		log.Printf("ERROR: failed to get user: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
	}
	return c.JSON(http.StatusOK, user)
}

// GetUserDetails returns the profile row for the current user.
// GET /api/user/details
func (h *Handler) GetUserDetails(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
	}

	details, err := h.cached().GetUserDetails(c.Request().Context(), uid)
	if err != nil {
		log.Printf("ERROR: failed to get user details: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, details)
}

// GetSubscription returns the current trialing or active subscription, with
// price and product, or null if there is none.
// GET /api/subscription
func (h *Handler) GetSubscription(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
	}

	sub, err := h.cached().GetSubscription(c.Request().Context(), uid)
	if err != nil {
		log.Printf("ERROR: failed to get subscription: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, sub)
}

// GetProducts returns active products with their active prices.
// GET /api/products
func (h *Handler) GetProducts(c echo.Context) error {
	products, err := h.cached().GetProducts(c.Request().Context())
	if err != nil {
		log.Printf("ERROR: failed to get products: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, products)
}

// accountResponse aggregates the account page reads.
type accountResponse struct {
	User         *domain.User         `json:"user"`
	Details      *domain.UserDetails  `json:"details,omitempty"`
	Subscription *domain.Subscription `json:"subscription"`
	Products     []domain.Product     `json:"products"`
}

// GetAccount returns the aggregate account view. All reads share one
// request-scoped cache, so repeated accessor calls hit the store once.
// GET /api/account
func (h *Handler) GetAccount(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
	}

	ctx := c.Request().Context()
	cached := h.cached()

	user, err := cached.GetUser(ctx, uid)
	if err != nil {
		log.Printf("ERROR: failed to get user: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
	}

	details, err := cached.GetUserDetails(ctx, uid)
	if err != nil {
		log.Printf("WARN: failed to get user details: %v", err)
		details = nil
	}

	sub, err := cached.GetSubscription(ctx, uid)
	if err != nil {
		log.Printf("ERROR: failed to get subscription: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}

	products, err := cached.GetProducts(ctx)
	if err != nil {
		log.Printf("ERROR: failed to get products: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}

	return c.JSON(http.StatusOK, accountResponse{
		User:         user,
		Details:      details,
		Subscription: sub,
		Products:     products,
	})
}

type createConversationRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

// CreateConversation inserts one conversation row for the current user and
// returns the inserted row.
// POST /api/conversations
func (h *Handler) CreateConversation(c echo.Context) error {
	uid := userID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "missing user identity"})
	}

	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	created, err := h.cached().CreateConversation(c.Request().Context(), &domain.Conversation{
		UserID:  uid,
		Content: req.Content,
		Title:   req.Title,
	})
	if err != nil {
		log.Printf("ERROR: failed to create conversation: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusCreated, created)
}
