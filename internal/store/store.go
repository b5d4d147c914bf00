// Package store defines the storage interface and implementations.
package store

import (
	"context"

	"github.com/breachchat/backend/internal/domain"
)

// Store defines the interface for data access.
type Store interface {
	// GetUser returns the authenticated principal, or nil if unknown.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// GetSubscription returns the most recently created subscription for the
	// user whose status is trialing or active, joined with its price and
	// product. Returns nil if no such row exists.
	GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error)

	// GetProducts returns active products with their active prices, ordered
	// by the metadata display index, prices by unit amount.
	GetProducts(ctx context.Context) ([]domain.Product, error)

	// GetUserDetails returns the single details row for the user. A missing
	// row is an error, not a nil result.
	GetUserDetails(ctx context.Context, userID string) (*domain.UserDetails, error)

	// CreateConversation inserts one conversation row and returns the
	// inserted row. Store errors are propagated unchanged.
	CreateConversation(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error)

	// Lifecycle
	Close() error
}
