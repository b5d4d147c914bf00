// Package domain defines the core domain models for the backend.
package domain

import (
	"encoding/json"
	"time"
)

// Roles accepted in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a chat dialogue.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SubscriptionStatus represents the status of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
)

// User is the authenticated principal.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDetails is the profile row for a user.
type UserDetails struct {
	ID             string          `json:"id"`
	FullName       string          `json:"full_name"`
	AvatarURL      string          `json:"avatar_url,omitempty"`
	BillingAddress json.RawMessage `json:"billing_address,omitempty"`
	PaymentMethod  json.RawMessage `json:"payment_method,omitempty"`
}

// Product is an externally-owned product row. Metadata carries
// presentation hints such as the display index.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Active      bool            `json:"active"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Prices      []Price         `json:"prices,omitempty"`
}

// Price is a price attached to a product.
type Price struct {
	ID         string   `json:"id"`
	ProductID  string   `json:"product_id"`
	Active     bool     `json:"active"`
	Currency   string   `json:"currency"`
	UnitAmount int64    `json:"unit_amount"`
	Interval   string   `json:"interval,omitempty"`
	Product    *Product `json:"product,omitempty"`
}

// Subscription is a subscription row joined with its price and product.
type Subscription struct {
	ID      string             `json:"id"`
	UserID  string             `json:"user_id"`
	Status  SubscriptionStatus `json:"status"`
	PriceID string             `json:"price_id"`
	Created time.Time          `json:"created"`
	Price   *Price             `json:"price,omitempty"`
}

// Conversation is a persisted conversation row. ID is server-assigned.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
