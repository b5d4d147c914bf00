package store

import (
	"context"
	"fmt"

	"github.com/breachchat/backend/internal/domain"
)

// RequestCache memoizes Store calls for the lifetime of a single incoming
// request, keyed by method and argument. It must be constructed per request
// and never shared across requests; accessors within one request run on that
// request's goroutine, so no locking is needed.
type RequestCache struct {
	store Store
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value any
	err   error
}

// Ensure RequestCache implements Store interface.
var _ Store = (*RequestCache)(nil)

// NewRequestCache wraps a store with request-scoped memoization.
func NewRequestCache(s Store) *RequestCache {
	return &RequestCache{
		store: s,
		cache: make(map[string]cacheEntry),
	}
}

// GetUser memoizes Store.GetUser by user ID.
func (r *RequestCache) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	key := "getUser:" + userID
	if entry, ok := r.cache[key]; ok {
		user, _ := entry.value.(*domain.User)
		return user, entry.err
	}
	user, err := r.store.GetUser(ctx, userID)
	r.cache[key] = cacheEntry{value: user, err: err}
	return user, err
}

// GetSubscription memoizes Store.GetSubscription by user ID.
func (r *RequestCache) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	key := "getSubscription:" + userID
	if entry, ok := r.cache[key]; ok {
		sub, _ := entry.value.(*domain.Subscription)
		return sub, entry.err
	}
	sub, err := r.store.GetSubscription(ctx, userID)
	r.cache[key] = cacheEntry{value: sub, err: err}
	return sub, err
}

// GetProducts memoizes Store.GetProducts.
func (r *RequestCache) GetProducts(ctx context.Context) ([]domain.Product, error) {
	key := "getProducts"
	if entry, ok := r.cache[key]; ok {
		products, _ := entry.value.([]domain.Product)
		return products, entry.err
	}
	products, err := r.store.GetProducts(ctx)
	r.cache[key] = cacheEntry{value: products, err: err}
	return products, err
}

// GetUserDetails memoizes Store.GetUserDetails by user ID.
func (r *RequestCache) GetUserDetails(ctx context.Context, userID string) (*domain.UserDetails, error) {
	key := "getUserDetails:" + userID
	if entry, ok := r.cache[key]; ok {
		details, _ := entry.value.(*domain.UserDetails)
		return details, entry.err
	}
	details, err := r.store.GetUserDetails(ctx, userID)
	r.cache[key] = cacheEntry{value: details, err: err}
	return details, err
}

// CreateConversation memoizes Store.CreateConversation by argument identity,
// so a repeated call with the same row within one request inserts once.
func (r *RequestCache) CreateConversation(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	key := fmt.Sprintf("createConversation:%s\x00%s\x00%s\x00%d",
		conv.UserID, conv.Title, conv.Content, conv.CreatedAt.UnixNano())
	if entry, ok := r.cache[key]; ok {
		created, _ := entry.value.(*domain.Conversation)
		return created, entry.err
	}
	created, err := r.store.CreateConversation(ctx, conv)
	r.cache[key] = cacheEntry{value: created, err: err}
	return created, err
}

// Close passes through to the wrapped store.
func (r *RequestCache) Close() error {
	return r.store.Close()
}
