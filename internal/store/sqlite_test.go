package store

import (
	"context"
	"testing"
	"time"

	"github.com/breachchat/backend/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func seedUser(t *testing.T, s *SQLiteStore, id, email, fullName string) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, full_name, created_at) VALUES (?, ?, ?, ?)`,
		id, email, fullName, time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

func seedCatalog(t *testing.T, s *SQLiteStore) {
	t.Helper()
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO products (id, name, description, active, metadata) VALUES (?, ?, ?, ?, ?)`,
			[]any{"prod_pro", "Pro", "Full coverage", 1, `{"index":2}`}},
		{`INSERT INTO products (id, name, description, active, metadata) VALUES (?, ?, ?, ?, ?)`,
			[]any{"prod_basic", "Basic", "Starter", 1, `{"index":1}`}},
		{`INSERT INTO products (id, name, active, metadata) VALUES (?, ?, ?, ?)`,
			[]any{"prod_legacy", "Legacy", 0, `{"index":0}`}},
		{`INSERT INTO prices (id, product_id, active, currency, unit_amount, recurring_interval) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"price_pro_year", "prod_pro", 1, "usd", 9900, "year"}},
		{`INSERT INTO prices (id, product_id, active, currency, unit_amount, recurring_interval) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"price_pro_month", "prod_pro", 1, "usd", 990, "month"}},
		{`INSERT INTO prices (id, product_id, active, currency, unit_amount) VALUES (?, ?, ?, ?, ?)`,
			[]any{"price_pro_old", "prod_pro", 0, "usd", 500}},
		{`INSERT INTO prices (id, product_id, active, currency, unit_amount, recurring_interval) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"price_basic_month", "prod_basic", 1, "usd", 490, "month"}},
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt.query, stmt.args...); err != nil {
			t.Fatalf("failed to seed catalog: %v", err)
		}
	}
}

func seedSubscription(t *testing.T, s *SQLiteStore, id, userID string, status domain.SubscriptionStatus, priceID string, created time.Time) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO subscriptions (id, user_id, status, price_id, created) VALUES (?, ?, ?, ?, ?)`,
		id, userID, status, priceID, created)
	if err != nil {
		t.Fatalf("failed to seed subscription: %v", err)
	}
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "user@example.com", "Test User")

	user, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil || user.Email != "user@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	missing, err := store.GetUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown user, got %+v", missing)
	}
}

func TestGetSubscriptionPicksLatestEligible(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "user@example.com", "Test User")
	seedCatalog(t, store)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedSubscription(t, store, "sub_old", "u1", domain.SubscriptionStatusTrialing, "price_basic_month", base)
	seedSubscription(t, store, "sub_active", "u1", domain.SubscriptionStatusActive, "price_pro_month", base.Add(24*time.Hour))
	// Newest row is ineligible and must not win the tie-break.
	seedSubscription(t, store, "sub_canceled", "u1", domain.SubscriptionStatusCanceled, "price_pro_year", base.Add(48*time.Hour))

	sub, err := store.GetSubscription(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if sub == nil || sub.ID != "sub_active" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if sub.Price == nil || sub.Price.ID != "price_pro_month" {
		t.Fatalf("expected joined price, got %+v", sub.Price)
	}
	if sub.Price.Product == nil || sub.Price.Product.Name != "Pro" {
		t.Fatalf("expected joined product, got %+v", sub.Price.Product)
	}
}

func TestGetSubscriptionNone(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "user@example.com", "Test User")
	seedCatalog(t, store)
	seedSubscription(t, store, "sub_canceled", "u1", domain.SubscriptionStatusCanceled, "price_pro_year", time.Now().UTC())

	sub, err := store.GetSubscription(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected nil subscription, got %+v", sub)
	}
}

func TestGetProductsOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedCatalog(t, store)

	products, err := store.GetProducts(ctx)
	if err != nil {
		t.Fatalf("GetProducts failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 active products, got %d", len(products))
	}
	if products[0].ID != "prod_basic" || products[1].ID != "prod_pro" {
		t.Fatalf("unexpected product order: %s, %s", products[0].ID, products[1].ID)
	}

	proPrices := products[1].Prices
	if len(proPrices) != 2 {
		t.Fatalf("expected 2 active prices for prod_pro, got %d", len(proPrices))
	}
	if proPrices[0].UnitAmount != 990 || proPrices[1].UnitAmount != 9900 {
		t.Fatalf("prices not ordered by amount: %+v", proPrices)
	}
}

func TestGetUserDetails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "user@example.com", "Test User")

	details, err := store.GetUserDetails(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserDetails failed: %v", err)
	}
	if details.FullName != "Test User" {
		t.Fatalf("unexpected details: %+v", details)
	}

	if _, err := store.GetUserDetails(ctx, "nobody"); err == nil {
		t.Fatalf("expected error for missing details row")
	}
}

func TestCreateConversation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedUser(t, store, "u1", "user@example.com", "Test User")

	created, err := store.CreateConversation(ctx, &domain.Conversation{
		UserID:  "u1",
		Content: "Here's the result of the HaveIBeenPwned check",
		Title:   "Breach check",
	})
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected server-assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("expected server-assigned timestamp")
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM conversations WHERE id = ?`, created.ID).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	// Foreign key violation propagates the store error unchanged.
	if _, err := store.CreateConversation(ctx, &domain.Conversation{UserID: "nobody", Content: "x", Title: "y"}); err == nil {
		t.Fatalf("expected foreign key error")
	}
}
