package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/breachchat/backend/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT,
			avatar_url TEXT,
			billing_address TEXT,
			payment_method TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS prices (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			currency TEXT NOT NULL,
			unit_amount INTEGER NOT NULL,
			recurring_interval TEXT,
			FOREIGN KEY (product_id) REFERENCES products(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prices_product ON prices(product_id, unit_amount)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			price_id TEXT NOT NULL,
			created DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (price_id) REFERENCES prices(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id, created)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			title TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// GetUser retrieves the principal row for a user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE id = ?`,
		userID).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetSubscription retrieves the latest trialing or active subscription for a
// user, with its price and product.
func (s *SQLiteStore) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	var (
		sub         domain.Subscription
		price       domain.Price
		product     domain.Product
		description sql.NullString
		interval    sql.NullString
		metadata    sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.status, s.price_id, s.created,
		        p.id, p.product_id, p.active, p.currency, p.unit_amount, p.recurring_interval,
		        pr.id, pr.name, pr.description, pr.active, pr.metadata
		 FROM subscriptions s
		 JOIN prices p ON p.id = s.price_id
		 JOIN products pr ON pr.id = p.product_id
		 WHERE s.user_id = ? AND s.status IN (?, ?)
		 ORDER BY s.created DESC
		 LIMIT 1`,
		userID, domain.SubscriptionStatusTrialing, domain.SubscriptionStatusActive).Scan(
		&sub.ID, &sub.UserID, &sub.Status, &sub.PriceID, &sub.Created,
		&price.ID, &price.ProductID, &price.Active, &price.Currency, &price.UnitAmount, &interval,
		&product.ID, &product.Name, &description, &product.Active, &metadata)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	price.Interval = interval.String
	product.Description = description.String
	if metadata.Valid {
		product.Metadata = json.RawMessage(metadata.String)
	}
	price.Product = &product
	sub.Price = &price
	return &sub, nil
}

// GetProducts retrieves active products with their active prices. Ordering is
// a presentation concern: products by the metadata index, prices by amount.
func (s *SQLiteStore) GetProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, active, metadata
		 FROM products
		 WHERE active = 1
		 ORDER BY json_extract(metadata, '$.index')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			product     domain.Product
			description sql.NullString
			metadata    sql.NullString
		)
		if err := rows.Scan(&product.ID, &product.Name, &description, &product.Active, &metadata); err != nil {
			return nil, err
		}
		product.Description = description.String
		if metadata.Valid {
			product.Metadata = json.RawMessage(metadata.String)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		prices, err := s.getActivePrices(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Prices = prices
	}
	return products, nil
}

func (s *SQLiteStore) getActivePrices(ctx context.Context, productID string) ([]domain.Price, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, active, currency, unit_amount, recurring_interval
		 FROM prices
		 WHERE product_id = ? AND active = 1
		 ORDER BY unit_amount`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []domain.Price
	for rows.Next() {
		var (
			price    domain.Price
			interval sql.NullString
		)
		if err := rows.Scan(&price.ID, &price.ProductID, &price.Active, &price.Currency, &price.UnitAmount, &interval); err != nil {
			return nil, err
		}
		price.Interval = interval.String
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

// GetUserDetails retrieves the single details row for a user. Unlike GetUser,
// a missing row is an invariant violation and surfaces as an error.
func (s *SQLiteStore) GetUserDetails(ctx context.Context, userID string) (*domain.UserDetails, error) {
	var (
		details        domain.UserDetails
		fullName       sql.NullString
		avatarURL      sql.NullString
		billingAddress sql.NullString
		paymentMethod  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, full_name, avatar_url, billing_address, payment_method FROM users WHERE id = ?`,
		userID).Scan(&details.ID, &fullName, &avatarURL, &billingAddress, &paymentMethod)
	if err != nil {
		return nil, err
	}
	details.FullName = fullName.String
	details.AvatarURL = avatarURL.String
	if billingAddress.Valid {
		details.BillingAddress = json.RawMessage(billingAddress.String)
	}
	if paymentMethod.Valid {
		details.PaymentMethod = json.RawMessage(paymentMethod.String)
	}
	return &details, nil
}

// CreateConversation inserts a conversation row. The ID and creation time are
// server-assigned when absent.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	inserted := *conv
	if inserted.ID == "" {
		inserted.ID = uuid.New().String()
	}
	if inserted.CreatedAt.IsZero() {
		inserted.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, content, title, created_at) VALUES (?, ?, ?, ?, ?)`,
		inserted.ID, inserted.UserID, inserted.Content, inserted.Title, inserted.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inserted, nil
}
