package model

import "time"

// Price is an amount in minor currency units plus an ISO currency code.
type Price struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Product is a catalog entry sourced from the platform. Immutable from this
// service's perspective.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Price  `json:"price"`
	PriceID     string `json:"price_id"`
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Entitlement is a verified purchase. It is never persisted locally; every
// instance is reconstructed from a platform verification response. Guest
// entitlements are time-boxed by the platform and must not be assumed to
// outlive its access window.
type Entitlement struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	PurchaseDate string `json:"purchase_date,omitempty"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Guest        bool   `json:"guest"`
}
