package domain

import (
	"encoding/json"
	"time"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentExpired PaymentStatus = "expired"
)

// Note is a single entry of an order's append-only note list.
type Note struct {
	ID        string    `json:"id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Shipment is attached by the admin flow; it never affects the order status.
type Shipment struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	ETA            string `json:"eta"`
}

// Order amounts are integers in minor currency units. The address,
// shipping option, payment method and items payloads are caller-supplied
// and stored verbatim; nothing in this module interprets them.
type Order struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Status         Status          `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	Subtotal       int64           `json:"subtotal"`
	ShippingFee    int64           `json:"shipping_fee"`
	TaxAmount      int64           `json:"tax_amount"`
	Total          int64           `json:"total"`
	Address        json.RawMessage `json:"address,omitempty"`
	ShippingOption json.RawMessage `json:"shipping_option,omitempty"`
	PaymentMethod  json.RawMessage `json:"payment_method,omitempty"`
	Items          json.RawMessage `json:"items,omitempty"`
	CustomerNote   string          `json:"customer_note,omitempty"`
	Notes          []Note          `json:"notes,omitempty"`
	Shipment       *Shipment       `json:"shipment,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
