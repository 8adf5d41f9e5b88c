package receipt

import "time"

// Item is a single line item extracted from a receipt. Price is in cents.
type Item struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// Receipt represents one scanned receipt. All amounts are in cents. A receipt
// is written once after a successful scan and never mutated.
type Receipt struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Store           string    `json:"store"`
	Date            time.Time `json:"date"`
	Items           []Item    `json:"items"`
	SubtotalCents   int64     `json:"subtotal_cents"`
	TaxCents        int64     `json:"tax_cents"`
	TotalCents      int64     `json:"total_cents"`
	EstimatedCents  *int64    `json:"estimated_cents,omitempty"`
	DifferenceCents *int64    `json:"difference_cents,omitempty"`
	SavingsCents    *int64    `json:"savings_cents,omitempty"`
	Filename        string    `json:"filename"`
	ContentType     string    `json:"content_type"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
