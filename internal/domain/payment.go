package domain

import "time"

// Payment registra uma cobrança da Stripe que ativou uma licença.
type Payment struct {
	ID             string    `json:"id"`
	LicenseID      string    `json:"license_id"`
	StripeChargeID string    `json:"stripe_charge_id"`
	Email          string    `json:"email,omitempty"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	CreatedAt      time.Time `json:"created_at"`
}
