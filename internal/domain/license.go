package domain

import "time"

// Tier define o nível de acesso concedido por uma licença.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// LicenseStatus representa o ciclo de vida de uma licença.
// pending -> active (webhook da Stripe) -> inactive (assinatura cancelada).
type LicenseStatus string

const (
	StatusPending  LicenseStatus = "pending"
	StatusActive   LicenseStatus = "active"
	StatusInactive LicenseStatus = "inactive"
)

// License é o registro que concede acesso às funcionalidades Pro.
// Licenças nunca são apagadas, apenas mudam de status.
type License struct {
	ID       string        `json:"id"`
	UserID   string        `json:"user_id,omitempty"`
	Key      string        `json:"key"`
	Email    string        `json:"email,omitempty"`
	DeviceID string        `json:"device_id,omitempty"`
	Tier     Tier          `json:"tier"`
	Status   LicenseStatus `json:"status"`

	// Dados da Stripe usados para casar eventos do webhook com a licença.
	StripeSessionID  string `json:"stripe_session_id,omitempty"`
	StripeCustomerID string `json:"stripe_customer_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// IsExpired informa se a licença já passou da data de expiração.
// Licenças sem expires_at nunca expiram.
func (l License) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// IsPro é a única regra que decide se a licença libera o plano Pro:
// status ativo, tier pro e não expirada.
func (l License) IsPro(now time.Time) bool {
	return l.Status == StatusActive && l.Tier == TierPro && !l.IsExpired(now)
}

// Activate promove a licença para active/pro com validade a partir de now.
// Numa renovação activated_at guarda a data da primeira ativação.
func (l *License) Activate(now time.Time, validity time.Duration) {
	expires := now.Add(validity)
	l.Status = StatusActive
	l.Tier = TierPro
	if l.ActivatedAt == nil {
		activated := now
		l.ActivatedAt = &activated
	}
	l.ExpiresAt = &expires
}
