// Package payment isola a integração com a Stripe do resto da aplicação.
package payment

import (
	"errors"
	"time"
)

// ErrInvalidSignature indica que o payload do webhook não foi assinado pela Stripe.
var ErrInvalidSignature = errors.New("assinatura do webhook inválida")

// ErrNotConfigured indica que faltam credenciais da Stripe.
var ErrNotConfigured = errors.New("stripe não configurada")

// Tipos de evento tratados pelo webhook.
const (
	EventChargeSucceeded         = "charge.succeeded"
	EventCheckoutSessionComplete = "checkout.session.completed"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
)

// CheckoutRequest descreve a sessão de pagamento a ser criada.
type CheckoutRequest struct {
	Email      string
	LicenseKey string
	DeviceID   string
}

// CheckoutSession é o resultado devolvido pela Stripe.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event é a parte de um evento da Stripe que interessa às licenças.
type Event struct {
	ID         string
	Type       string
	Created    time.Time
	ChargeID   string
	SessionID  string
	CustomerID string
	Email      string
	Amount     int64
	Currency   string
}
