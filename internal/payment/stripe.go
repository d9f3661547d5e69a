package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeConfig reúne as credenciais e URLs usadas no checkout.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// StripeGateway cria sessões de checkout e valida eventos do webhook.
type StripeGateway struct {
	cfg      StripeConfig
	sessions *session.Client
}

// NewStripeGateway usa um client próprio em vez do stripe.Key global.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	return &StripeGateway{
		cfg: cfg,
		sessions: &session.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.SecretKey,
		},
	}
}

// CreateCheckoutSession cria uma sessão de assinatura na Stripe.
// A chave da licença pendente vai nos metadados para facilitar o suporte.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if g.cfg.SecretKey == "" || g.cfg.PriceID == "" {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(req.Email),
		SuccessURL:    stripe.String(g.cfg.SuccessURL),
		CancelURL:     stripe.String(g.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(g.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("license_key", req.LicenseKey)
	if req.DeviceID != "" {
		params.AddMetadata("device_id", req.DeviceID)
	}

	sess, err := g.sessions.New(params)
	if err != nil {
		slog.Error("Falha ao criar a sessão de checkout na Stripe", "error", err)
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ConstructEvent verifica a assinatura e traduz o evento para Event.
// Eventos de tipos não tratados voltam só com ID e Type.
// Sem STRIPE_WEBHOOK_SECRET nenhum evento é aceito.
func (g *StripeGateway) ConstructEvent(payload []byte, signature string) (*Event, error) {
	if g.cfg.WebhookSecret == "" {
		return nil, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		slog.Error("Erro ao verificar a assinatura do webhook", "error", err)
		return nil, ErrInvalidSignature
	}

	out := &Event{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}

	switch out.Type {
	case EventChargeSucceeded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decodificar charge: %w", err)
		}
		out.ChargeID = ch.ID
		out.Amount = ch.Amount
		out.Currency = string(ch.Currency)
		if ch.Customer != nil {
			out.CustomerID = ch.Customer.ID
		}
		if ch.BillingDetails != nil && ch.BillingDetails.Email != "" {
			out.Email = ch.BillingDetails.Email
		} else {
			out.Email = ch.ReceiptEmail
		}

	case EventCheckoutSessionComplete:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decodificar checkout session: %w", err)
		}
		out.SessionID = s.ID
		out.Amount = s.AmountTotal
		out.Currency = string(s.Currency)
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.CustomerDetails != nil {
			out.Email = s.CustomerDetails.Email
		}
		if out.Email == "" {
			out.Email = s.CustomerEmail
		}

	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decodificar subscription: %w", err)
		}
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}

	return out, nil
}
