package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
	"github.com/willjrcristo/floating-notes-license/internal/mailer"
	"github.com/willjrcristo/floating-notes-license/internal/payment"
	"github.com/willjrcristo/floating-notes-license/internal/repository"
)

// PaymentGateway é a parte da Stripe que o serviço usa.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
	ConstructEvent(payload []byte, signature string) (*payment.Event, error)
}

// Mailer entrega a chave da licença ao cliente.
type Mailer interface {
	SendLicense(ctx context.Context, msg mailer.LicenseEmail) error
}

// CheckoutResult é devolvido à extensão para abrir a página de pagamento.
type CheckoutResult struct {
	SessionID  string `json:"sessionId"`
	URL        string `json:"url"`
	LicenseKey string `json:"licenseKey"`
}

// LicenseQuery identifica uma licença por chave, sessão de checkout ou e-mail,
// nessa ordem de prioridade.
type LicenseQuery struct {
	LicenseKey string
	SessionID  string
	Email      string
}

// SubscriptionService cuida do checkout e do ciclo de vida das licenças pagas.
type SubscriptionService struct {
	repo     repository.Repository
	gateway  PaymentGateway
	mailer   Mailer
	validity time.Duration
	now      func() time.Time
}

// NewSubscriptionService cria o serviço. validity é a duração de uma licença Pro paga.
func NewSubscriptionService(repo repository.Repository, gateway PaymentGateway, m Mailer, validity time.Duration) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		gateway:  gateway,
		mailer:   m,
		validity: validity,
		now:      time.Now,
	}
}

// CreateCheckout cria a sessão na Stripe e uma licença pending/free que aguarda o pagamento.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, email, deviceID string) (*CheckoutResult, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, ErrInvalidInput
	}

	key, err := GenerateLicenseKey()
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Email:      email,
		LicenseKey: key,
		DeviceID:   deviceID,
	})
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, ErrPaymentUnavailable
		}
		return nil, fmt.Errorf("criar sessão de checkout: %w", err)
	}

	license := domain.License{
		ID:              uuid.NewString(),
		Key:             key,
		Email:           email,
		DeviceID:        strings.TrimSpace(deviceID),
		Tier:            domain.TierFree,
		Status:          domain.StatusPending,
		StripeSessionID: sess.ID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateLicense(ctx, license); err != nil {
		return nil, err
	}

	licensesIssued.WithLabelValues("checkout").Inc()
	slog.Info("Licença pendente criada para checkout", "license_id", license.ID, "session_id", sess.ID)
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL, LicenseKey: key}, nil
}

// CheckLicense consulta a licença pela chave, sessão de checkout ou e-mail.
func (s *SubscriptionService) CheckLicense(ctx context.Context, q LicenseQuery) (*LicenseInfo, error) {
	var (
		license *domain.License
		err     error
	)
	switch {
	case strings.TrimSpace(q.LicenseKey) != "":
		license, err = s.repo.GetLicenseByKey(ctx, NormalizeLicenseKey(q.LicenseKey))
	case strings.TrimSpace(q.SessionID) != "":
		license, err = s.repo.GetLicenseBySession(ctx, strings.TrimSpace(q.SessionID))
	case strings.TrimSpace(q.Email) != "":
		var licenses []domain.License
		licenses, err = s.repo.ListLicensesByEmail(ctx, normalizeEmail(q.Email))
		license = preferredLicense(licenses, s.now())
	default:
		return nil, ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}
	if license == nil {
		return nil, ErrLicenseNotFound
	}
	return NewLicenseInfo(license, s.now()), nil
}

// HandleStripeWebhook valida a assinatura e processa o evento.
func (s *SubscriptionService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ConstructEvent(payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNotConfigured):
			webhookEvents.WithLabelValues("unknown", "not_configured").Inc()
			slog.Error("Webhook da Stripe recebido sem STRIPE_WEBHOOK_SECRET configurado")
			return ErrPaymentUnavailable
		case errors.Is(err, payment.ErrInvalidSignature):
			webhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
			return ErrWebhookStripe
		}
		webhookEvents.WithLabelValues("unknown", "error").Inc()
		return err
	}

	switch event.Type {
	case payment.EventChargeSucceeded:
		err = s.handleChargeSucceeded(ctx, event)
	case payment.EventCheckoutSessionComplete:
		err = s.handleCheckoutCompleted(ctx, event)
	case payment.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		slog.Info("Webhook da Stripe recebido, mas não tratado", "event_type", event.Type, "event_id", event.ID)
		webhookEvents.WithLabelValues(event.Type, "ignored").Inc()
		return nil
	}

	result := "processed"
	if err != nil {
		result = "error"
	}
	webhookEvents.WithLabelValues(event.Type, result).Inc()
	return err
}

// handleChargeSucceeded procura a licença a ativar, nesta ordem:
//  1. licença pendente com o e-mail de cobrança;
//  2. licença ativa do mesmo cliente Stripe (renovação);
//  3. a licença pendente mais recente.
//
// O passo 3 é ambíguo quando há vários checkouts pendentes ao mesmo tempo.
// Um charge já registrado (reenvio da Stripe) é ignorado.
func (s *SubscriptionService) handleChargeSucceeded(ctx context.Context, event *payment.Event) error {
	if event.ChargeID != "" {
		paid, err := s.repo.GetPaymentByCharge(ctx, event.ChargeID)
		if err != nil {
			return err
		}
		if paid != nil {
			slog.Info("Charge já processado; ignorando reenvio", "event_id", event.ID, "charge_id", event.ChargeID, "license_id", paid.LicenseID)
			return nil
		}
	}

	pending, err := s.repo.ListLicensesByStatus(ctx, domain.StatusPending)
	if err != nil {
		return err
	}

	if event.Email != "" {
		for i := range pending {
			if strings.EqualFold(pending[i].Email, event.Email) {
				return s.activate(ctx, &pending[i], event, "email")
			}
		}
	}

	if event.CustomerID != "" {
		existing, err := s.repo.ListLicensesByCustomer(ctx, event.CustomerID)
		if err != nil {
			return err
		}
		// Licenças canceladas (inactive) não voltam por um charge avulso.
		for i := range existing {
			if existing[i].Status == domain.StatusActive {
				return s.activate(ctx, &existing[i], event, "renewal")
			}
		}
	}

	if len(pending) == 0 {
		slog.Warn("Pagamento recebido sem licença pendente", "event_id", event.ID, "charge_id", event.ChargeID)
		return nil
	}

	// pending vem ordenado da mais recente para a mais antiga.
	slog.Warn("Nenhuma licença pendente com o e-mail do pagamento; usando a mais recente",
		"event_id", event.ID, "pending_count", len(pending), "license_id", pending[0].ID)
	return s.activate(ctx, &pending[0], event, "fallback")
}

func (s *SubscriptionService) handleCheckoutCompleted(ctx context.Context, event *payment.Event) error {
	if event.SessionID == "" {
		return nil
	}
	license, err := s.repo.GetLicenseBySession(ctx, event.SessionID)
	if err != nil {
		return err
	}
	if license == nil || license.Status != domain.StatusPending {
		// Já ativada pelo charge.succeeded ou sessão desconhecida.
		return nil
	}
	return s.activate(ctx, license, event, "session")
}

func (s *SubscriptionService) handleSubscriptionDeleted(ctx context.Context, event *payment.Event) error {
	if event.CustomerID == "" {
		return nil
	}
	licenses, err := s.repo.ListLicensesByCustomer(ctx, event.CustomerID)
	if err != nil {
		return err
	}
	for _, l := range licenses {
		if l.Status == domain.StatusInactive {
			continue
		}
		l.Status = domain.StatusInactive
		if err := s.repo.UpdateLicense(ctx, l); err != nil {
			return err
		}
		slog.Info("Licença desativada por cancelamento da assinatura", "license_id", l.ID, "customer_id", event.CustomerID)
	}
	return nil
}

// activate promove a licença para active/pro, registra o pagamento e envia o e-mail.
// Falha no e-mail só é registrada no log.
func (s *SubscriptionService) activate(ctx context.Context, license *domain.License, event *payment.Event, match string) error {
	firstActivation := license.Status == domain.StatusPending
	now := s.now().UTC()

	license.Activate(now, s.validity)
	if event.CustomerID != "" {
		license.StripeCustomerID = event.CustomerID
	}
	if license.Email == "" {
		license.Email = normalizeEmail(event.Email)
	}
	if err := s.repo.UpdateLicense(ctx, *license); err != nil {
		return err
	}

	if event.ChargeID != "" {
		p := domain.Payment{
			ID:             uuid.NewString(),
			LicenseID:      license.ID,
			StripeChargeID: event.ChargeID,
			Email:          normalizeEmail(event.Email),
			Amount:         event.Amount,
			Currency:       event.Currency,
			CreatedAt:      now,
		}
		if err := s.repo.CreatePayment(ctx, p); err != nil {
			return err
		}
	}

	licensesActivated.WithLabelValues(match).Inc()
	slog.Info("Licença ativada", "license_id", license.ID, "match", match, "expires_at", license.ExpiresAt)

	if firstActivation && license.Email != "" {
		err := s.mailer.SendLicense(ctx, mailer.LicenseEmail{
			To:         license.Email,
			LicenseKey: license.Key,
			ExpiresAt:  *license.ExpiresAt,
		})
		if err != nil {
			slog.Error("Falha ao enviar e-mail da licença", "license_id", license.ID, "error", err)
		}
	}
	return nil
}
