package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/willjrcristo/floating-notes-license/internal/service"
)

type SubscriptionService interface {
	CreateCheckout(ctx context.Context, email, deviceID string) (*service.CheckoutResult, error)
	CheckLicense(ctx context.Context, q service.LicenseQuery) (*service.LicenseInfo, error)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
}

// SubscriptionHandler gerencia as rotas de /api/subscriptions.
type SubscriptionHandler struct {
	service SubscriptionService
}

func NewSubscriptionHandler(s SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: s,
	}
}

func (h *SubscriptionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/create-checkout", h.CreateCheckout) // POST /api/subscriptions/create-checkout
	r.Post("/check-license", h.CheckLicense)     // POST /api/subscriptions/check-license

	return r
}

// @Summary      Cria uma sessão de checkout na Stripe
// @Description  Gera a URL de pagamento e uma licença pendente que será ativada pelo webhook
// @Tags         assinaturas
// @Accept       json
// @Produce      json
// @Param        body  body      CreateCheckoutRequest  true  "E-mail do cliente e dispositivo opcional"
// @Success      200   {object}  service.CheckoutResult
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/subscriptions/create-checkout [post]
func (h *SubscriptionHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.CreateCheckout(r.Context(), req.Email, req.DeviceID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// @Summary      Consulta a licença de uma assinatura
// @Description  Busca por licenseKey, sessionId ou email (nessa ordem)
// @Tags         assinaturas
// @Accept       json
// @Produce      json
// @Param        body  body      CheckLicenseRequest  true  "Identificador da licença"
// @Success      200   {object}  CheckLicenseResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/subscriptions/check-license [post]
func (h *SubscriptionHandler) CheckLicense(w http.ResponseWriter, r *http.Request) {
	var req CheckLicenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	info, err := h.service.CheckLicense(r.Context(), service.LicenseQuery{
		LicenseKey: req.LicenseKey,
		SessionID:  req.SessionID,
		Email:      req.Email,
	})
	if err != nil {
		if errors.Is(err, service.ErrLicenseNotFound) {
			respondWithJSON(w, http.StatusNotFound, map[string]any{"hasLicense": false, "error": err.Error()})
			return
		}
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CheckLicenseResponse{HasLicense: true, LicenseInfo: info})
}
