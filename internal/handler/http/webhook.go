package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/willjrcristo/floating-notes-license/internal/service"
)

// StripeWebhookHandler fica separado porque a rota recebe o corpo cru, sem JSON decode.
type StripeWebhookHandler struct {
	service SubscriptionService
}

func NewStripeWebhookHandler(s SubscriptionService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		service: s,
	}
}

// @Summary      Recebe eventos da Stripe
// @Description  Valida o header Stripe-Signature e ativa licenças pendentes
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "Assinatura do evento"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /webhooks/stripe [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536) // Limite de 64KB
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("Erro ao ler o corpo do webhook", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "Erro ao ler corpo da requisição")
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	err = h.service.HandleStripeWebhook(r.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, service.ErrWebhookStripe) {
			respondWithError(w, http.StatusBadRequest, "Falha na verificação da assinatura do webhook")
		} else {
			respondWithServiceError(w, err)
		}
		return
	}

	// Responda com 200 para a Stripe não reenviar o evento.
	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}
