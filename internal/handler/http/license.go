package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/willjrcristo/floating-notes-license/internal/service"
)

type LicenseService interface {
	Verify(ctx context.Context, key string) (*service.LicenseInfo, error)
	Check(ctx context.Context, key string) (*service.LicenseInfo, error)
	CheckDevice(ctx context.Context, deviceID, key string) (*service.LicenseInfo, error)
}

// LicenseHandler gerencia as rotas de /api/licenses.
type LicenseHandler struct {
	service LicenseService
}

func NewLicenseHandler(s LicenseService) *LicenseHandler {
	return &LicenseHandler{
		service: s,
	}
}

func (h *LicenseHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/verify", h.Verify)            // POST /api/licenses/verify
	r.Post("/check-device", h.CheckDevice) // POST /api/licenses/check-device
	r.Post("/check", h.Check)              // POST /api/licenses/check

	return r
}

// @Summary      Verifica uma chave de licença
// @Description  Igual a /check, mas uma chave inexistente devolve 404
// @Tags         licencas
// @Accept       json
// @Produce      json
// @Param        body  body      LicenseKeyRequest  true  "Chave da licença"
// @Success      200   {object}  service.LicenseInfo
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/licenses/verify [post]
func (h *LicenseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req LicenseKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	info, err := h.service.Verify(r.Context(), req.LicenseKey)
	if err != nil {
		if errors.Is(err, service.ErrLicenseNotFound) {
			respondWithJSON(w, http.StatusNotFound, map[string]any{"valid": false, "error": err.Error()})
			return
		}
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

// @Summary      Consulta uma chave de licença
// @Description  Devolve valid=false quando a chave não existe
// @Tags         licencas
// @Accept       json
// @Produce      json
// @Param        body  body      LicenseKeyRequest  true  "Chave da licença"
// @Success      200   {object}  service.LicenseInfo
// @Failure      400   {object}  map[string]string
// @Router       /api/licenses/check [post]
func (h *LicenseHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req LicenseKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	info, err := h.service.Check(r.Context(), req.LicenseKey)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

// @Summary      Consulta a licença de um dispositivo
// @Description  Com licenseKey, vincula a licença ao dispositivo se ela ainda estiver livre
// @Tags         licencas
// @Accept       json
// @Produce      json
// @Param        body  body      CheckDeviceRequest  true  "Dispositivo e chave opcional"
// @Success      200   {object}  service.LicenseInfo
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/licenses/check-device [post]
func (h *LicenseHandler) CheckDevice(w http.ResponseWriter, r *http.Request) {
	var req CheckDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	info, err := h.service.CheckDevice(r.Context(), req.DeviceID, req.LicenseKey)
	if err != nil {
		if errors.Is(err, service.ErrDeviceMismatch) {
			respondWithJSON(w, http.StatusForbidden, map[string]any{"valid": false, "isPro": false, "error": err.Error()})
			return
		}
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}
