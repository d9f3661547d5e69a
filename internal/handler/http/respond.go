package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/willjrcristo/floating-notes-license/internal/service"
)

const maxJSONBodyBytes = int64(1 << 20)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON lê o corpo e valida as tags `validate`. Em caso de erro já responde 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage transforma os erros do validator em uma frase curta.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Dados inválidos"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "Campos inválidos: " + strings.Join(fields, ", ")
}

// statusForError mapeia os erros de negócio para status HTTP.
// Erros inesperados viram 500 com mensagem genérica; o detalhe fica só no log.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrDeviceMismatch):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrLicenseNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrPaymentUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		slog.Error("Erro inesperado", "error", err)
		return http.StatusInternalServerError, "Erro interno do servidor"
	}
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	code, message := statusForError(err)
	respondWithError(w, code, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	slog.Error("API Error", "code", code, "message", message)
	respondWithJSON(w, code, map[string]any{"success": false, "error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
