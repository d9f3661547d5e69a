package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
	"github.com/willjrcristo/floating-notes-license/internal/service"
)

// AuthService é o que o AuthHandler precisa da camada de serviço.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, *domain.License, error)
	Login(ctx context.Context, email, password string) (*domain.User, *domain.License, error)
}

// AuthHandler gerencia as rotas de /api/auth.
type AuthHandler struct {
	service AuthService
}

func NewAuthHandler(s AuthService) *AuthHandler {
	return &AuthHandler{
		service: s,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register) // POST /api/auth/register
	r.Post("/login", h.Login)       // POST /api/auth/login

	return r
}

// @Summary      Registra um novo usuário
// @Description  Cria a conta e uma licença free vinculada a ela
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "E-mail e senha"
// @Success      201   {object}  AccountResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, license, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, AccountResponse{
		Success: true,
		User:    user,
		License: service.NewLicenseInfo(license, time.Now()),
	})
}

// @Summary      Autentica um usuário
// @Description  Confere a senha e devolve a licença mais recente da conta
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "E-mail e senha"
// @Success      200   {object}  AccountResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, license, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	resp := AccountResponse{Success: true, User: user}
	if license != nil {
		resp.License = service.NewLicenseInfo(license, time.Now())
	}
	respondWithJSON(w, http.StatusOK, resp)
}
