package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
	"github.com/willjrcristo/floating-notes-license/internal/repository"
)

const minPasswordLength = 8

// AuthService cuida do cadastro e login de usuários.
type AuthService struct {
	repo repository.Repository
	now  func() time.Time
}

func NewAuthService(repo repository.Repository) *AuthService {
	return &AuthService{
		repo: repo,
		now:  time.Now,
	}
}

// Register cria o usuário e uma licença free ativa vinculada a ele.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, *domain.License, error) {
	email = normalizeEmail(email)
	if !validEmail(email) || len(password) < minPasswordLength {
		return nil, nil, ErrInvalidInput
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, ErrEmailAlreadyUsed
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// Duas requisições simultâneas podem passar pela checagem acima.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, ErrEmailAlreadyUsed
		}
		return nil, nil, err
	}

	key, err := GenerateLicenseKey()
	if err != nil {
		return nil, nil, err
	}
	license := domain.License{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Key:       key,
		Email:     email,
		Tier:      domain.TierFree,
		Status:    domain.StatusActive,
		CreatedAt: now,
	}
	if err := s.repo.CreateLicense(ctx, license); err != nil {
		return nil, nil, err
	}

	licensesIssued.WithLabelValues("registration").Inc()
	slog.Info("Usuário registrado", "user_id", user.ID)
	return &user, &license, nil
}

// Login confere a senha e devolve a licença em uso pela conta,
// para que ele recupere a chave em outro dispositivo.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.License, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, ErrInvalidInput
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("Hash de senha inválido no armazenamento", "user_id", user.ID, "error", err)
		return nil, nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	licenses, err := s.repo.ListLicensesByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	return user, preferredLicense(licenses, s.now()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
