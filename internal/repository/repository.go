package repository

import (
	"context"
	"errors"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
)

// ErrDuplicateEmail é devolvido quando já existe um usuário com o mesmo e-mail.
var ErrDuplicateEmail = errors.New("e-mail já cadastrado")

// ErrNotFound é devolvido pelas operações de atualização quando o registro não existe.
// As buscas seguem a convenção de devolver nil, nil quando nada é encontrado.
var ErrNotFound = errors.New("registro não encontrado")

// Repository define as operações de persistência de usuários, licenças e pagamentos.
// Existem duas implementações: arquivo JSON (padrão) e SQLite.
type Repository interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	CreateLicense(ctx context.Context, license domain.License) error
	UpdateLicense(ctx context.Context, license domain.License) error
	GetLicenseByKey(ctx context.Context, key string) (*domain.License, error)
	GetLicenseBySession(ctx context.Context, sessionID string) (*domain.License, error)
	// As listagens vêm ordenadas da mais recente para a mais antiga.
	ListLicensesByDevice(ctx context.Context, deviceID string) ([]domain.License, error)
	ListLicensesByEmail(ctx context.Context, email string) ([]domain.License, error)
	ListLicensesByStatus(ctx context.Context, status domain.LicenseStatus) ([]domain.License, error)
	ListLicensesByCustomer(ctx context.Context, customerID string) ([]domain.License, error)

	CreatePayment(ctx context.Context, payment domain.Payment) error
	GetPaymentByCharge(ctx context.Context, chargeID string) (*domain.Payment, error)

	Ping(ctx context.Context) error
	Close() error
}
