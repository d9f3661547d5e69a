package http

import (
	"github.com/willjrcristo/floating-notes-license/internal/domain"
	"github.com/willjrcristo/floating-notes-license/internal/service"
)

// --- REQUISIÇÕES ---

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LicenseKeyRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
}

type CheckDeviceRequest struct {
	DeviceID   string `json:"deviceId" validate:"required"`
	LicenseKey string `json:"licenseKey"`
}

type CreateCheckoutRequest struct {
	Email    string `json:"email" validate:"required,email"`
	DeviceID string `json:"deviceId"`
}

// CheckLicenseRequest aceita qualquer um dos três identificadores.
type CheckLicenseRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required_without_all=SessionID Email"`
	SessionID  string `json:"sessionId"`
	Email      string `json:"email" validate:"omitempty,email"`
}

// --- RESPOSTAS ---

type AccountResponse struct {
	Success bool                 `json:"success"`
	User    *domain.User         `json:"user"`
	License *service.LicenseInfo `json:"license,omitempty"`
}

type CheckLicenseResponse struct {
	HasLicense bool `json:"hasLicense"`
	*service.LicenseInfo
}
