package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
	"github.com/willjrcristo/floating-notes-license/internal/repository"
)

// LicenseInfo é a visão de uma licença devolvida aos clientes.
type LicenseInfo struct {
	Valid      bool                 `json:"valid"`
	IsPro      bool                 `json:"isPro"`
	Expired    bool                 `json:"expired"`
	LicenseKey string               `json:"licenseKey,omitempty"`
	Tier       domain.Tier          `json:"tier,omitempty"`
	Status     domain.LicenseStatus `json:"status,omitempty"`
	DeviceID   string               `json:"deviceId,omitempty"`
	ExpiresAt  *time.Time           `json:"expiresAt,omitempty"`
}

// NewLicenseInfo aplica a regra de isPro no instante now.
func NewLicenseInfo(l *domain.License, now time.Time) *LicenseInfo {
	if l == nil {
		return &LicenseInfo{Valid: false}
	}
	return &LicenseInfo{
		Valid:      true,
		IsPro:      l.IsPro(now),
		Expired:    l.IsExpired(now),
		LicenseKey: l.Key,
		Tier:       l.Tier,
		Status:     l.Status,
		DeviceID:   l.DeviceID,
		ExpiresAt:  l.ExpiresAt,
	}
}

// preferredLicense escolhe a licença que vale para um dispositivo ou e-mail
// quando há várias: Pro utilizável, depois ativa, depois inativa e por último
// pendente. No empate fica a mais recente (a lista vem nessa ordem).
func preferredLicense(licenses []domain.License, now time.Time) *domain.License {
	var best *domain.License
	bestRank := 0
	for i := range licenses {
		rank := licenseRank(licenses[i], now)
		if best == nil || rank < bestRank {
			best, bestRank = &licenses[i], rank
		}
	}
	return best
}

func licenseRank(l domain.License, now time.Time) int {
	switch {
	case l.IsPro(now):
		return 0
	case l.Status == domain.StatusActive:
		return 1
	case l.Status == domain.StatusInactive:
		return 2
	default:
		return 3
	}
}

// LicenseService responde às consultas de licença feitas pela extensão.
type LicenseService struct {
	repo repository.Repository
	now  func() time.Time
}

func NewLicenseService(repo repository.Repository) *LicenseService {
	return &LicenseService{
		repo: repo,
		now:  time.Now,
	}
}

// Verify é como Check, mas uma chave inexistente vira ErrLicenseNotFound.
func (s *LicenseService) Verify(ctx context.Context, key string) (*LicenseInfo, error) {
	info, err := s.Check(ctx, key)
	if err != nil {
		return nil, err
	}
	if !info.Valid {
		return info, ErrLicenseNotFound
	}
	return info, nil
}

// Check consulta a chave. Uma chave inexistente devolve Valid=false sem erro.
func (s *LicenseService) Check(ctx context.Context, key string) (*LicenseInfo, error) {
	key = NormalizeLicenseKey(key)
	if key == "" {
		return nil, ErrInvalidInput
	}
	license, err := s.repo.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return NewLicenseInfo(license, s.now()), nil
}

// CheckDevice consulta a licença de um dispositivo.
// Com chave: uma licença ainda sem dispositivo é vinculada a deviceID;
// vinculada a outro dispositivo devolve ErrDeviceMismatch.
// Sem chave: usa a licença já vinculada ao dispositivo.
func (s *LicenseService) CheckDevice(ctx context.Context, deviceID, key string) (*LicenseInfo, error) {
	deviceID = strings.TrimSpace(deviceID)
	key = NormalizeLicenseKey(key)
	if deviceID == "" {
		return nil, ErrInvalidInput
	}

	if key == "" {
		licenses, err := s.repo.ListLicensesByDevice(ctx, deviceID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		return NewLicenseInfo(preferredLicense(licenses, now), now), nil
	}

	license, err := s.repo.GetLicenseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if license == nil {
		return NewLicenseInfo(nil, s.now()), nil
	}

	switch license.DeviceID {
	case deviceID:
	case "":
		license.DeviceID = deviceID
		if err := s.repo.UpdateLicense(ctx, *license); err != nil {
			return nil, err
		}
		slog.Info("Licença vinculada ao dispositivo", "license_id", license.ID, "device_id", deviceID)
	default:
		return nil, ErrDeviceMismatch
	}

	return NewLicenseInfo(license, s.now()), nil
}
