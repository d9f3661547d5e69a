package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
)

// ErrInvalidLicense indica que o servidor não reconhece a chave.
var ErrInvalidLicense = errors.New("chave de licença inválida")

// Valores de licenseStatus no storage.
const (
	cachedStatusPro  = "pro"
	cachedStatusFree = "free"
)

// RemoteLicense é a resposta de POST /api/licenses/check.
type RemoteLicense struct {
	Valid     bool       `json:"valid"`
	IsPro     bool       `json:"isPro"`
	Expired   bool       `json:"expired"`
	Tier      string     `json:"tier,omitempty"`
	Status    string     `json:"status,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// LicenseClient consulta o servidor de licenças.
type LicenseClient interface {
	Check(ctx context.Context, key string) (*RemoteLicense, error)
}

// HTTPLicenseClient fala com a API de licenças.
type HTTPLicenseClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPLicenseClient(baseURL string) *HTTPLicenseClient {
	return &HTTPLicenseClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPLicenseClient) Check(ctx context.Context, key string) (*RemoteLicense, error) {
	body, err := json.Marshal(map[string]string{"licenseKey": key})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/licenses/check", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("consultar servidor de licenças: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("servidor de licenças respondeu %d: %s", resp.StatusCode, apiErr.Error)
	}

	var out RemoteLicense
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decodificar resposta de licença: %w", err)
	}
	return &out, nil
}

// LicenseManager mantém em cache a licença do usuário e responde aos gates de funcionalidade.
type LicenseManager struct {
	storage Storage
	client  LicenseClient
	now     func() time.Time

	mu     sync.RWMutex
	key    string
	status string
	expiry *time.Time
}

func NewLicenseManager(storage Storage, client LicenseClient) *LicenseManager {
	return &LicenseManager{
		storage: storage,
		client:  client,
		now:     time.Now,
	}
}

// Init carrega a licença em cache do storage.
func (m *LicenseManager) Init(ctx context.Context) error {
	items, err := m.storage.Get(ctx, LicenseKeys...)
	if err != nil {
		return err
	}

	var (
		key, status string
		expiry      *time.Time
	)
	if raw, ok := items[KeyLicenseKey]; ok {
		if err := json.Unmarshal(raw, &key); err != nil {
			return fmt.Errorf("decodificar %s: %w", KeyLicenseKey, err)
		}
	}
	if raw, ok := items[KeyLicenseStatus]; ok {
		if err := json.Unmarshal(raw, &status); err != nil {
			return fmt.Errorf("decodificar %s: %w", KeyLicenseStatus, err)
		}
	}
	if raw, ok := items[KeyLicenseExpiry]; ok {
		if err := json.Unmarshal(raw, &expiry); err != nil {
			return fmt.Errorf("decodificar %s: %w", KeyLicenseExpiry, err)
		}
	}

	m.mu.Lock()
	m.key, m.status, m.expiry = key, status, expiry
	m.mu.Unlock()
	return nil
}

// Activate valida a chave no servidor e guarda em cache.
func (m *LicenseManager) Activate(ctx context.Context, key string) (*RemoteLicense, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return nil, ErrInvalidLicense
	}
	remote, err := m.client.Check(ctx, key)
	if err != nil {
		return nil, err
	}
	if !remote.Valid {
		return remote, ErrInvalidLicense
	}
	if err := m.store(ctx, key, remote); err != nil {
		return nil, err
	}
	return remote, nil
}

// Refresh consulta de novo a chave em cache. Uma chave que deixou de existir limpa o cache.
func (m *LicenseManager) Refresh(ctx context.Context) (*RemoteLicense, error) {
	key := m.LicenseKey()
	if key == "" {
		return nil, nil
	}
	remote, err := m.client.Check(ctx, key)
	if err != nil {
		return nil, err
	}
	if !remote.Valid {
		slog.Warn("Licença em cache não é mais reconhecida; removendo")
		return remote, m.Deactivate(ctx)
	}
	return remote, m.store(ctx, key, remote)
}

// Deactivate remove a licença do cache e do storage.
func (m *LicenseManager) Deactivate(ctx context.Context) error {
	if err := m.storage.Remove(ctx, LicenseKeys...); err != nil {
		return err
	}
	m.mu.Lock()
	m.key, m.status, m.expiry = "", "", nil
	m.mu.Unlock()
	return nil
}

func (m *LicenseManager) store(ctx context.Context, key string, remote *RemoteLicense) error {
	status := cachedStatusFree
	if remote.IsPro {
		status = cachedStatusPro
	}
	values := map[string]any{
		KeyLicenseKey:    key,
		KeyLicenseStatus: status,
		KeyLicenseExpiry: remote.ExpiresAt,
	}
	items, err := encodeItems(values)
	if err != nil {
		return err
	}
	if err := m.storage.Set(ctx, items); err != nil {
		return err
	}

	m.mu.Lock()
	m.key, m.status, m.expiry = key, status, remote.ExpiresAt
	m.mu.Unlock()
	return nil
}

// LicenseKey devolve a chave em cache ("" se não houver).
func (m *LicenseManager) LicenseKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.key
}

// ExpiresAt devolve a expiração em cache.
func (m *LicenseManager) ExpiresAt() *time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiry
}

// IsProUser usa só o cache: status pro e expiração nula ou futura.
func (m *LicenseManager) IsProUser() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == "" || m.status != cachedStatusPro {
		return false
	}
	return m.expiry == nil || m.expiry.After(m.now())
}

func (m *LicenseManager) CanUseFeature(f domain.Feature) bool {
	if !f.RequiresPro() {
		return true
	}
	return m.IsProUser()
}
