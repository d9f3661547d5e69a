package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/willjrcristo/floating-notes-license/internal/domain"
)

// database é o conteúdo do arquivo já carregado em memória.
type database struct {
	Users    []domain.User
	Licenses []domain.License
	Payments []domain.Payment
}

// userRecord existe porque domain.User esconde o hash da senha no JSON da API,
// mas no arquivo ele precisa ser gravado.
type userRecord struct {
	domain.User
	PasswordHash string `json:"password"`
}

// fileFormat é o formato do arquivo JSON em disco.
type fileFormat struct {
	Users    []userRecord     `json:"users"`
	Licenses []domain.License `json:"licenses"`
	Payments []domain.Payment `json:"payments"`
}

// jsonFileRepository guarda tudo em um único arquivo JSON.
// Cada operação lê o arquivo inteiro, altera em memória e reescreve.
// O mutex serializa as operações dentro do processo; dois processos
// apontando para o mesmo arquivo continuam com "último a escrever vence".
type jsonFileRepository struct {
	path string
	mu   sync.Mutex
}

// NewJSONFileRepository cria o repositório e o arquivo vazio, se ainda não existir.
func NewJSONFileRepository(path string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("criar diretório de dados: %w", err)
	}
	r := &jsonFileRepository{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := r.save(&database{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("acessar arquivo de dados: %w", err)
	}
	return r, nil
}

func (r *jsonFileRepository) load() (*database, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("ler arquivo de dados: %w", err)
	}
	var f fileFormat
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("decodificar arquivo de dados: %w", err)
		}
	}
	db := &database{Licenses: f.Licenses, Payments: f.Payments}
	for _, u := range f.Users {
		user := u.User
		user.PasswordHash = u.PasswordHash
		db.Users = append(db.Users, user)
	}
	return db, nil
}

// save grava em um arquivo temporário e renomeia, para nunca deixar o arquivo pela metade.
func (r *jsonFileRepository) save(db *database) error {
	f := fileFormat{
		Users:    make([]userRecord, 0, len(db.Users)),
		Licenses: db.Licenses,
		Payments: db.Payments,
	}
	for _, u := range db.Users {
		f.Users = append(f.Users, userRecord{User: u, PasswordHash: u.PasswordHash})
	}
	if f.Licenses == nil {
		f.Licenses = []domain.License{}
	}
	if f.Payments == nil {
		f.Payments = []domain.Payment{}
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("codificar arquivo de dados: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("gravar arquivo de dados: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("substituir arquivo de dados: %w", err)
	}
	return nil
}

// read executa fn sobre uma cópia carregada do arquivo.
func (r *jsonFileRepository) read(ctx context.Context, fn func(db *database)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	db, err := r.load()
	if err != nil {
		return err
	}
	fn(db)
	return nil
}

// update carrega, aplica fn e reescreve o arquivo se fn não falhar.
func (r *jsonFileRepository) update(ctx context.Context, fn func(db *database) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	db, err := r.load()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	return r.save(db)
}

func (r *jsonFileRepository) CreateUser(ctx context.Context, user domain.User) error {
	return r.update(ctx, func(db *database) error {
		for _, u := range db.Users {
			if strings.EqualFold(u.Email, user.Email) {
				return ErrDuplicateEmail
			}
		}
		db.Users = append(db.Users, user)
		return nil
	})
}

func (r *jsonFileRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var found *domain.User
	err := r.read(ctx, func(db *database) {
		for i := range db.Users {
			if strings.EqualFold(db.Users[i].Email, email) {
				found = &db.Users[i]
				return
			}
		}
	})
	return found, err
}

func (r *jsonFileRepository) CreateLicense(ctx context.Context, license domain.License) error {
	return r.update(ctx, func(db *database) error {
		db.Licenses = append(db.Licenses, license)
		return nil
	})
}

func (r *jsonFileRepository) UpdateLicense(ctx context.Context, license domain.License) error {
	return r.update(ctx, func(db *database) error {
		for i := range db.Licenses {
			if db.Licenses[i].ID == license.ID {
				db.Licenses[i] = license
				return nil
			}
		}
		return ErrNotFound
	})
}

// findLicense devolve a licença mais recente que satisfaz match.
func (r *jsonFileRepository) findLicense(ctx context.Context, match func(l domain.License) bool) (*domain.License, error) {
	list, err := r.filterLicenses(ctx, match)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// filterLicenses devolve as licenças que satisfazem match, da mais recente para a mais antiga.
func (r *jsonFileRepository) filterLicenses(ctx context.Context, match func(l domain.License) bool) ([]domain.License, error) {
	var out []domain.License
	err := r.read(ctx, func(db *database) {
		for _, l := range db.Licenses {
			if match(l) {
				out = append(out, l)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *jsonFileRepository) GetLicenseByKey(ctx context.Context, key string) (*domain.License, error) {
	return r.findLicense(ctx, func(l domain.License) bool { return l.Key == key })
}

func (r *jsonFileRepository) GetLicenseBySession(ctx context.Context, sessionID string) (*domain.License, error) {
	return r.findLicense(ctx, func(l domain.License) bool { return l.StripeSessionID == sessionID })
}

func (r *jsonFileRepository) ListLicensesByDevice(ctx context.Context, deviceID string) ([]domain.License, error) {
	return r.filterLicenses(ctx, func(l domain.License) bool { return l.DeviceID == deviceID })
}

func (r *jsonFileRepository) ListLicensesByEmail(ctx context.Context, email string) ([]domain.License, error) {
	return r.filterLicenses(ctx, func(l domain.License) bool { return strings.EqualFold(l.Email, email) })
}

func (r *jsonFileRepository) ListLicensesByStatus(ctx context.Context, status domain.LicenseStatus) ([]domain.License, error) {
	return r.filterLicenses(ctx, func(l domain.License) bool { return l.Status == status })
}

func (r *jsonFileRepository) ListLicensesByCustomer(ctx context.Context, customerID string) ([]domain.License, error) {
	return r.filterLicenses(ctx, func(l domain.License) bool { return l.StripeCustomerID == customerID })
}

func (r *jsonFileRepository) CreatePayment(ctx context.Context, payment domain.Payment) error {
	return r.update(ctx, func(db *database) error {
		db.Payments = append(db.Payments, payment)
		return nil
	})
}

func (r *jsonFileRepository) GetPaymentByCharge(ctx context.Context, chargeID string) (*domain.Payment, error) {
	var found *domain.Payment
	err := r.read(ctx, func(db *database) {
		for i := range db.Payments {
			if db.Payments[i].StripeChargeID == chargeID {
				found = &db.Payments[i]
				return
			}
		}
	})
	return found, err
}

// Ping confirma que o arquivo ainda pode ser lido e decodificado.
func (r *jsonFileRepository) Ping(ctx context.Context) error {
	return r.read(ctx, func(*database) {})
}

func (r *jsonFileRepository) Close() error { return nil }
