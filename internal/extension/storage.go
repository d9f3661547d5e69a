// Package extension reúne a parte com estado da extensão Floating Notes:
// armazenamento local, gerenciador de licença, backup/restauração e roteamento de mensagens.
package extension

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Chaves usadas no armazenamento local.
const (
	KeyNotes         = "notes"
	KeyLastSaved     = "lastSaved"
	KeyLicenseKey    = "licenseKey"
	KeyLicenseExpiry = "licenseExpiry"
	KeyLicenseStatus = "licenseStatus"
)

// LicenseKeys são as chaves preservadas em uma restauração.
var LicenseKeys = []string{KeyLicenseKey, KeyLicenseExpiry, KeyLicenseStatus}

// Storage segue o modelo do storage.local dos navegadores: chave -> valor JSON.
type Storage interface {
	// Get devolve só as chaves existentes. Sem chaves, devolve tudo.
	Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, items map[string]json.RawMessage) error
	Remove(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

// getJSON decodifica uma chave em dst. Devolve false se a chave não existir.
func getJSON(ctx context.Context, s Storage, key string, dst any) (bool, error) {
	items, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := items[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decodificar %q: %w", key, err)
	}
	return true, nil
}

// encodeItems codifica cada valor em JSON.
func encodeItems(values map[string]any) (map[string]json.RawMessage, error) {
	items := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("codificar %q: %w", k, err)
		}
		items[k] = raw
	}
	return items, nil
}

// --- MEMÓRIA ---

type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]json.RawMessage
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: map[string]json.RawMessage{}}
}

func (m *MemoryStorage) Get(_ context.Context, keys ...string) (map[string]json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return selectKeys(m.items, keys), nil
}

func (m *MemoryStorage) Set(_ context.Context, items map[string]json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.items[k] = append(json.RawMessage(nil), v...)
	}
	return nil
}

func (m *MemoryStorage) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[string]json.RawMessage{}
	return nil
}

// --- ARQUIVO ---

// FileStorage guarda o storage inteiro em um objeto JSON no disco.
// Cada escrita reescreve o arquivo (temporário + rename).
type FileStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileStorage(path string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("criar diretório do storage: %w", err)
	}
	return &FileStorage{path: path}, nil
}

func (f *FileStorage) load() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	items := map[string]json.RawMessage{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("storage corrompido em %s: %w", f.path, err)
	}
	return items, nil
}

func (f *FileStorage) save(items map[string]json.RawMessage) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStorage) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := f.load()
	if err != nil {
		return nil, err
	}
	return selectKeys(items, keys), nil
}

func (f *FileStorage) Set(ctx context.Context, values map[string]json.RawMessage) error {
	return f.mutate(ctx, func(items map[string]json.RawMessage) {
		for k, v := range values {
			items[k] = v
		}
	})
}

func (f *FileStorage) Remove(ctx context.Context, keys ...string) error {
	return f.mutate(ctx, func(items map[string]json.RawMessage) {
		for _, k := range keys {
			delete(items, k)
		}
	})
}

func (f *FileStorage) Clear(ctx context.Context) error {
	return f.mutate(ctx, func(items map[string]json.RawMessage) {
		for k := range items {
			delete(items, k)
		}
	})
}

func (f *FileStorage) mutate(ctx context.Context, fn func(items map[string]json.RawMessage)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := f.load()
	if err != nil {
		return err
	}
	fn(items)
	return f.save(items)
}

func selectKeys(items map[string]json.RawMessage, keys []string) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	if len(keys) == 0 {
		for k, v := range items {
			out[k] = append(json.RawMessage(nil), v...)
		}
		return out
	}
	for _, k := range keys {
		if v, ok := items[k]; ok {
			out[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
