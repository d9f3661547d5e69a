package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"
)

// BackupVersion é gravada em todo backup. Restaurações só aceitam versões conhecidas.
const BackupVersion = "1.0"

var supportedBackupVersions = map[string]bool{BackupVersion: true}

// SettingsKeys é a lista fixa de configurações incluídas no backup.
var SettingsKeys = []string{
	"theme",
	"fontSize",
	"fontFamily",
	"opacity",
	"defaultColor",
	"panelPosition",
	"shortcut",
	"autoSave",
	"autoSaveInterval",
	"showTimestamps",
}

var (
	ErrInvalidBackup     = errors.New("arquivo de backup inválido")
	ErrUnsupportedBackup = errors.New("versão de backup não suportada")
)

// noteHeader é o mínimo exigido de cada nota. O resto do objeto é copiado
// sem decodificar, para que campos novos da extensão sobrevivam ao backup.
type noteHeader struct {
	ID string `json:"id"`
}

type BackupMetadata struct {
	NoteCount     int    `json:"noteCount"`
	SettingsCount int    `json:"settingsCount"`
	ExportedBy    string `json:"exportedBy,omitempty"`
}

type BackupData struct {
	Notes    []json.RawMessage          `json:"notes"`
	Settings map[string]json.RawMessage `json:"settings"`
	Metadata BackupMetadata             `json:"metadata"`
}

// Backup é o documento exportado para o usuário.
type Backup struct {
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      *BackupData `json:"data"`
}

// Validate confere versão e presença dos dados.
func (b *Backup) Validate() error {
	if b == nil || b.Version == "" || b.Data == nil {
		return ErrInvalidBackup
	}
	if !supportedBackupVersions[b.Version] {
		return fmt.Errorf("%w: %s", ErrUnsupportedBackup, b.Version)
	}
	for i, raw := range b.Data.Notes {
		if err := validateNote(raw); err != nil {
			return fmt.Errorf("%w: nota %d: %v", ErrInvalidBackup, i, err)
		}
	}
	return nil
}

func validateNote(raw json.RawMessage) error {
	var h noteHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return err
	}
	if h.ID == "" {
		return errors.New("sem id")
	}
	return nil
}

// BackupFilename devolve o nome sugerido para o download.
func BackupFilename(t time.Time) string {
	return "floating-notes-backup-" + t.Format("2006-01-02") + ".json"
}

// ParseBackup lê e valida um documento de backup.
func ParseBackup(r io.Reader) (*Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// BackupManager exporta e restaura notas e configurações.
type BackupManager struct {
	storage    Storage
	exportedBy string
	now        func() time.Time
}

func NewBackupManager(storage Storage, exportedBy string) *BackupManager {
	return &BackupManager{
		storage:    storage,
		exportedBy: exportedBy,
		now:        time.Now,
	}
}

// Create monta o backup a partir do storage atual.
func (m *BackupManager) Create(ctx context.Context) (*Backup, error) {
	notes := []json.RawMessage{}
	if _, err := getJSON(ctx, m.storage, KeyNotes, &notes); err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []json.RawMessage{}
	}

	settings, err := m.storage.Get(ctx, SettingsKeys...)
	if err != nil {
		return nil, fmt.Errorf("ler configurações: %w", err)
	}

	return &Backup{
		Version:   BackupVersion,
		Timestamp: m.now().UTC(),
		Data: &BackupData{
			Notes:    notes,
			Settings: settings,
			Metadata: BackupMetadata{
				NoteCount:     len(notes),
				SettingsCount: len(settings),
				ExportedBy:    m.exportedBy,
			},
		},
	}, nil
}

// Export escreve o backup em w e devolve o nome de arquivo sugerido.
func (m *BackupManager) Export(ctx context.Context, w io.Writer) (string, error) {
	b, err := m.Create(ctx)
	if err != nil {
		return "", err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return "", err
	}
	return BackupFilename(b.Timestamp), nil
}

// RestoreResult resume o que foi restaurado.
type RestoreResult struct {
	NotesRestored    int
	SettingsRestored int
	LicensePreserved bool
}

// Restore apaga todo o storage e grava o conteúdo do backup.
// As credenciais de licença são lidas antes da limpeza e regravadas depois;
// nunca vêm do backup. Não há rollback: uma falha depois do Clear deixa o
// storage parcialmente restaurado.
func (m *BackupManager) Restore(ctx context.Context, b *Backup) (*RestoreResult, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	license, err := m.storage.Get(ctx, LicenseKeys...)
	if err != nil {
		return nil, fmt.Errorf("ler licença atual: %w", err)
	}

	items := map[string]json.RawMessage{}
	for k, v := range b.Data.Settings {
		if slices.Contains(LicenseKeys, k) {
			slog.Warn("Ignorando credencial de licença presente no backup", "key", k)
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, v); err != nil {
			return nil, fmt.Errorf("%w: configuração %q: %v", ErrInvalidBackup, k, err)
		}
		items[k] = compact.Bytes()
	}
	notes := b.Data.Notes
	if notes == nil {
		notes = []json.RawMessage{}
	}
	rawNotes, err := json.Marshal(notes)
	if err != nil {
		return nil, err
	}
	settingsCount := len(items)
	items[KeyNotes] = rawNotes

	if err := m.storage.Clear(ctx); err != nil {
		return nil, fmt.Errorf("limpar storage: %w", err)
	}
	if len(license) > 0 {
		if err := m.storage.Set(ctx, license); err != nil {
			return nil, fmt.Errorf("regravar licença: %w", err)
		}
	}
	if err := m.storage.Set(ctx, items); err != nil {
		return nil, fmt.Errorf("gravar dados restaurados: %w", err)
	}

	slog.Info("Backup restaurado", "notes", len(notes), "settings", settingsCount, "license_preserved", len(license) > 0)
	return &RestoreResult{
		NotesRestored:    len(notes),
		SettingsRestored: settingsCount,
		LicensePreserved: len(license) > 0,
	}, nil
}

// Import lê um backup de r e restaura.
func (m *BackupManager) Import(ctx context.Context, r io.Reader) (*RestoreResult, error) {
	b, err := ParseBackup(r)
	if err != nil {
		return nil, err
	}
	return m.Restore(ctx, b)
}
