package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStorage(t *testing.T, s Storage, values map[string]any) {
	t.Helper()
	items, err := encodeItems(values)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), items))
}

// sampleNotes usa o formato gravado pela extensão: timestamps em
// milissegundos e campos que o backup não conhece (tags, zIndex).
const sampleNotes = `[
	{"id":"n1","title":"Compras","content":"leite\npão","color":"#fff59d","x":10,"y":20,"width":240,"height":180,
	 "createdAt":1767225600000,"updatedAt":1767225600000,"tags":["casa"],"zIndex":7},
	{"id":"n2","content":"reunião às 15h","x":300,"y":40,"pinned":true,
	 "createdAt":1767225600000,"updatedAt":1767229200000}
]`

func TestBackupManager_RoundTripPreservesLicense(t *testing.T) {
	ctx := context.Background()
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			seedStorage(t, s, map[string]any{
				KeyNotes:        json.RawMessage(sampleNotes),
				"theme":         "dark",
				"fontSize":      14,
				"panelPosition": map[string]int{"x": 5, "y": 7},
				"autoSave":      true,
				KeyLastSaved:    "2026-02-01T10:00:00Z",
				KeyLicenseKey:   "FN-ANTIGA",
			})
			originalSettings, err := s.Get(ctx, SettingsKeys...)
			require.NoError(t, err)

			m := NewBackupManager(s, "notesctl")
			m.now = func() time.Time { return time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC) }

			var buf bytes.Buffer
			filename, err := m.Export(ctx, &buf)
			require.NoError(t, err)
			assert.Equal(t, "floating-notes-backup-2026-02-03.json", filename)
			assert.NotContains(t, buf.String(), "FN-ANTIGA", "licença não entra no backup")

			// Entre o backup e a restauração o usuário troca de licença e mexe nas notas.
			seedStorage(t, s, map[string]any{
				KeyNotes:         json.RawMessage(`[{"id":"n3","content":"nova"}]`),
				"theme":          "light",
				"opacity":        0.5,
				KeyLicenseKey:    "FN-ATUAL",
				KeyLicenseStatus: "pro",
			})

			result, err := m.Import(ctx, &buf)
			require.NoError(t, err)
			assert.Equal(t, 2, result.NotesRestored)
			assert.Equal(t, 4, result.SettingsRestored)
			assert.True(t, result.LicensePreserved)

			restoredNotes, err := s.Get(ctx, KeyNotes)
			require.NoError(t, err)
			assert.JSONEq(t, sampleNotes, string(restoredNotes[KeyNotes]), "notas voltam com todos os campos")

			restoredSettings, err := s.Get(ctx, SettingsKeys...)
			require.NoError(t, err)
			require.Len(t, restoredSettings, len(originalSettings))
			for k, v := range originalSettings {
				assert.JSONEq(t, string(v), string(restoredSettings[k]), k)
			}
			_, hasOpacity := restoredSettings["opacity"]
			assert.False(t, hasOpacity, "configuração criada depois do backup deve sumir")

			var key, status string
			_, err = getJSON(ctx, s, KeyLicenseKey, &key)
			require.NoError(t, err)
			_, err = getJSON(ctx, s, KeyLicenseStatus, &status)
			require.NoError(t, err)
			assert.Equal(t, "FN-ATUAL", key)
			assert.Equal(t, "pro", status)

			leftovers, err := s.Get(ctx, KeyLastSaved)
			require.NoError(t, err)
			assert.Empty(t, leftovers, "timestamps são apagados na restauração")
		})
	}
}

func TestBackupManager_RestoreIgnoresLicenseInBackup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	seedStorage(t, s, map[string]any{KeyLicenseKey: "FN-LOCAL"})

	b := &Backup{
		Version: BackupVersion,
		Data: &BackupData{
			Settings: map[string]json.RawMessage{
				"theme":       json.RawMessage(`"dark"`),
				KeyLicenseKey: json.RawMessage(`"FN-DO-BACKUP"`),
			},
		},
	}

	result, err := NewBackupManager(s, "").Restore(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NotesRestored)
	assert.Equal(t, 1, result.SettingsRestored)

	var key string
	_, err = getJSON(ctx, s, KeyLicenseKey, &key)
	require.NoError(t, err)
	assert.Equal(t, "FN-LOCAL", key)

	var notes []json.RawMessage
	found, err := getJSON(ctx, s, KeyNotes, &notes)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, notes)
}

func TestBackupManager_RestoreWithoutLicense(t *testing.T) {
	s := NewMemoryStorage()
	b := &Backup{Version: BackupVersion, Data: &BackupData{Notes: []json.RawMessage{json.RawMessage(`{"id":"n1"}`)}}}

	result, err := NewBackupManager(s, "").Restore(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, result.LicensePreserved)

	items, err := s.Get(context.Background(), LicenseKeys...)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseBackup_Invalid(t *testing.T) {
	cases := map[string]struct {
		input string
		err   error
	}{
		"json quebrado":      {`{`, ErrInvalidBackup},
		"sem versão":         {`{"data":{"notes":[]}}`, ErrInvalidBackup},
		"sem dados":          {`{"version":"1.0"}`, ErrInvalidBackup},
		"versão futura":      {`{"version":"9.0","data":{"notes":[]}}`, ErrUnsupportedBackup},
		"nota com tipo ruim": {`{"version":"1.0","data":{"notes":"x"}}`, ErrInvalidBackup},
		"nota sem objeto":    {`{"version":"1.0","data":{"notes":[1]}}`, ErrInvalidBackup},
		"nota sem id":        {`{"version":"1.0","data":{"notes":[{"content":"a"}]}}`, ErrInvalidBackup},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBackup(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestBackupManager_InvalidBackupLeavesStorageUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	seedStorage(t, s, map[string]any{"theme": "dark"})

	_, err := NewBackupManager(s, "").Import(ctx, strings.NewReader(`{"version":"2.0","data":{}}`))
	require.ErrorIs(t, err, ErrUnsupportedBackup)

	items, err := s.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
