package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) cliConfig {
	t.Helper()
	return cliConfig{
		ServerURL:   "http://127.0.0.1:0",
		StorageFile: filepath.Join(t.TempDir(), "storage.json"),
		ExportedBy:  "teste",
	}
}

func TestRun_Feature(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), cfg, []string{"feature", "notes"}, &out))
	assert.Contains(t, out.String(), "liberada=true")

	out.Reset()
	require.NoError(t, run(context.Background(), cfg, []string{"feature", "backup"}, &out))
	assert.Contains(t, out.String(), "liberada=false")
}

func TestRun_BackupRequiresPro(t *testing.T) {
	cfg := testConfig(t)
	err := run(context.Background(), cfg, []string{"backup", "-dir", t.TempDir()}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "Pro")
}

func TestRun_Restore(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.StorageFile, []byte(`{"licenseKey":"FN-LOCAL","theme":"light"}`), 0o600))

	backup := filepath.Join(t.TempDir(), "backup.json")
	doc := `{"version":"1.0","timestamp":"2026-01-01T00:00:00Z","data":{"notes":[{"id":"n1","title":"a","content":"b"}],"settings":{"theme":"dark"},"metadata":{"noteCount":1,"settingsCount":1,"exportedBy":"x"}}}`
	require.NoError(t, os.WriteFile(backup, []byte(doc), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, []string{"restore", backup}, &out))
	assert.Contains(t, out.String(), "notas: 1, configurações: 1, licença preservada: true")

	out.Reset()
	require.NoError(t, run(context.Background(), cfg, []string{"license", "status"}, &out))
	assert.Contains(t, out.String(), "chave: FN-LOCAL")
	assert.Contains(t, out.String(), "pro: false")
}

func TestRun_Message(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), cfg, []string{"message", `{"action":"togglePanel"}`}, &out))
	assert.Contains(t, out.String(), "ação togglePanel executada")
	assert.Contains(t, out.String(), `{"success":true}`)

	assert.Error(t, run(context.Background(), cfg, []string{"desconhecido"}, &out))
}
