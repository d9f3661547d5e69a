package extension

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	fs, err := NewFileStorage(filepath.Join(t.TempDir(), "storage", "local.json"))
	require.NoError(t, err)
	return map[string]Storage{"memory": NewMemoryStorage(), "file": fs}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			all, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)

			require.NoError(t, s.Set(ctx, map[string]json.RawMessage{
				"theme":    json.RawMessage(`"dark"`),
				"fontSize": json.RawMessage(`14`),
			}))

			got, err := s.Get(ctx, "theme", "nao-existe")
			require.NoError(t, err)
			assert.Equal(t, map[string]json.RawMessage{"theme": json.RawMessage(`"dark"`)}, got)

			var theme string
			found, err := getJSON(ctx, s, "theme", &theme)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "dark", theme)

			require.NoError(t, s.Remove(ctx, "theme"))
			found, err = getJSON(ctx, s, "theme", &theme)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Clear(ctx))
			all, err = s.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestFileStorage_PersistsBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.json")

	first, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, map[string]json.RawMessage{"licenseKey": json.RawMessage(`"FN-X"`)}))

	second, err := NewFileStorage(path)
	require.NoError(t, err)
	got, err := second.Get(ctx, "licenseKey")
	require.NoError(t, err)
	assert.JSONEq(t, `"FN-X"`, string(got["licenseKey"]))
}
