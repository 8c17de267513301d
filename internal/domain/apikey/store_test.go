package apikey

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readValues(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	values := make(map[string]interface{})
	require.NoError(t, sonic.Unmarshal(data, &values))
	return values
}

func TestLoadCreatesPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	store, created, err := Load(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, Placeholder, store.Get())
	assert.True(t, store.IsPlaceholder())

	values := readValues(t, path)
	assert.Equal(t, Placeholder, values[Key])
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "s3cret", "region": "eu"}`), 0o600))

	store, created, err := Load(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "s3cret", store.Get())
	assert.False(t, store.IsPlaceholder())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestSetPersistsAndPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "old", "region": "eu"}`), 0o600))

	store, _, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, store.Set("new-key"))
	assert.Equal(t, "new-key", store.Get())

	values := readValues(t, path)
	assert.Equal(t, "new-key", values[Key])
	assert.Equal(t, "eu", values["region"])

	reopened, created, err := Load(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "new-key", reopened.Get())
}

func TestSetRejectsEmpty(t *testing.T) {
	store, _, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Error(t, store.Set(""))
	assert.Equal(t, Placeholder, store.Get())
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, _, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "rotated"}`), 0o600))
	require.NoError(t, store.Reload())
	assert.Equal(t, "rotated", store.Get())
}

func TestMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "s3cret"}`), 0o600))
	store, _, err := Load(path)
	require.NoError(t, err)

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"exact", "s3cret", true},
		{"empty", "", false},
		{"prefix", "s3c", false},
		{"longer", "s3cret!", false},
		{"case differs", "S3CRET", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.Matches(tt.candidate))
		})
	}
}

func TestMatchesWithoutStoredKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	store, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "", store.Get())
	assert.False(t, store.Matches(""))
	assert.False(t, store.Matches("anything"))
}

func TestConcurrentReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, _, err := Load(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, store.Matches(Placeholder))
		}()
	}
	wg.Wait()
}
