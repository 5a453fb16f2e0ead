package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "matrix", cfg.Namespace)
	assert.Equal(t, 8*time.Second, cfg.APITimeout)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QUEST_NAMESPACE=neo\nQUEST_STORE_DRIVER=memory\n"), 0o600))
	t.Setenv("QUEST_NAMESPACE", "")
	os.Unsetenv("QUEST_NAMESPACE")
	t.Setenv("QUEST_STORE_DRIVER", "")
	os.Unsetenv("QUEST_STORE_DRIVER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "neo", cfg.Namespace)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.StoreDriver = "postgres"
	bad.DSN = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.StoreDriver = "floppy"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.APITimeout = 0
	assert.Error(t, bad.Validate())
}
