package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
SKYDRIVE_DOTENV_A="quoted"
SKYDRIVE_DOTENV_B = plain
not a pair
`), 0o600))

	t.Setenv("SKYDRIVE_DOTENV_A", "")
	t.Setenv("SKYDRIVE_DOTENV_B", "from-env")

	LoadDotEnv(path)

	assert.Equal(t, "quoted", os.Getenv("SKYDRIVE_DOTENV_A"))
	assert.Equal(t, "from-env", os.Getenv("SKYDRIVE_DOTENV_B"))
}

func TestLoadDotEnv_Missing(t *testing.T) {
	LoadDotEnv(filepath.Join(t.TempDir(), "absent"))
}

func TestCredentialsFile(t *testing.T) {
	t.Setenv("SKYDRIVE_TEST_CREDENTIALS", "")
	assert.Empty(t, CredentialsFile("/mod"))

	t.Setenv("SKYDRIVE_TEST_CREDENTIALS", ".testdata/creds.json")
	assert.Equal(t, filepath.Join("/mod", ".testdata/creds.json"), CredentialsFile("/mod"))

	t.Setenv("SKYDRIVE_TEST_CREDENTIALS", "/abs/creds.json")
	assert.Equal(t, "/abs/creds.json", CredentialsFile("/mod"))
}

func TestFindModuleRoot(t *testing.T) {
	root := FindModuleRoot("fallback")
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, err)
}
