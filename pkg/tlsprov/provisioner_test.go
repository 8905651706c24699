package tlsprov

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEphemeralAndCleanup(t *testing.T) {
	p := New(WithDir(t.TempDir()))

	certPath, keyPath, err := p.GenerateEphemeral()
	require.NoError(t, err)
	assert.FileExists(t, certPath)
	assert.FileExists(t, keyPath)
	assert.Equal(t, 1, p.EphemeralCount())

	// The generated pair must load back as valid TLS material.
	_, err = p.Load(certPath, keyPath)
	require.NoError(t, err)

	require.NoError(t, p.CleanupEphemeral())
	assert.NoFileExists(t, certPath)
	assert.NoFileExists(t, keyPath)
	assert.Equal(t, 0, p.EphemeralCount())
}

func TestCleanupIdempotent(t *testing.T) {
	p := New(WithDir(t.TempDir()))

	require.NoError(t, p.CleanupEphemeral())
	require.NoError(t, p.CleanupEphemeral())

	_, _, err := p.GenerateEphemeral()
	require.NoError(t, err)
	require.NoError(t, p.CleanupEphemeral())
	require.NoError(t, p.CleanupEphemeral())
}

func TestGenerateEphemeralTracksMulti(t *testing.T) {
	p := New(WithDir(t.TempDir()))

	_, _, err := p.GenerateEphemeral()
	require.NoError(t, err)
	_, _, err = p.GenerateEphemeral()
	require.NoError(t, err)
	assert.Equal(t, 2, p.EphemeralCount())

	require.NoError(t, p.CleanupEphemeral())
	assert.Equal(t, 0, p.EphemeralCount())
}

func TestLoadMissingFiles(t *testing.T) {
	p := New()

	_, err := p.Load("/nonexistent/cert.pem", "/nonexistent/key.pem")
	require.Error(t, err)
}

func TestLoadInvalidPair(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, []byte("not a cert"), 0644))
	require.NoError(t, os.WriteFile(keyPath, []byte("not a key"), 0600))

	p := New()
	_, err := p.Load(certPath, keyPath)
	require.Error(t, err)
}

func TestLoadMismatchedPair(t *testing.T) {
	p := New(WithDir(t.TempDir()))

	cert1, _, err := p.GenerateEphemeral()
	require.NoError(t, err)
	_, key2, err := p.GenerateEphemeral()
	require.NoError(t, err)

	_, err = p.Load(cert1, key2)
	require.Error(t, err)
}
