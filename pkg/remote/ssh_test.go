package remote

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestClientConfigNeedsAuth(t *testing.T) {
	cfg := testRemoteConfig(t)
	_, err := clientConfig(cfg)
	assert.Error(t, err)

	cfg.Password = "raspberry"
	cc, err := clientConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "pi", cc.User)
	assert.Len(t, cc.Auth, 1)
}

func TestClientConfigLoadsPrivateKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	keyFile := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(block), 0600))

	cfg := testRemoteConfig(t)
	cfg.PrivateKeyPath = keyFile
	cfg.Password = "fallback"
	cc, err := clientConfig(cfg)
	require.NoError(t, err)
	assert.Len(t, cc.Auth, 2)
}

func TestClientConfigMissingKnownHosts(t *testing.T) {
	cfg := testRemoteConfig(t)
	cfg.Password = "raspberry"
	cfg.KnownHosts = filepath.Join(t.TempDir(), "missing")
	_, err := clientConfig(cfg)
	assert.Error(t, err)
}

type exitStatusErr int

func (e exitStatusErr) Error() string   { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitStatusErr) ExitStatus() int { return int(e) }

func TestTarChangedWhileReading(t *testing.T) {
	assert.True(t, tarChangedWhileReading(exitStatusErr(1)))
	assert.True(t, tarChangedWhileReading(fmt.Errorf("wait: %w", exitStatusErr(1))))
	assert.False(t, tarChangedWhileReading(exitStatusErr(2)))
	assert.False(t, tarChangedWhileReading(errors.New("connection lost")))
}
