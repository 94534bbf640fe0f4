package remote

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recRunner struct {
	name string
	args []string
}

func (r *recRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.name, r.args = name, args
	return "", nil
}

func TestOpenSSHRun(t *testing.T) {
	r := &recRunner{}
	ch := NewOpenSSHChannel(testRemoteConfig(t), r)

	_, err := ch.Run(context.Background(), "screen -XS ispeed quit")
	require.NoError(t, err)
	assert.Equal(t, "ssh", r.name)
	assert.Equal(t, []string{"-o", "BatchMode=yes", "-o", "ConnectTimeout=30", "pi@raspi.local", "screen -XS ispeed quit"}, r.args)
}

func TestOpenSSHFetchUsesRecursiveScp(t *testing.T) {
	r := &recRunner{}
	cfg := testRemoteConfig(t)
	cfg.Port = 2222
	ch := NewOpenSSHChannel(cfg, r)

	local := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, ch.Fetch(context.Background(), "ispeed/data/", local))
	assert.Equal(t, "scp", r.name)
	assert.Equal(t, []string{"-o", "BatchMode=yes", "-o", "ConnectTimeout=30", "-P", "2222", "-r", "pi@raspi.local:ispeed/data/*", local}, r.args)
	assert.DirExists(t, local)
}

func TestOpenSSHPush(t *testing.T) {
	r := &recRunner{}
	cfg := testRemoteConfig(t)
	cfg.PrivateKeyPath = "/home/op/.ssh/id_ed25519"
	ch := NewOpenSSHChannel(cfg, r)

	require.NoError(t, ch.Push(context.Background(), "/tmp/ispeed", "ispeed/ispeed"))
	assert.Equal(t, []string{"-o", "BatchMode=yes", "-o", "ConnectTimeout=30", "-i", "/home/op/.ssh/id_ed25519", "/tmp/ispeed", "pi@raspi.local:ispeed/ispeed"}, r.args)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "ispeed/data", shellQuote("ispeed/data"))
	assert.Equal(t, "'my data'", shellQuote("my data"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}
