package remote

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ispeed-collector/pkg/config"
)

type call struct {
	op   string
	args []string
}

type fakeChannel struct {
	calls   []call
	outputs map[string]string
	errs    map[string]error
}

func (f *fakeChannel) Run(_ context.Context, command string) (string, error) {
	f.calls = append(f.calls, call{"run", []string{command}})
	return f.outputs[command], f.errs[command]
}

func (f *fakeChannel) Fetch(_ context.Context, remoteDir, localDir string) error {
	f.calls = append(f.calls, call{"fetch", []string{remoteDir, localDir}})
	return f.errs["fetch"]
}

func (f *fakeChannel) Push(_ context.Context, localFile, remotePath string) error {
	f.calls = append(f.calls, call{"push", []string{localFile, remotePath}})
	return f.errs["push"]
}

func (f *fakeChannel) Close() error { return nil }

func (f *fakeChannel) ops() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

func testRemoteConfig(t *testing.T) config.RemoteConfig {
	cfg := config.NewDefaultConfig().Remote
	cfg.Host = "raspi.local"
	cfg.User = "pi"
	cfg.LocalDataPath = filepath.Join(t.TempDir(), "data")
	return cfg
}

const noSessions = "No Sockets found in /run/screen/S-pi.\n"

func TestCopyFetchesOnce(t *testing.T) {
	ch := &fakeChannel{}
	ctl := NewController(ch, testRemoteConfig(t))

	require.NoError(t, ctl.Copy(context.Background()))
	require.Equal(t, []string{"fetch"}, ch.ops())
	assert.Equal(t, "ispeed/data", ch.calls[0].args[0])
	assert.DirExists(t, ch.calls[0].args[1])
}

func TestInitStartsDetachedSession(t *testing.T) {
	ch := &fakeChannel{
		outputs: map[string]string{"screen -ls": noSessions},
		errs:    map[string]error{"screen -ls": errors.New("exit status 1")},
	}
	cfg := testRemoteConfig(t)
	cfg.ConfigPath = "ispeed/config.yaml"
	ctl := NewController(ch, cfg)

	require.NoError(t, ctl.Init(context.Background()))
	require.Len(t, ch.calls, 2)
	assert.Equal(t, "screen -Sdm ispeed ispeed/ispeed --runmode main --config ispeed/config.yaml", ch.calls[1].args[0])
}

func TestInitRejectsActiveRun(t *testing.T) {
	ch := &fakeChannel{outputs: map[string]string{
		"screen -ls": "There is a screen on:\n\t4242.ispeed\t(Detached)\n1 Socket in /run/screen/S-pi.\n",
	}}
	ctl := NewController(ch, testRemoteConfig(t))

	err := ctl.Init(context.Background())
	assert.ErrorIs(t, err, ErrRunActive)
	assert.Len(t, ch.calls, 1)
}

func TestActiveIgnoresSimilarNames(t *testing.T) {
	ch := &fakeChannel{outputs: map[string]string{
		"screen -ls": "There is a screen on:\n\t4242.ispeed2\t(Detached)\n",
	}}
	active, err := NewController(ch, testRemoteConfig(t)).Active(context.Background())
	require.NoError(t, err)
	assert.False(t, active)
}

func TestActiveTransportFailure(t *testing.T) {
	ch := &fakeChannel{errs: map[string]error{"screen -ls": errors.New("connection refused")}}
	_, err := NewController(ch, testRemoteConfig(t)).Active(context.Background())
	assert.Error(t, err)
}

func TestFinishStopsThenCopies(t *testing.T) {
	ch := &fakeChannel{}
	ctl := NewController(ch, testRemoteConfig(t))

	require.NoError(t, ctl.Finish(context.Background()))
	assert.Equal(t, []string{"run", "fetch"}, ch.ops())
	assert.Equal(t, "screen -XS ispeed quit", ch.calls[0].args[0])
}

func TestFinishCopiesEvenIfStopFails(t *testing.T) {
	ch := &fakeChannel{errs: map[string]error{"screen -XS ispeed quit": errors.New("no session")}}
	ctl := NewController(ch, testRemoteConfig(t))

	err := ctl.Finish(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"run", "fetch"}, ch.ops())
}

func TestUpdatePushesConfiguredBinary(t *testing.T) {
	ch := &fakeChannel{}
	cfg := testRemoteConfig(t)
	cfg.LocalBinary = "/opt/ispeed/bin/ispeed"
	ctl := NewController(ch, cfg)

	require.NoError(t, ctl.Update(context.Background()))
	require.Equal(t, []string{"push"}, ch.ops())
	assert.Equal(t, []string{"/opt/ispeed/bin/ispeed", "ispeed/ispeed"}, ch.calls[0].args)
}

func TestUpdateDefaultsToRunningExecutable(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, NewController(ch, testRemoteConfig(t)).Update(context.Background()))
	require.Len(t, ch.calls, 1)
	assert.NotEmpty(t, ch.calls[0].args[0])
}
