package remote

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "./", Typeflag: tar.TypeDir, Mode: 0755}))
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(body))}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestExtractTarIsRepeatable(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"./20190714_174005__ispeed.db": "first run",
		"./20190715_080000__ispeed.db": "second run",
	}
	archive := buildTar(t, files)

	n, err := ExtractTar(bytes.NewReader(archive), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := os.ReadFile(filepath.Join(dir, "20190714_174005__ispeed.db"))
	require.NoError(t, err)

	_, err = ExtractTar(bytes.NewReader(archive), dir)
	require.NoError(t, err)

	again, err := os.ReadFile(filepath.Join(dir, "20190714_174005__ispeed.db"))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestExtractTarOverwritesGrownFile(t *testing.T) {
	dir := t.TempDir()
	_, err := ExtractTar(bytes.NewReader(buildTar(t, map[string]string{"run.db": "abc"})), dir)
	require.NoError(t, err)
	_, err = ExtractTar(bytes.NewReader(buildTar(t, map[string]string{"run.db": "abcdef"})), dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "run.db"))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(data))
}

func TestExtractTarRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	_, err := ExtractTar(bytes.NewReader(buildTar(t, map[string]string{"../evil": "x"})), filepath.Join(dir, "data"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "evil"))
}
