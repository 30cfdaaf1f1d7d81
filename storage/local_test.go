package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs, err := NewLocal(LocalConfig{Endpoint: "http://localhost:8080/", Root: root})
	require.NoError(t, err)

	require.NoError(t, fs.PutStream(ctx, "a/b/c.csv", strings.NewReader("\"x\"\n")))
	assert.True(t, fs.Exists(ctx, "a/b/c.csv"))
	assert.False(t, fs.Exists(ctx, "a/b/d.csv"))
	assert.False(t, fs.Exists(ctx, "a/b"))
	assert.Equal(t, "http://localhost:8080/a/b/c.csv", fs.Url("/a/b/c.csv"))
	assert.Equal(t, filepath.Join(root, "a", "b", "c.csv"), fs.Path("a/b/c.csv"))
	assert.Equal(t, filepath.Join(root, "c.csv"), fs.Path("../../c.csv"))

	content, err := os.ReadFile(filepath.Join(root, "a", "b", "c.csv"))
	require.NoError(t, err)
	assert.Equal(t, "\"x\"\n", string(content))

	entries, err := os.ReadDir(filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.True(t, ErrStorage.Has(fs.Delete(ctx, "a/b")))
	assert.True(t, ErrStorage.Has(fs.Delete(ctx, "missing.csv")))
	require.NoError(t, fs.Delete(ctx, "a/b/c.csv"))
	assert.False(t, fs.Exists(ctx, "a/b/c.csv"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestLocalPutStreamFailureLeavesNothing(t *testing.T) {
	root := t.TempDir()
	fs, err := NewLocal(LocalConfig{Root: root})
	require.NoError(t, err)

	err = fs.PutStream(context.Background(), "x.csv", failingReader{})
	assert.True(t, ErrStorage.Has(err))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewLocalRequiresRoot(t *testing.T) {
	_, err := NewLocal(LocalConfig{})
	assert.True(t, ErrStorage.Has(err))
}

func TestNewObject(t *testing.T) {
	content := "\"id\",\"name\"\n\"1\",\"first\"\n"
	obj, err := newObject("./exports/a.csv", strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "exports/a.csv", obj.key)
	assert.Equal(t, "text/csv; charset=utf-8", obj.contentType)
	assert.Equal(t, `attachment; filename="a.csv"`, obj.disposition)

	data, err := obj.readAll()
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	obj, err = newObject("a.zip", strings.NewReader("PK\x03\x04"))
	require.NoError(t, err)
	assert.Equal(t, "application/zip", obj.contentType)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "a/b.csv", objectKey("./a/b.csv"))
	assert.Equal(t, "a/b.csv", objectKey("/a/b.csv"))
	assert.Equal(t, "a/b.csv", objectKey(`a\b.csv`))
	assert.Equal(t, "b.csv", objectKey("../b.csv"))
	assert.Equal(t, []string{"x", "y/z"}, objectKeys([]string{"/x", "y//z"}))
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "ftp"})
	assert.True(t, ErrStorage.Has(err))

	fs, err := New(context.Background(), Config{Driver: DriverLocal, Local: LocalConfig{Root: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, fs)
}
