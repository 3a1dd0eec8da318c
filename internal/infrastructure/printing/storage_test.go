package printing

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileSystemStorage(t *testing.T) {
	t.Run("creates the directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "docs")
		s, err := NewFileSystemStorage(dir, "", nil)
		require.NoError(t, err)
		require.NotNil(t, s)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("requires a directory", func(t *testing.T) {
		_, err := NewFileSystemStorage("", "", nil)
		assert.Error(t, err)
	})
}

func TestFileSystemStorage_StoreAndGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileSystemStorage(t.TempDir(), "", nil)
	require.NoError(t, err)

	res, err := s.Store(ctx, "quotes/Q-00001-v2.pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)
	assert.Equal(t, "quotes/Q-00001-v2.pdf", res.Key)
	assert.Equal(t, int64(13), res.Size)
	assert.Contains(t, res.URL, "file://")
	assert.Contains(t, res.URL, "quotes/Q-00001-v2.pdf")

	rc, err := s.Get(ctx, "quotes/Q-00001-v2.pdf")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))
}

func TestFileSystemStorage_StoreRejectsEmpty(t *testing.T) {
	s, err := NewFileSystemStorage(t.TempDir(), "", nil)
	require.NoError(t, err)

	_, err = s.Store(context.Background(), "a.pdf", nil)
	assert.Error(t, err)
}

func TestFileSystemStorage_StoreCancelled(t *testing.T) {
	s, err := NewFileSystemStorage(t.TempDir(), "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Store(ctx, "a.pdf", []byte("x"))
	assert.Error(t, err)
}

func TestFileSystemStorage_BlocksTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileSystemStorage(t.TempDir(), "", nil)
	require.NoError(t, err)

	for _, key := range []string{"../escape.pdf", "quotes/../../escape.pdf", "/etc/passwd", `..\escape.pdf`, ""} {
		t.Run(key, func(t *testing.T) {
			_, err := s.Store(ctx, key, []byte("x"))
			assert.Error(t, err)
			_, err = s.Get(ctx, key)
			assert.Error(t, err)
		})
	}
}

func TestFileSystemStorage_Delete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileSystemStorage(t.TempDir(), "", nil)
	require.NoError(t, err)

	_, err = s.Store(ctx, "orders/o.pdf", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "orders/o.pdf"))
	_, err = s.Get(ctx, "orders/o.pdf")
	assert.Error(t, err)

	assert.NoError(t, s.Delete(ctx, "orders/o.pdf"), "deleting a missing document is not an error")
}

func TestFileSystemStorage_URLWithBase(t *testing.T) {
	s, err := NewFileSystemStorage(t.TempDir(), "https://docs.example.com/files/", nil)
	require.NoError(t, err)

	u, err := s.URL(context.Background(), "quotes/q.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/files/quotes/q.pdf", u)
}

func TestContainsDotDot(t *testing.T) {
	assert.True(t, containsDotDot("../a"))
	assert.True(t, containsDotDot("a/../b"))
	assert.True(t, containsDotDot(`a\..\b`))
	assert.False(t, containsDotDot("a..b/c"))
	assert.False(t, containsDotDot("quotes/x.pdf"))
}

func TestSanitizeKeyPart(t *testing.T) {
	assert.Equal(t, "Q-2026-001", SanitizeKeyPart("Q-2026-001"))
	assert.Equal(t, "Acme-Corp-quote", SanitizeKeyPart("Acme Corp / quote"))
	assert.Equal(t, "untitled", SanitizeKeyPart("../"))
	assert.Equal(t, "untitled", SanitizeKeyPart(""))
}
