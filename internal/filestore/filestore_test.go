package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocal(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "../../etc/Lesson One.PDF", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))
	assert.NotContains(t, url, "..")

	stored := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Remove(ctx, url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ctx, url), "removing twice is not an error")
}

func TestLocal_RemoveForeignURL(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, url := range []string{"https://elsewhere.example.com/a.png", "/static/a.png", "/uploads/"} {
		assert.ErrorIs(t, store.Remove(context.Background(), url), ErrForeignURL, url)
	}
}

func TestSafeExt(t *testing.T) {
	tests := map[string]string{
		"video.mp4":        ".mp4",
		"photo.JPEG":       ".jpeg",
		"noext":            "",
		"weird.p$p":        "",
		"long.abcdefghijk": "",
		"archive.tar.gz":   ".gz",
	}
	for name, want := range tests {
		assert.Equal(t, want, safeExt(name), name)
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"video/mp4", true},
		{"image/jpeg", true},
		{"IMAGE/PNG", true},
		{"image/webp", true},
		{"application/pdf; name=doc.pdf", true},
		{"image/gif", false},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.contentType))
		})
	}
}
