package service

import (
	"ai_academy_backend/internal/config"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageUploadAndDelete(t *testing.T) {
	root := t.TempDir()
	s := NewStorageService(&config.StorageConfig{Type: "local", LocalPath: root})
	require.True(t, s.IsLocal())
	ctx := context.Background()

	url, err := s.Upload(ctx, "avatars/u1/a.png", strings.NewReader("img"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/u1/a.png", url)
	assert.Equal(t, url, s.GetURL("/avatars/u1/a.png"))

	data, err := os.ReadFile(filepath.Join(root, "avatars", "u1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	require.NoError(t, s.Delete(ctx, "avatars/u1/a.png"))
	assert.NoFileExists(t, filepath.Join(root, "avatars", "u1", "a.png"))
}

func TestLocalStorageStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	p := &LocalStorageProvider{Root: root}

	dst, err := p.path("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dst, root))
}
