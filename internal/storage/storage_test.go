package storage

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestDecodeDataURI(t *testing.T) {
	t.Run("valid png", func(t *testing.T) {
		img, err := DecodeDataURI(dataURI("image/png", pngBytes))
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, ".png", img.Extension)
		assert.Equal(t, pngBytes, img.Data)
	})

	t.Run("content is sniffed rather than trusted", func(t *testing.T) {
		img, err := DecodeDataURI(dataURI("image/jpeg", pngBytes))
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
	})

	testCases := []struct {
		name     string
		uri      string
		expected error
	}{
		{"plain url", "https://example.org/cake.png", ErrInvalidImage},
		{"missing payload", "data:image/png;base64,", ErrInvalidImage},
		{"not base64", "data:image/png;base64,!!!", ErrInvalidImage},
		{"not an image", dataURI("image/png", []byte("hello, world")), ErrUnsupportedImage},
		{"wrong media type", dataURI("text/plain", pngBytes), ErrInvalidImage},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURI(tt.uri)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestNewImageKey(t *testing.T) {
	key := NewImageKey("/recipes/", ".png")
	assert.True(t, strings.HasPrefix(key, "recipes/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, NewImageKey("recipes", ".png"))
}

func TestLocalStorage(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root, "http://localhost:8080/media/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "recipes/cake.png", pngBytes, "image/png"))
	saved, err := os.ReadFile(filepath.Join(root, "recipes", "cake.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, saved)

	assert.Equal(t, "http://localhost:8080/media/recipes/cake.png", store.URL("recipes/cake.png"))
	assert.Equal(t, "", store.URL(""))

	require.NoError(t, store.Delete(ctx, "recipes/cake.png"))
	_, err = os.Stat(filepath.Join(root, "recipes", "cake.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "recipes/cake.png"))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	err = store.Save(context.Background(), "../escape.png", pngBytes, "image/png")
	assert.Error(t, err)
}
