package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://res.cloudinary.com/x/image/upload/a.png"))
	assert.True(t, IsRemote(" HTTP://example.com/a.jpg"))
	assert.False(t, IsRemote("/tmp/aadhaar.jpg"))
	assert.False(t, IsRemote("photo.png"))
}

func TestReadImageRejectsNonImages(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	_, err := readImage(txt)
	assert.ErrorContains(t, err, "not an image")

	_, err = readImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	_, err = readImage(dir)
	assert.ErrorContains(t, err, "directory")

	png := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	data, err := readImage(png)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestCloudinaryUploadFailsBeforeNetworkOnBadFile(t *testing.T) {
	c, err := NewCloudinary("demo", "key", "secret", nil)
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), "gig")
	assert.Error(t, err)
}
