package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessImageGIF(t *testing.T) {
	data, ext, contentType, err := ProcessImage(testutil.SmallGIF)
	require.NoError(t, err)
	assert.Equal(t, ".gif", ext)
	assert.Equal(t, "image/gif", contentType)
	assert.NotEmpty(t, data)
}

func TestProcessImageShrinksLargeImages(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2000, 1000))
	for x := 0; x < 2000; x++ {
		src.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	data, ext, _, err := ProcessImage(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 960, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
}

func TestProcessImageRejectsNonImages(t *testing.T) {
	_, _, _, err := ProcessImage([]byte("plain text"))
	assert.ErrorIs(t, err, ErrInvalidImageType)
}

func TestProcessImageRejectsHugeDimensions(t *testing.T) {
	data := testutil.PNGHeader(t, 8000, 8000)

	format, err := CheckImage(data)
	assert.Equal(t, "png", format)
	assert.ErrorIs(t, err, ErrImageDimensions)

	_, _, _, err = ProcessImage(data)
	assert.ErrorIs(t, err, ErrImageDimensions)

	format, err = CheckImage(testutil.PNGHeader(t, 6000, 6000))
	assert.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestReadUploadLimit(t *testing.T) {
	up, err := ReadUpload(strings.NewReader("12345"), "a.gif", 5)
	require.NoError(t, err)
	assert.Equal(t, "a.gif", up.Filename)
	assert.Len(t, up.Data, 5)

	_, err = ReadUpload(strings.NewReader("123456"), "a.gif", 5)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestLocalMediaStore(t *testing.T) {
	root := t.TempDir()
	store := NewLocalMediaStore(root, "/media/")
	ctx := context.Background()

	key := NewImageKey(".gif")
	assert.True(t, strings.HasPrefix(key, "posts/"))
	assert.True(t, strings.HasSuffix(key, ".gif"))

	require.NoError(t, store.Save(ctx, key, testutil.SmallGIF, "image/gif"))
	saved, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, testutil.SmallGIF, saved)
	assert.Equal(t, "/media/"+key, store.URL(key))
	assert.Equal(t, "", store.URL(""))

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, key))
}
