package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	k, err := CleanKey("menu/../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", k)

	k, err = CleanKey(`menu\12\photo.png`)
	require.NoError(t, err)
	assert.Equal(t, "menu/12/photo.png", k)

	_, err = CleanKey("/")
	assert.Error(t, err)
}

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocal(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "menu/7/photo.png", strings.NewReader("png"), "image/png"))

	ok, err := d.Exists(ctx, "menu/7/photo.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := d.Get(ctx, "menu/7/photo.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png", string(body))

	assert.Equal(t, "http://localhost:8080/storage/menu/7/photo.png", d.URL("menu/7/photo.png"))

	require.NoError(t, d.Delete(ctx, "menu/7/photo.png"))
	require.NoError(t, d.Delete(ctx, "menu/7/photo.png"))

	_, err = d.Get(ctx, "menu/7/photo.png")
	assert.ErrorIs(t, err, ErrNotExist)
}
