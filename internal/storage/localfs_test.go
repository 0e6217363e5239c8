package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_StagePromote(t *testing.T) {
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	staged, err := st.Stage(ctx, Key(CollectionUploads, "a.png"), bytes.NewReader([]byte("png")), PutObjectOptions{Size: 3})
	require.NoError(t, err)
	assert.Equal(t, "uploads/a.png", staged.Key)
	assert.True(t, strings.HasPrefix(filepath.Base(staged.TempKey), ".staging-"))

	// Not visible under the final name before promotion.
	_, err = os.Stat(filepath.Join(dir, "uploads", "a.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(staged.TempKey)))
	require.NoError(t, err)

	require.NoError(t, st.Promote(ctx, staged))

	b, err := os.ReadFile(filepath.Join(dir, "uploads", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(b))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(staged.TempKey)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_Discard(t *testing.T) {
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	staged, err := st.Stage(ctx, "uploads/b.png", strings.NewReader("x"), PutObjectOptions{Size: 1})
	require.NoError(t, err)
	require.NoError(t, st.Discard(ctx, staged))

	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Discarding twice is fine.
	assert.NoError(t, st.Discard(ctx, staged))
}

func TestLocalStorage_DeleteMissingIsNotError(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, st.Delete(context.Background(), "profiles/nope.png"))
}

func TestLocalStorage_Get(t *testing.T) {
	dir := t.TempDir()
	st, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	staged, err := st.Stage(ctx, "uploads/c.png", strings.NewReader("data"), PutObjectOptions{Size: 4})
	require.NoError(t, err)
	require.NoError(t, st.Promote(ctx, staged))

	rc, info, err := st.Get(ctx, "uploads/c.png")
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "data", string(b))
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	_, _, err = st.Get(ctx, "uploads/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../x.png", "/etc/passwd", "uploads/../../x", `uploads\x.png`} {
		_, err := st.Stage(ctx, key, strings.NewReader("x"), PutObjectOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		_, _, err = st.Get(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestPublicPathRoundTrip(t *testing.T) {
	k := Key(CollectionProfiles, "me.png")
	assert.Equal(t, "/profiles/me.png", PublicPath(k))
	assert.Equal(t, k, KeyFromPublicPath(PublicPath(k)))
}

func TestIsStaging(t *testing.T) {
	staged := stagingName(Key(CollectionUploads, "a.png"), "0b1c")
	assert.True(t, IsStaging(staged))
	assert.False(t, IsStaging(Key(CollectionUploads, "a.png")))
	assert.False(t, IsStaging("uploads/.staging/a.png"))
}
