package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root, "/media")
	require.NoError(t, err)

	ref, err := store.Upload(context.Background(), strings.NewReader("my resume"), "resumes", "Jane Doe CV.PDF")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "resumes/"))
	assert.True(t, strings.HasSuffix(ref, "-Jane_Doe_CV.pdf"))
	assert.Equal(t, "/media/"+ref, store.URL(ref))

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, "my resume", string(content))

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, store.Delete(context.Background(), ref))
}

func TestLocalStorageStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(filepath.Join(root, "media"), "/media/")
	require.NoError(t, err)

	ref, err := store.Upload(context.Background(), strings.NewReader("x"), "../../etc", "passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "etc/"))

	_, err = os.Stat(filepath.Join(root, "media", filepath.FromSlash(ref)))
	assert.NoError(t, err)
}

func TestLocalStorageCancelledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Upload(ctx, strings.NewReader("data"), "resumes", "cv.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractPublicID(t *testing.T) {
	id, typ := extractPublicID("https://res.cloudinary.com/demo/raw/upload/v1712/jobportal/resumes/17-cv.pdf")
	assert.Equal(t, "jobportal/resumes/17-cv.pdf", id)
	assert.Equal(t, "raw", typ)

	id, typ = extractPublicID("https://res.cloudinary.com/demo/image/upload/resumes/scan.png")
	assert.Equal(t, "resumes/scan", id)
	assert.Equal(t, "image", typ)

	id, _ = extractPublicID("https://example.com/nothing-here")
	assert.Empty(t, id)
}
