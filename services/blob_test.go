package services

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBlobStorePutAndSignedDownload(t *testing.T) {
	blob, err := NewLocalBlobStore(t.TempDir(), []byte("test-secret"))
	require.NoError(t, err)

	locator, size, err := blob.Put("site plan.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.EqualValues(t, len("pdf bytes"), size)
	assert.True(t, strings.HasPrefix(locator, "/uploads/rmps/"))

	signed, err := blob.SignURL(locator, DownloadURLTTL)
	require.NoError(t, err)

	parsed, err := url.Parse(signed)
	require.NoError(t, err)
	expires, err := strconv.ParseInt(parsed.Query().Get("expires"), 10, 64)
	require.NoError(t, err)

	assert.True(t, blob.Verify(locator, expires, parsed.Query().Get("sig")))

	path, err := blob.Resolve(locator)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestLocalBlobStoreRejectsBadSignatures(t *testing.T) {
	blob, err := NewLocalBlobStore(t.TempDir(), []byte("test-secret"))
	require.NoError(t, err)

	locator, _, err := blob.Put("plan.pdf", strings.NewReader("data"))
	require.NoError(t, err)

	future := time.Now().Add(time.Hour).Unix()
	assert.False(t, blob.Verify(locator, future, "forged"))

	// Expired links fail even with a correctly computed signature.
	past := time.Now().Add(-time.Minute).Unix()
	assert.False(t, blob.Verify(locator, past, blob.signature(locator, past)))
}

func TestLocalBlobStoreRejectsTraversalLocators(t *testing.T) {
	blob, err := NewLocalBlobStore(t.TempDir(), []byte("test-secret"))
	require.NoError(t, err)

	_, err = blob.Resolve("/uploads/rmps/../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = blob.Resolve("/etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
