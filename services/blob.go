package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadURLTTL is how long a signed download link stays valid.
const DownloadURLTTL = time.Hour

// BlobStore accepts document bytes and returns an opaque durable locator,
// plus signed short-lived download URLs for stored blobs.
type BlobStore interface {
	Put(suggestedName string, r io.Reader) (locator string, size int64, err error)
	SignURL(locator string, ttl time.Duration) (string, error)
	Resolve(locator string) (string, error)
	Verify(locator string, expires int64, signature string) bool
}

// LocalBlobStore keeps blobs on the local filesystem under root/rmps and
// signs download URLs with an HMAC secret.
type LocalBlobStore struct {
	root   string
	secret []byte
}

// NewLocalBlobStore creates the storage directory if needed.
func NewLocalBlobStore(root string, secret []byte) (*LocalBlobStore, error) {
	dir := filepath.Join(root, "rmps")
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("%w: create upload directory: %v", ErrStorage, err)
	}
	return &LocalBlobStore{root: root, secret: secret}, nil
}

// Put streams the blob to disk under a collision-free name and returns its
// locator. The locator is what document rows reference; it never changes.
func (b *LocalBlobStore) Put(suggestedName string, r io.Reader) (string, int64, error) {
	storedName := fmt.Sprintf("rmp_%d_%s%s",
		time.Now().UnixMilli(), uuid.NewString(), filepath.Ext(suggestedName))

	fullPath := filepath.Join(b.root, "rmps", storedName)
	out, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("%w: create blob file: %v", ErrStorage, err)
	}
	defer out.Close()

	size, err := io.Copy(out, r)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("%w: write blob: %v", ErrStorage, err)
	}

	return "/uploads/rmps/" + storedName, size, nil
}

// SignURL returns a download URL valid for ttl.
func (b *LocalBlobStore) SignURL(locator string, ttl time.Duration) (string, error) {
	if _, err := b.Resolve(locator); err != nil {
		return "", err
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s?expires=%d&sig=%s", locator, expires, b.signature(locator, expires)), nil
}

// Verify checks a signed URL's expiry and signature.
func (b *LocalBlobStore) Verify(locator string, expires int64, signature string) bool {
	if time.Now().Unix() > expires {
		return false
	}
	expected := b.signature(locator, expires)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Resolve maps a locator back to the file path it was stored at. Locators
// that escape the storage directory are rejected.
func (b *LocalBlobStore) Resolve(locator string) (string, error) {
	name := strings.TrimPrefix(locator, "/uploads/rmps/")
	if name == locator || name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: invalid locator %q", ErrInvalidInput, locator)
	}
	fullPath := filepath.Join(b.root, "rmps", name)
	if _, err := os.Stat(fullPath); err != nil {
		return "", fmt.Errorf("%w: blob for locator %q", ErrNotFound, locator)
	}
	return fullPath, nil
}

func (b *LocalBlobStore) signature(locator string, expires int64) string {
	mac := hmac.New(sha256.New, b.secret)
	mac.Write([]byte(locator))
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
