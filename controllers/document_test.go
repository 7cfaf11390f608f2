package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"safety-compliance-api/models"
	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBlobStore records Put calls and can be told to fail for one file name.
type stubBlobStore struct {
	puts   []string
	failOn string
}

func (s *stubBlobStore) Put(suggestedName string, r io.Reader) (string, int64, error) {
	s.puts = append(s.puts, suggestedName)
	if suggestedName == s.failOn {
		return "", 0, fmt.Errorf("%w: disk full", services.ErrStorage)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	return "/uploads/rmps/rmp_stub_" + suggestedName, int64(len(data)), nil
}

func (s *stubBlobStore) SignURL(locator string, ttl time.Duration) (string, error) {
	return locator + "?expires=0&sig=stub", nil
}

func (s *stubBlobStore) Resolve(locator string) (string, error) { return locator, nil }

func (s *stubBlobStore) Verify(locator string, expires int64, signature string) bool { return true }

func multipartUpload(t *testing.T, c *gin.Context, files [][2]string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile("documents", f[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
}

func TestUploadReportsPerFileResults(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	blob := &stubBlobStore{failOn: "photos.zip"}
	ctl := NewDocumentController(store, engine, blob)

	c, w := testContext(t, rmp.ID)
	multipartUpload(t, c, [][2]string{
		{"plan.pdf", "pdf bytes"},
		{"photos.zip", "zip bytes"},
	})
	ctl.Upload(c)

	// One failing file must not abort the batch.
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results []uploadResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)

	assert.Equal(t, "plan.pdf", resp.Results[0].FileName)
	assert.NotEmpty(t, resp.Results[0].DocumentID)
	assert.Empty(t, resp.Results[0].Error)

	assert.Equal(t, "photos.zip", resp.Results[1].FileName)
	assert.Empty(t, resp.Results[1].DocumentID)
	assert.NotEmpty(t, resp.Results[1].Error)

	// Every file hit the blob store before any metadata was written.
	assert.Equal(t, []string{"plan.pdf", "photos.zip"}, blob.puts)

	docs, err := store.ListDocuments(rmp.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "plan.pdf", docs[0].DocumentName)
	assert.Equal(t, "/uploads/rmps/rmp_stub_plan.pdf", docs[0].FilePath)
}

func TestUploadForbiddenOnClosedCase(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	blob := &stubBlobStore{}
	ctl := NewDocumentController(store, engine, blob)

	_, _, _, err := engine.SetStatus(rmp.ID, models.StatusApproved, "", services.Actor{ID: 1, Name: "Sam Safety"})
	require.NoError(t, err)

	c, w := testContext(t, rmp.ID)
	multipartUpload(t, c, [][2]string{{"late.pdf", "pdf bytes"}})
	ctl.Upload(c)

	assert.Equal(t, http.StatusForbidden, w.Code)

	docs, err := store.ListDocuments(rmp.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUploadRejectsEmptyForm(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	ctl := NewDocumentController(store, engine, &stubBlobStore{})

	c, w := testContext(t, rmp.ID)
	multipartUpload(t, c, nil)
	ctl.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
