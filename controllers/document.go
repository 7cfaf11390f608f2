package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
)

// DocumentController uploads RMP documents and serves signed downloads.
type DocumentController struct {
	store  *services.RecordStore
	engine *services.WorkflowEngine
	blob   services.BlobStore
}

func NewDocumentController(store *services.RecordStore, engine *services.WorkflowEngine, blob services.BlobStore) *DocumentController {
	return &DocumentController{store: store, engine: engine, blob: blob}
}

type uploadResult struct {
	FileName   string `json:"file_name"`
	DocumentID string `json:"document_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Upload stores one or more files against an RMP. Each file streams to the
// blob store first and only then gets its metadata row, so a document row can
// never reference a locator that does not resolve. Failures are reported per
// file; an orphaned blob left by a metadata failure is logged, not deleted.
func (ctl *DocumentController) Upload(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	rmpID := c.Param("id")

	// Fail fast on a missing case; the submission gate itself is still
	// enforced inside each insert transaction.
	if _, err := ctl.store.GetRMP(rmpID); err != nil {
		respondError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}
	files := form.File["documents"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files selected"})
		return
	}

	results := make([]uploadResult, 0, len(files))
	succeeded := 0
	var gateErr error

	for _, file := range files {
		if file.Size == 0 {
			continue
		}

		src, err := file.Open()
		if err != nil {
			results = append(results, uploadResult{FileName: file.Filename, Error: "failed to read file"})
			continue
		}

		locator, size, err := ctl.blob.Put(file.Filename, src)
		src.Close()
		if err != nil {
			log.Printf("upload: blob write failed for %q on rmp %s: %v", file.Filename, rmpID, err)
			results = append(results, uploadResult{FileName: file.Filename, Error: "failed to store file"})
			continue
		}

		doc, err := ctl.engine.AddDocument(rmpID, file.Filename, locator, file.Header.Get("Content-Type"), size, actor)
		if err != nil {
			// The blob stays behind; acceptable collateral, but it must
			// be traceable.
			log.Printf("upload: metadata write failed for %q on rmp %s, orphaned blob %s: %v",
				file.Filename, rmpID, locator, err)
			if errors.Is(err, services.ErrForbidden) {
				gateErr = err
			}
			results = append(results, uploadResult{FileName: file.Filename, Error: err.Error()})
			continue
		}

		succeeded++
		results = append(results, uploadResult{FileName: file.Filename, DocumentID: doc.ID})
	}

	if succeeded == 0 && gateErr != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": gateErr.Error(), "results": results})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// List returns an RMP's documents, newest first.
func (ctl *DocumentController) List(c *gin.Context) {
	rmpID := c.Param("id")

	if _, err := ctl.store.GetRMP(rmpID); err != nil {
		respondError(c, err)
		return
	}

	documents, err := ctl.store.ListDocuments(rmpID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

// Download returns a short-lived signed URL for one document.
func (ctl *DocumentController) Download(c *gin.Context) {
	doc, err := ctl.store.GetDocument(c.Param("id"), c.Param("document_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := ctl.blob.SignURL(doc.FilePath, services.DownloadURLTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Serve delivers blob bytes for a valid signed URL. Mounted on a public
// route; the signature is the authorization.
func (ctl *DocumentController) Serve(c *gin.Context) {
	locator := "/uploads/rmps/" + c.Param("filename")

	expires, err := strconv.ParseInt(c.Query("expires"), 10, 64)
	if err != nil || !ctl.blob.Verify(locator, expires, c.Query("sig")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or expired download link"})
		return
	}

	path, err := ctl.blob.Resolve(locator)
	if err != nil {
		respondError(c, err)
		return
	}

	c.File(path)
}
