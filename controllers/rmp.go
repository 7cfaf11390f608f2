package controllers

import (
	"net/http"

	"safety-compliance-api/models"
	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
)

// RMPController is the gateway over the workflow engine for RMP cases.
type RMPController struct {
	store    *services.RecordStore
	engine   *services.WorkflowEngine
	notifier services.Notifier
}

func NewRMPController(store *services.RecordStore, engine *services.WorkflowEngine, notifier services.Notifier) *RMPController {
	return &RMPController{store: store, engine: engine, notifier: notifier}
}

type createRMPRequest struct {
	SubcontractorID string `json:"subcontractor_id"`
	ProjectName     string `json:"project_name"`
	DueDate         string `json:"due_date"`
	ReviewerID      *int   `json:"reviewer_id"`
}

type setStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// List returns RMPs split into the active and completed buckets.
func (ctl *RMPController) List(c *gin.Context) {
	active, err := ctl.store.ListRMPsByStatuses(models.ActiveStatuses, "submitted_date DESC")
	if err != nil {
		respondError(c, err)
		return
	}

	completed, err := ctl.store.ListRMPsByStatuses(models.CompletedStatuses, "completed_date DESC")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"active_rmps":    active,
		"completed_rmps": completed,
	})
}

// Create opens a new RMP case in Pending status.
func (ctl *RMPController) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req createRMPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// An assigned reviewer must carry the reviewer capability tag.
	if req.ReviewerID != nil {
		reviewer, err := ctl.store.GetUser(*req.ReviewerID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !reviewer.CanReview() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Assigned reviewer lacks the reviewer role"})
			return
		}
	}

	rmp, err := ctl.engine.CreateCase(services.CreateCaseInput{
		SubcontractorID: req.SubcontractorID,
		ProjectName:     req.ProjectName,
		DueDate:         req.DueDate,
		ReviewerID:      req.ReviewerID,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rmp": rmp})
}

// Detail returns the RMP aggregate: case, subcontractor, 3-year window
// statistics with TRIR, documents, comments and the audit trail, all newest
// first.
func (ctl *RMPController) Detail(c *gin.Context) {
	id := c.Param("id")

	rmp, err := ctl.store.GetRMPWithSubcontractor(id)
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := ctl.store.ListAnnualStats(rmp.SubcontractorID)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(stats) > 3 {
		stats = stats[:3]
	}

	documents, err := ctl.store.ListDocuments(id)
	if err != nil {
		respondError(c, err)
		return
	}

	comments, err := ctl.store.ListComments(id)
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := ctl.store.ListHistory(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rmp":           rmp,
		"annual_data":   stats,
		"three_yr_trir": services.ComputeTRIR(stats),
		"documents":     documents,
		"comments":      comments,
		"history":       history,
	})
}

// SetStatus transitions the RMP. Re-setting the current status is an
// idempotent success with no audit entry.
func (ctl *RMPController) SetStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	rmp, from, changed, err := ctl.engine.SetStatus(c.Param("id"), req.Status, req.Notes, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	if !changed {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status unchanged", "rmp": rmp})
		return
	}

	// The engine reports the status it actually replaced, so the
	// notification cannot name a stale one.
	if ctl.notifier != nil {
		ctl.notifier.StatusChanged(rmp, from, actor)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "rmp": rmp})
}
