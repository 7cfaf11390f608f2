package controllers

import (
	"net/http"
	"sort"

	"safety-compliance-api/models"
	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
)

// SubcontractorController manages subcontractor profiles, their annual
// injury statistics and the derived TRIR metric.
type SubcontractorController struct {
	store *services.RecordStore
}

func NewSubcontractorController(store *services.RecordStore) *SubcontractorController {
	return &SubcontractorController{store: store}
}

type annualStatRequest struct {
	Year        int `json:"year" binding:"required"`
	Recordables int `json:"recordables"`
	Manhours    int `json:"manhours"`
}

type subcontractorRequest struct {
	TradePkg      string              `json:"trade_pkg"`
	TradeName     string              `json:"trade_name"`
	FEIN          string              `json:"fein"`
	CurrentEMR    string              `json:"current_emr"`
	EMRExpiration string              `json:"emr_expiration"`
	AnnualData    []annualStatRequest `json:"annual_data"`
}

type subcontractorView struct {
	models.Subcontractor
	ThreeYrTRIR string              `json:"three_yr_trir"`
	AnnualData  []models.AnnualStat `json:"annual_data"`
}

// Dashboard lists every subcontractor with its annual grid and rolling
// 3-year TRIR, plus the distinct years present across all rows.
func (ctl *SubcontractorController) Dashboard(c *gin.Context) {
	subs, err := ctl.store.ListSubcontractors()
	if err != nil {
		respondError(c, err)
		return
	}

	yearSet := make(map[int]bool)
	views := make([]subcontractorView, 0, len(subs))
	for _, sub := range subs {
		stats, err := ctl.store.ListAnnualStats(sub.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		for _, row := range stats {
			yearSet[row.Year] = true
		}
		views = append(views, subcontractorView{
			Subcontractor: sub,
			ThreeYrTRIR:   services.ComputeTRIR(stats),
			AnnualData:    stats,
		})
	}

	years := make([]int, 0, len(yearSet))
	for year := range yearSet {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	c.JSON(http.StatusOK, gin.H{
		"subcontractors": views,
		"years":          years,
	})
}

// Create registers a subcontractor and any initial annual rows.
func (ctl *SubcontractorController) Create(c *gin.Context) {
	var req subcontractorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub := models.Subcontractor{
		TradePkg:      req.TradePkg,
		TradeName:     req.TradeName,
		FEIN:          req.FEIN,
		CurrentEMR:    req.CurrentEMR,
		EMRExpiration: req.EMRExpiration,
	}
	if err := ctl.store.CreateSubcontractor(&sub); err != nil {
		respondError(c, err)
		return
	}

	for _, row := range req.AnnualData {
		if err := ctl.store.UpsertAnnualStat(sub.ID, row.Year, row.Recordables, row.Manhours); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"subcontractor": sub})
}

// Update edits the profile and bulk-upserts annual rows.
func (ctl *SubcontractorController) Update(c *gin.Context) {
	id := c.Param("id")

	var req subcontractorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub := models.Subcontractor{
		ID:            id,
		TradePkg:      req.TradePkg,
		TradeName:     req.TradeName,
		FEIN:          req.FEIN,
		CurrentEMR:    req.CurrentEMR,
		EMRExpiration: req.EMRExpiration,
	}
	if err := ctl.store.UpdateSubcontractor(&sub); err != nil {
		respondError(c, err)
		return
	}

	for _, row := range req.AnnualData {
		if err := ctl.store.UpsertAnnualStat(id, row.Year, row.Recordables, row.Manhours); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddYear inserts a new annual row and rejects a year that already exists.
func (ctl *SubcontractorController) AddYear(c *gin.Context) {
	id := c.Param("id")

	var req annualStatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year is required"})
		return
	}

	if _, err := ctl.store.GetSubcontractor(id); err != nil {
		respondError(c, err)
		return
	}

	if err := ctl.store.AddAnnualStat(id, req.Year, req.Recordables, req.Manhours); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// UpsertYear inserts or replaces the row for one year.
func (ctl *SubcontractorController) UpsertYear(c *gin.Context) {
	id := c.Param("id")

	var req annualStatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Year is required"})
		return
	}

	if _, err := ctl.store.GetSubcontractor(id); err != nil {
		respondError(c, err)
		return
	}

	if err := ctl.store.UpsertAnnualStat(id, req.Year, req.Recordables, req.Manhours); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetTRIR returns the rolling 3-year TRIR for one subcontractor.
func (ctl *SubcontractorController) GetTRIR(c *gin.Context) {
	id := c.Param("id")

	if _, err := ctl.store.GetSubcontractor(id); err != nil {
		respondError(c, err)
		return
	}

	stats, err := ctl.store.ListAnnualStats(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"three_yr_trir": services.ComputeTRIR(stats)})
}
