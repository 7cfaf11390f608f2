package controllers

import (
	"net/http"

	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
)

// CommentController adds review comments to RMP cases.
type CommentController struct {
	engine *services.WorkflowEngine
}

func NewCommentController(engine *services.WorkflowEngine) *CommentController {
	return &CommentController{engine: engine}
}

type addCommentRequest struct {
	Comment string `json:"comment"`
}

// Add appends a comment. Only RMPs still open for submissions accept one.
func (ctl *CommentController) Add(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment is required"})
		return
	}

	comment, err := ctl.engine.AddComment(c.Param("id"), req.Comment, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
