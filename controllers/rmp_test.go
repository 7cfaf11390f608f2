package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"safety-compliance-api/middleware"
	"safety-compliance-api/models"
	"safety-compliance-api/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDeps(t *testing.T) (*services.RecordStore, *services.WorkflowEngine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	store := services.NewRecordStore(db)
	require.NoError(t, store.Migrate())
	return store, services.NewWorkflowEngine(store)
}

func seedRMP(t *testing.T, store *services.RecordStore, engine *services.WorkflowEngine) *models.SafetyRMP {
	t.Helper()

	sub := &models.Subcontractor{
		TradePkg:      "09B",
		TradeName:     "Summit Steel",
		FEIN:          "98-7654321",
		CurrentEMR:    "1.02",
		EMRExpiration: "2026-01-31",
	}
	require.NoError(t, store.CreateSubcontractor(sub))

	rmp, err := engine.CreateCase(services.CreateCaseInput{
		SubcontractorID: sub.ID,
		ProjectName:     "Harbor Bridge",
	}, services.Actor{ID: 1, Name: "Sam Safety", Role: models.RoleSafetyManager})
	require.NoError(t, err)
	return rmp
}

func jsonRequest(c *gin.Context, method, body string) {
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
}

func testContext(t *testing.T, rmpID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ActorKey, services.Actor{ID: 1, Name: "Sam Safety", Role: models.RoleSafetyManager})
	c.Params = gin.Params{{Key: "id", Value: rmpID}}
	return c, w
}

func TestSetStatusUnchangedReturnsSuccessMessage(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	ctl := NewRMPController(store, engine, nil)

	c, w := testContext(t, rmp.ID)
	jsonRequest(c, http.MethodPost, `{"status":"Pending"}`)
	ctl.SetStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Status unchanged", resp["message"])

	history, err := store.ListHistory(rmp.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// recordingNotifier captures what a status-change notification would report.
type recordingNotifier struct {
	calls     int
	oldStatus string
	newStatus string
}

func (n *recordingNotifier) StatusChanged(rmp *models.SafetyRMP, oldStatus string, actor services.Actor) {
	n.calls++
	n.oldStatus = oldStatus
	n.newStatus = rmp.Status
}

func TestSetStatusNotifiesWithReplacedStatus(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	notifier := &recordingNotifier{}
	ctl := NewRMPController(store, engine, notifier)

	c, w := testContext(t, rmp.ID)
	jsonRequest(c, http.MethodPost, `{"status":"In Review"}`)
	ctl.SetStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, notifier.calls)
	assert.Equal(t, models.StatusPending, notifier.oldStatus)
	assert.Equal(t, models.StatusInReview, notifier.newStatus)
}

func TestSetStatusInvalidValueRejected(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	ctl := NewRMPController(store, engine, nil)

	c, w := testContext(t, rmp.ID)
	jsonRequest(c, http.MethodPost, `{"status":"Archived"}`)
	ctl.SetStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddCommentForbiddenOnApprovedCase(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	ctl := NewCommentController(engine)

	_, _, _, err := engine.SetStatus(rmp.ID, models.StatusApproved, "", services.Actor{ID: 1, Name: "Sam Safety"})
	require.NoError(t, err)

	c, w := testContext(t, rmp.ID)
	jsonRequest(c, http.MethodPost, `{"comment":"too late"}`)
	ctl.Add(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddCommentOnPendingCase(t *testing.T) {
	store, engine := newTestDeps(t)
	rmp := seedRMP(t, store, engine)
	ctl := NewCommentController(engine)

	c, w := testContext(t, rmp.ID)
	jsonRequest(c, http.MethodPost, `{"comment":"please update section 3"}`)
	ctl.Add(c)

	require.Equal(t, http.StatusCreated, w.Code)

	comments, err := store.ListComments(rmp.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "please update section 3", comments[0].Comment)
}

func TestCreateRMPUnknownSubcontractor(t *testing.T) {
	store, engine := newTestDeps(t)
	ctl := NewRMPController(store, engine, nil)

	c, w := testContext(t, "")
	jsonRequest(c, http.MethodPost, `{"subcontractor_id":"missing","project_name":"Harbor Bridge"}`)
	ctl.Create(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
