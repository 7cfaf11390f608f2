package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"safety-compliance-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *RecordStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	store := NewRecordStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func seedSubcontractor(t *testing.T, store *RecordStore) *models.Subcontractor {
	t.Helper()

	sub := &models.Subcontractor{
		TradePkg:      "03A",
		TradeName:     "Acme Concrete",
		FEIN:          "12-3456789",
		CurrentEMR:    "0.85",
		EMRExpiration: "2026-06-30",
	}
	require.NoError(t, store.CreateSubcontractor(sub))
	return sub
}

func TestCreateSubcontractorRequiresFields(t *testing.T) {
	store := newTestStore(t)

	err := store.CreateSubcontractor(&models.Subcontractor{TradeName: "Acme"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddAnnualStatDuplicateYearConflicts(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubcontractor(t, store)

	require.NoError(t, store.AddAnnualStat(sub.ID, 2025, 1, 52000))

	err := store.AddAnnualStat(sub.ID, 2025, 2, 40000)
	assert.ErrorIs(t, err, ErrConflict)

	stats, err := store.ListAnnualStats(sub.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Recordables)
}

func TestUpsertAnnualStatReplacesExistingYear(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubcontractor(t, store)

	require.NoError(t, store.UpsertAnnualStat(sub.ID, 2025, 1, 52000))
	require.NoError(t, store.UpsertAnnualStat(sub.ID, 2025, 3, 60000))

	stats, err := store.ListAnnualStats(sub.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].Recordables)
	assert.Equal(t, 60000, stats[0].Manhours)
}

func TestAnnualStatRejectsNegativeCounts(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubcontractor(t, store)

	assert.ErrorIs(t, store.UpsertAnnualStat(sub.ID, 2025, -1, 52000), ErrInvalidInput)
	assert.ErrorIs(t, store.AddAnnualStat(sub.ID, 2025, 1, -5), ErrInvalidInput)
}

func TestListAnnualStatsOrdersByYearDescending(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubcontractor(t, store)

	require.NoError(t, store.AddAnnualStat(sub.ID, 2023, 1, 48000))
	require.NoError(t, store.AddAnnualStat(sub.ID, 2025, 1, 52000))
	require.NoError(t, store.AddAnnualStat(sub.ID, 2024, 2, 50000))

	stats, err := store.ListAnnualStats(sub.ID)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, []int{2025, 2024, 2023}, []int{stats[0].Year, stats[1].Year, stats[2].Year})
}

func TestGetRMPNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRMP(uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletedDateInvariantEnforcedAtBoundary(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubcontractor(t, store)

	date := time.Now().Format("2006-01-02")

	// A pending RMP must not carry a completed date.
	err := store.CreateRMP(&models.SafetyRMP{
		ID:              uuid.NewString(),
		SubcontractorID: sub.ID,
		ProjectName:     "North Tower",
		SubmittedDate:   date,
		Status:          models.StatusPending,
		CompletedDate:   &date,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	rmp := &models.SafetyRMP{
		ID:              uuid.NewString(),
		SubcontractorID: sub.ID,
		ProjectName:     "North Tower",
		SubmittedDate:   date,
		Status:          models.StatusPending,
	}
	require.NoError(t, store.CreateRMP(rmp))

	// A terminal status requires a completed date.
	_, err = store.UpdateRMPStatus(rmp.ID, models.StatusPending, models.StatusApproved, nil, time.Now())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetRMPForUpdateReadsInsideTransaction(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubcontractor(t, store)

	rmp := &models.SafetyRMP{
		ID:              uuid.NewString(),
		SubcontractorID: sub.ID,
		ProjectName:     "North Tower",
		SubmittedDate:   time.Now().Format("2006-01-02"),
		Status:          models.StatusPending,
	}
	require.NoError(t, store.CreateRMP(rmp))

	err := store.Transaction(func(tx *RecordStore) error {
		got, err := tx.GetRMPForUpdate(rmp.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, rmp.ID, got.ID)
		assert.Equal(t, models.StatusPending, got.Status)

		_, err = tx.GetRMPForUpdate(uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateRMPStatusIsCompareAndSwap(t *testing.T) {
	store := newTestStore(t)
	sub := seedSubcontractor(t, store)

	rmp := &models.SafetyRMP{
		ID:              uuid.NewString(),
		SubcontractorID: sub.ID,
		ProjectName:     "North Tower",
		SubmittedDate:   time.Now().Format("2006-01-02"),
		Status:          models.StatusPending,
	}
	require.NoError(t, store.CreateRMP(rmp))

	// Wrong expected status touches no rows.
	rows, err := store.UpdateRMPStatus(rmp.ID, models.StatusInReview, models.StatusRejected, nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = store.UpdateRMPStatus(rmp.ID, models.StatusPending, models.StatusInReview, nil, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)
}

func TestCreateUserDuplicateEmailConflicts(t *testing.T) {
	store := newTestStore(t)

	user := &models.User{FullName: "Jo Field", Email: "jo@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, store.CreateUser(user))

	err := store.CreateUser(&models.User{FullName: "Jo Two", Email: "jo@example.com", Password: "x", Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrConflict)
}
