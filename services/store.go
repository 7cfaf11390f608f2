package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"safety-compliance-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordStore owns all persistent compliance entities. It is constructed once
// at startup and injected into the workflow engine and controllers; there is
// no package-level database handle.
type RecordStore struct {
	db *gorm.DB
}

// NewRecordStore creates a record store bound to the given database handle.
func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Transaction runs fn against a store bound to a single transaction. Every
// write fn performs commits or rolls back as one unit.
func (s *RecordStore) Transaction(fn func(tx *RecordStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&RecordStore{db: tx})
	})
}

// Migrate creates or updates the schema for all owned entities.
func (s *RecordStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Subcontractor{},
		&models.AnnualStat{},
		&models.SafetyRMP{},
		&models.RMPDocument{},
		&models.RMPComment{},
		&models.RMPHistory{},
	)
}

// ---- Subcontractors ----

// CreateSubcontractor inserts a new subcontractor. All profile fields are
// required.
func (s *RecordStore) CreateSubcontractor(sub *models.Subcontractor) error {
	if strings.TrimSpace(sub.TradePkg) == "" ||
		strings.TrimSpace(sub.TradeName) == "" ||
		strings.TrimSpace(sub.FEIN) == "" ||
		strings.TrimSpace(sub.CurrentEMR) == "" ||
		strings.TrimSpace(sub.EMRExpiration) == "" {
		return fmt.Errorf("%w: all subcontractor fields are required", ErrInvalidInput)
	}

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.CreatedAt = time.Now()

	if err := s.db.Create(sub).Error; err != nil {
		return fmt.Errorf("%w: create subcontractor: %v", ErrStorage, err)
	}
	return nil
}

// UpdateSubcontractor updates the mutable profile fields of an existing
// subcontractor.
func (s *RecordStore) UpdateSubcontractor(sub *models.Subcontractor) error {
	if sub.ID == "" || strings.TrimSpace(sub.TradeName) == "" || strings.TrimSpace(sub.FEIN) == "" {
		return fmt.Errorf("%w: id, trade name and fein are required", ErrInvalidInput)
	}

	res := s.db.Model(&models.Subcontractor{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
		"trade_pkg":      sub.TradePkg,
		"trade_name":     sub.TradeName,
		"fein":           sub.FEIN,
		"current_emr":    sub.CurrentEMR,
		"emr_expiration": sub.EMRExpiration,
	})
	if res.Error != nil {
		return fmt.Errorf("%w: update subcontractor: %v", ErrStorage, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: subcontractor %s", ErrNotFound, sub.ID)
	}
	return nil
}

// GetSubcontractor fetches a subcontractor by id.
func (s *RecordStore) GetSubcontractor(id string) (*models.Subcontractor, error) {
	var sub models.Subcontractor
	if err := s.db.Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: subcontractor %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get subcontractor: %v", ErrStorage, err)
	}
	return &sub, nil
}

// ListSubcontractors returns all subcontractors ordered by trade name.
func (s *RecordStore) ListSubcontractors() ([]models.Subcontractor, error) {
	var subs []models.Subcontractor
	if err := s.db.Order("trade_name").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("%w: list subcontractors: %v", ErrStorage, err)
	}
	return subs, nil
}

// ---- Annual injury statistics ----

func validateAnnualStat(subcontractorID string, year, recordables, manhours int) error {
	if subcontractorID == "" || year == 0 {
		return fmt.Errorf("%w: subcontractor id and year are required", ErrInvalidInput)
	}
	if recordables < 0 || manhours < 0 {
		return fmt.Errorf("%w: recordables and manhours must be non-negative", ErrInvalidInput)
	}
	return nil
}

// UpsertAnnualStat inserts or updates the (subcontractor, year) row in one
// statement. Uniqueness is enforced by the index, not a read-then-write check.
func (s *RecordStore) UpsertAnnualStat(subcontractorID string, year, recordables, manhours int) error {
	if err := validateAnnualStat(subcontractorID, year, recordables, manhours); err != nil {
		return err
	}

	stat := models.AnnualStat{
		ID:              uuid.NewString(),
		SubcontractorID: subcontractorID,
		Year:            year,
		Recordables:     recordables,
		Manhours:        manhours,
		CreatedAt:       time.Now(),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subcontractor_id"}, {Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"recordables", "manhours"}),
	}).Create(&stat).Error
	if err != nil {
		return fmt.Errorf("%w: upsert annual stat: %v", ErrStorage, err)
	}
	return nil
}

// AddAnnualStat inserts a new year row and fails with ErrConflict when the
// year already exists for the subcontractor.
func (s *RecordStore) AddAnnualStat(subcontractorID string, year, recordables, manhours int) error {
	if err := validateAnnualStat(subcontractorID, year, recordables, manhours); err != nil {
		return err
	}

	stat := models.AnnualStat{
		ID:              uuid.NewString(),
		SubcontractorID: subcontractorID,
		Year:            year,
		Recordables:     recordables,
		Manhours:        manhours,
		CreatedAt:       time.Now(),
	}

	if err := s.db.Create(&stat).Error; err != nil {
		// The unique index rejected the insert if the year is taken.
		var count int64
		s.db.Model(&models.AnnualStat{}).
			Where("subcontractor_id = ? AND year = ?", subcontractorID, year).
			Count(&count)
		if count > 0 {
			return fmt.Errorf("%w: year %d already exists for subcontractor %s", ErrConflict, year, subcontractorID)
		}
		return fmt.Errorf("%w: add annual stat: %v", ErrStorage, err)
	}
	return nil
}

// ListAnnualStats returns a subcontractor's yearly statistics, most recent
// year first.
func (s *RecordStore) ListAnnualStats(subcontractorID string) ([]models.AnnualStat, error) {
	var stats []models.AnnualStat
	if err := s.db.Where("subcontractor_id = ?", subcontractorID).
		Order("year DESC").Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("%w: list annual stats: %v", ErrStorage, err)
	}
	return stats, nil
}

// ---- Safety RMPs ----

// CreateRMP inserts a new RMP row. The workflow engine is the only caller and
// pairs it with the creation history entry inside one transaction.
func (s *RecordStore) CreateRMP(rmp *models.SafetyRMP) error {
	if err := checkCompletedDateInvariant(rmp.Status, rmp.CompletedDate); err != nil {
		return err
	}
	if err := s.db.Create(rmp).Error; err != nil {
		return fmt.Errorf("%w: create rmp: %v", ErrStorage, err)
	}
	return nil
}

// GetRMP fetches an RMP by id.
func (s *RecordStore) GetRMP(id string) (*models.SafetyRMP, error) {
	var rmp models.SafetyRMP
	if err := s.db.Where("id = ?", id).First(&rmp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rmp %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get rmp: %v", ErrStorage, err)
	}
	return &rmp, nil
}

// GetRMPForUpdate fetches an RMP by id holding a row lock for the rest of the
// transaction. Gate checks read through this so a concurrent status transition
// blocks until the guarded insert commits; a plain snapshot read would let the
// transition commit in between. SQLite has no row locks and its driver drops
// the clause, where single-writer semantics cover the same ground.
func (s *RecordStore) GetRMPForUpdate(id string) (*models.SafetyRMP, error) {
	var rmp models.SafetyRMP
	if err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&rmp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rmp %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get rmp: %v", ErrStorage, err)
	}
	return &rmp, nil
}

// GetRMPWithSubcontractor fetches an RMP together with its owning
// subcontractor profile.
func (s *RecordStore) GetRMPWithSubcontractor(id string) (*models.SafetyRMP, error) {
	var rmp models.SafetyRMP
	if err := s.db.Preload("Subcontractor").Where("id = ?", id).First(&rmp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: rmp %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get rmp: %v", ErrStorage, err)
	}
	return &rmp, nil
}

// ListRMPsByStatuses returns RMPs whose status is in the given bucket,
// together with the owning subcontractor, ordered by the given column.
func (s *RecordStore) ListRMPsByStatuses(statuses []string, orderBy string) ([]models.SafetyRMP, error) {
	var rmps []models.SafetyRMP
	if err := s.db.Preload("Subcontractor").
		Where("status IN ?", statuses).
		Order(orderBy).Find(&rmps).Error; err != nil {
		return nil, fmt.Errorf("%w: list rmps: %v", ErrStorage, err)
	}
	return rmps, nil
}

// UpdateRMPStatus applies the status mutation only when the row still holds
// expectedStatus. Returns the number of rows changed so the engine can detect
// a concurrent transition and retry with a fresh read.
func (s *RecordStore) UpdateRMPStatus(id, expectedStatus, newStatus string, completedDate *string, now time.Time) (int64, error) {
	if err := checkCompletedDateInvariant(newStatus, completedDate); err != nil {
		return 0, err
	}

	res := s.db.Model(&models.SafetyRMP{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(map[string]interface{}{
			"status":         newStatus,
			"completed_date": completedDate,
			"updated_at":     now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: update rmp status: %v", ErrStorage, res.Error)
	}
	return res.RowsAffected, nil
}

func checkCompletedDateInvariant(status string, completedDate *string) error {
	if models.IsTerminalStatus(status) != (completedDate != nil) {
		return fmt.Errorf("%w: completed date must be set exactly for terminal statuses", ErrInvalidInput)
	}
	return nil
}

// ---- Documents, comments, history ----

// CreateDocument inserts a document row. Documents are immutable afterwards.
func (s *RecordStore) CreateDocument(doc *models.RMPDocument) error {
	if err := s.db.Create(doc).Error; err != nil {
		return fmt.Errorf("%w: create document: %v", ErrStorage, err)
	}
	return nil
}

// GetDocument fetches a document by id scoped to its RMP.
func (s *RecordStore) GetDocument(rmpID, docID string) (*models.RMPDocument, error) {
	var doc models.RMPDocument
	if err := s.db.Where("id = ? AND rmp_id = ?", docID, rmpID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, docID)
		}
		return nil, fmt.Errorf("%w: get document: %v", ErrStorage, err)
	}
	return &doc, nil
}

// ListDocuments returns an RMP's documents, newest upload first.
func (s *RecordStore) ListDocuments(rmpID string) ([]models.RMPDocument, error) {
	var docs []models.RMPDocument
	if err := s.db.Where("rmp_id = ?", rmpID).
		Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", ErrStorage, err)
	}
	return docs, nil
}

// CreateComment inserts a comment row. Comments are immutable afterwards.
func (s *RecordStore) CreateComment(comment *models.RMPComment) error {
	if err := s.db.Create(comment).Error; err != nil {
		return fmt.Errorf("%w: create comment: %v", ErrStorage, err)
	}
	return nil
}

// ListComments returns an RMP's comments, newest first.
func (s *RecordStore) ListComments(rmpID string) ([]models.RMPComment, error) {
	var comments []models.RMPComment
	if err := s.db.Where("rmp_id = ?", rmpID).
		Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("%w: list comments: %v", ErrStorage, err)
	}
	return comments, nil
}

// CreateHistory appends an audit entry. The workflow engine is the sole
// caller; entries are never updated or deleted.
func (s *RecordStore) CreateHistory(entry *models.RMPHistory) error {
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("%w: create history entry: %v", ErrStorage, err)
	}
	return nil
}

// ListHistory returns an RMP's audit trail, newest first.
func (s *RecordStore) ListHistory(rmpID string) ([]models.RMPHistory, error) {
	var entries []models.RMPHistory
	if err := s.db.Where("rmp_id = ?", rmpID).
		Order("changed_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: list history: %v", ErrStorage, err)
	}
	return entries, nil
}

// ---- Users ----

// CreateUser inserts a user record.
func (s *RecordStore) CreateUser(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		var count int64
		s.db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count)
		if count > 0 {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return fmt.Errorf("%w: create user: %v", ErrStorage, err)
	}
	return nil
}

// GetUser fetches an active user by id.
func (s *RecordStore) GetUser(id int) (*models.User, error) {
	var user models.User
	if err := s.db.Where("user_id = ? AND deleted_at IS NULL", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get user: %v", ErrStorage, err)
	}
	return &user, nil
}

// GetUserByEmail fetches an active user by email.
func (s *RecordStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND deleted_at IS NULL", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, email)
		}
		return nil, fmt.Errorf("%w: get user: %v", ErrStorage, err)
	}
	return &user, nil
}
