package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"safety-compliance-api/models"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// caseCreatedNote is recorded on the creation history entry.
const caseCreatedNote = "Case Created"

// errStatusRaced signals that a concurrent transition superseded the status
// read at the start of the attempt. The engine retries with a fresh read.
var errStatusRaced = errors.New("status changed concurrently")

// setStatusAttempts bounds CAS retries under concurrent SetStatus callers.
const setStatusAttempts = 3

// WorkflowEngine governs the RMP status lifecycle. It is the sole writer of
// history entries: every successful mutation emits exactly one, and the
// status update and its audit entry commit as a single transaction.
type WorkflowEngine struct {
	store *RecordStore
}

// NewWorkflowEngine creates an engine backed by the given record store.
func NewWorkflowEngine(store *RecordStore) *WorkflowEngine {
	return &WorkflowEngine{store: store}
}

// CreateCaseInput carries the fields of a new RMP submission.
type CreateCaseInput struct {
	SubcontractorID string
	ProjectName     string
	DueDate         string // optional, YYYY-MM-DD
	ReviewerID      *int
}

// CreateCase opens a new RMP in Pending status and records the creation
// history entry (status_from null) in the same transaction.
func (e *WorkflowEngine) CreateCase(in CreateCaseInput, actor Actor) (*models.SafetyRMP, error) {
	if strings.TrimSpace(in.SubcontractorID) == "" || strings.TrimSpace(in.ProjectName) == "" {
		return nil, fmt.Errorf("%w: subcontractor and project name are required", ErrInvalidInput)
	}

	// Reject orphan cases up front; the subcontractor must exist.
	if _, err := e.store.GetSubcontractor(in.SubcontractorID); err != nil {
		return nil, err
	}

	now := time.Now()
	rmp := &models.SafetyRMP{
		ID:              uuid.NewString(),
		SubcontractorID: in.SubcontractorID,
		ReviewerID:      in.ReviewerID,
		ProjectName:     strings.TrimSpace(in.ProjectName),
		SubmittedDate:   now.Format(dateLayout),
		Status:          models.StatusPending,
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if due := strings.TrimSpace(in.DueDate); due != "" {
		rmp.DueDate = &due
	}

	err := e.store.Transaction(func(tx *RecordStore) error {
		if err := tx.CreateRMP(rmp); err != nil {
			return err
		}
		note := caseCreatedNote
		return tx.CreateHistory(&models.RMPHistory{
			ID:        uuid.NewString(),
			RMPID:     rmp.ID,
			StatusTo:  models.StatusPending,
			ChangedBy: actor.Name,
			Notes:     &note,
			ChangedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return rmp, nil
}

// SetStatus moves an RMP to newStatus and returns the status it replaced.
// Setting the current status again is an idempotent success that emits no
// history entry (changed=false). Otherwise the status, completed date and
// updated-at change together with one history insert, atomically. The row is
// read under a lock and the update compare-and-swaps on the superseded
// status, so the audit entry's status_from is the value actually replaced
// even under concurrent callers.
func (e *WorkflowEngine) SetStatus(rmpID, newStatus, note string, actor Actor) (*models.SafetyRMP, string, bool, error) {
	if !models.IsValidStatus(newStatus) {
		return nil, "", false, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, newStatus)
	}

	var (
		result  *models.SafetyRMP
		from    string
		changed bool
	)

	for attempt := 0; attempt < setStatusAttempts; attempt++ {
		err := e.store.Transaction(func(tx *RecordStore) error {
			rmp, err := tx.GetRMPForUpdate(rmpID)
			if err != nil {
				return err
			}

			if rmp.Status == newStatus {
				result, from, changed = rmp, rmp.Status, false
				return nil
			}

			now := time.Now()
			var completedDate *string
			if models.IsTerminalStatus(newStatus) {
				date := now.Format(dateLayout)
				completedDate = &date
			}

			rows, err := tx.UpdateRMPStatus(rmpID, rmp.Status, newStatus, completedDate, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return errStatusRaced
			}

			oldStatus := rmp.Status
			entry := &models.RMPHistory{
				ID:         uuid.NewString(),
				RMPID:      rmpID,
				StatusFrom: &oldStatus,
				StatusTo:   newStatus,
				ChangedBy:  actor.Name,
				ChangedAt:  now,
			}
			if trimmed := strings.TrimSpace(note); trimmed != "" {
				entry.Notes = &trimmed
			}
			if err := tx.CreateHistory(entry); err != nil {
				return err
			}

			rmp.Status = newStatus
			rmp.CompletedDate = completedDate
			rmp.UpdatedAt = now
			result, from, changed = rmp, oldStatus, true
			return nil
		})
		if errors.Is(err, errStatusRaced) {
			continue
		}
		if err != nil {
			return nil, "", false, err
		}
		return result, from, changed, nil
	}

	return nil, "", false, fmt.Errorf("%w: set status: too many concurrent updates", ErrStorage)
}

// AddDocument records document metadata for an RMP. The blob must already be
// stored; the gateway passes its locator in. The submission gate reads the
// case under a row lock inside the insert transaction, so a concurrent
// transition to a closed status cannot commit between check and write.
func (e *WorkflowEngine) AddDocument(rmpID, name, locator, mimeType string, size int64, actor Actor) (*models.RMPDocument, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(locator) == "" {
		return nil, fmt.Errorf("%w: document name and locator are required", ErrInvalidInput)
	}

	doc := &models.RMPDocument{
		ID:           uuid.NewString(),
		RMPID:        rmpID,
		DocumentName: name,
		FilePath:     locator,
		FileSize:     size,
		MimeType:     mimeType,
		UploadedBy:   actor.Name,
		UploadedAt:   time.Now(),
	}

	err := e.store.Transaction(func(tx *RecordStore) error {
		rmp, err := tx.GetRMPForUpdate(rmpID)
		if err != nil {
			return err
		}
		if !rmp.AcceptsSubmissions() {
			return fmt.Errorf("%w: cannot upload documents while status is %s", ErrForbidden, rmp.Status)
		}
		return tx.CreateDocument(doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AddComment appends a comment to an RMP, gated on the same locked-read
// submission rule as documents.
func (e *WorkflowEngine) AddComment(rmpID, text string, actor Actor) (*models.RMPComment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	}

	comment := &models.RMPComment{
		ID:        uuid.NewString(),
		RMPID:     rmpID,
		Comment:   trimmed,
		CreatedBy: actor.Name,
		CreatedAt: time.Now(),
	}

	err := e.store.Transaction(func(tx *RecordStore) error {
		rmp, err := tx.GetRMPForUpdate(rmpID)
		if err != nil {
			return err
		}
		if !rmp.AcceptsSubmissions() {
			return fmt.Errorf("%w: cannot add comments while status is %s", ErrForbidden, rmp.Status)
		}
		return tx.CreateComment(comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
