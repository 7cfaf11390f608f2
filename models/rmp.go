package models

import "time"

// RMP workflow statuses. The set is closed; SetStatus rejects anything else.
const (
	StatusPending  = "Pending"
	StatusInReview = "In Review"
	StatusRejected = "Rejected"
	StatusApproved = "Approved"
	StatusCanceled = "Canceled"
	StatusClosed   = "Closed"
)

// ActiveStatuses are the buckets shown on the open-work list; CompletedStatuses
// are terminal and carry a completed_date.
var (
	ActiveStatuses    = []string{StatusPending, StatusInReview, StatusRejected}
	CompletedStatuses = []string{StatusApproved, StatusClosed, StatusCanceled}
)

// IsValidStatus reports whether s belongs to the declared status set.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInReview, StatusRejected, StatusApproved, StatusCanceled, StatusClosed:
		return true
	}
	return false
}

// IsTerminalStatus reports whether s closes the RMP for submissions.
func IsTerminalStatus(s string) bool {
	switch s {
	case StatusApproved, StatusCanceled, StatusClosed:
		return true
	}
	return false
}

// SafetyRMP represents the safety_rmps table: one remediation/review
// management plan moving through the approval workflow.
type SafetyRMP struct {
	ID              string    `gorm:"primaryKey;column:id" json:"id"`
	SubcontractorID string    `gorm:"column:subcontractor_id;index" json:"subcontractor_id"`
	ReviewerID      *int      `gorm:"column:reviewer_id" json:"reviewer_id,omitempty"`
	ProjectName     string    `gorm:"column:project_name" json:"project_name"`
	SubmittedDate   string    `gorm:"column:submitted_date" json:"submitted_date"`
	DueDate         *string   `gorm:"column:due_date" json:"due_date,omitempty"`
	CompletedDate   *string   `gorm:"column:completed_date" json:"completed_date,omitempty"`
	Status          string    `gorm:"column:status;index" json:"status"`
	CreatedBy       int       `gorm:"column:created_by" json:"created_by"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Subcontractor Subcontractor `gorm:"foreignKey:SubcontractorID" json:"subcontractor,omitempty"`
	Documents     []RMPDocument `gorm:"foreignKey:RMPID" json:"documents,omitempty"`
	Comments      []RMPComment  `gorm:"foreignKey:RMPID" json:"comments,omitempty"`
	History       []RMPHistory  `gorm:"foreignKey:RMPID" json:"history,omitempty"`
}

// AcceptsSubmissions reports whether documents and comments may still be
// added. Checked again inside the write transaction, never cached.
func (r *SafetyRMP) AcceptsSubmissions() bool {
	return r.Status == StatusPending || r.Status == StatusRejected
}

// TableName specifies the table for SafetyRMP.
func (SafetyRMP) TableName() string {
	return "safety_rmps"
}
