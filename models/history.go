package models

import "time"

// RMPHistory tracks historical status changes for safety RMPs. Append-only:
// the workflow engine is the sole writer and emits exactly one row per
// successful mutation. StatusFrom is null only on the creation entry.
type RMPHistory struct {
	ID         string    `gorm:"primaryKey;column:id" json:"id"`
	RMPID      string    `gorm:"column:rmp_id;index" json:"rmp_id"`
	StatusFrom *string   `gorm:"column:status_from" json:"status_from"`
	StatusTo   string    `gorm:"column:status_to" json:"status_to"`
	ChangedBy  string    `gorm:"column:changed_by" json:"changed_by"`
	Notes      *string   `gorm:"column:notes" json:"notes"`
	ChangedAt  time.Time `gorm:"column:changed_at" json:"changed_at"`
}

// TableName specifies the table for RMPHistory.
func (RMPHistory) TableName() string {
	return "rmp_history"
}
