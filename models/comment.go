package models

import "time"

// RMPComment represents the rmp_comments table. Immutable once created.
type RMPComment struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	RMPID     string    `gorm:"column:rmp_id;index" json:"rmp_id"`
	Comment   string    `gorm:"column:comment" json:"comment"`
	CreatedBy string    `gorm:"column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for RMPComment.
func (RMPComment) TableName() string {
	return "rmp_comments"
}
