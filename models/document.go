package models

import "time"

// RMPDocument represents the rmp_documents table. Rows are immutable once
// created; there is no edit or delete operation.
type RMPDocument struct {
	ID           string    `gorm:"primaryKey;column:id" json:"id"`
	RMPID        string    `gorm:"column:rmp_id;index" json:"rmp_id"`
	DocumentName string    `gorm:"column:document_name" json:"document_name"`
	FilePath     string    `gorm:"column:file_path" json:"file_path"`
	FileSize     int64     `gorm:"column:file_size" json:"file_size"`
	MimeType     string    `gorm:"column:mime_type" json:"mime_type"`
	UploadedBy   string    `gorm:"column:uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`
}

// TableName specifies the table for RMPDocument.
func (RMPDocument) TableName() string {
	return "rmp_documents"
}
