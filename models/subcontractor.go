package models

import "time"

// Subcontractor represents the subcontractors table.
type Subcontractor struct {
	ID            string    `gorm:"primaryKey;column:id" json:"id"`
	TradePkg      string    `gorm:"column:trade_pkg" json:"trade_pkg"`
	TradeName     string    `gorm:"column:trade_name" json:"trade_name"`
	FEIN          string    `gorm:"column:fein" json:"fein"`
	CurrentEMR    string    `gorm:"column:current_emr" json:"current_emr"`
	EMRExpiration string    `gorm:"column:emr_expiration" json:"emr_expiration"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`

	// Relations
	AnnualData []AnnualStat `gorm:"foreignKey:SubcontractorID" json:"annual_data,omitempty"`
	RMPs       []SafetyRMP  `gorm:"foreignKey:SubcontractorID" json:"rmps,omitempty"`
}

// AnnualStat represents the annual_data table. At most one row exists per
// (subcontractor, year); recordables and manhours are non-negative.
type AnnualStat struct {
	ID              string    `gorm:"primaryKey;column:id" json:"id"`
	SubcontractorID string    `gorm:"column:subcontractor_id;uniqueIndex:idx_annual_sub_year" json:"subcontractor_id"`
	Year            int       `gorm:"column:year;uniqueIndex:idx_annual_sub_year" json:"year"`
	Recordables     int       `gorm:"column:recordables" json:"recordables"`
	Manhours        int       `gorm:"column:manhours" json:"manhours"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides
func (Subcontractor) TableName() string {
	return "subcontractors"
}

func (AnnualStat) TableName() string {
	return "annual_data"
}
