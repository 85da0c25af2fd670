package models

import (
	"gorm.io/gorm"
)

// DBCalculation represents an audited calculation request in the database.
// Only the request parameters and outcome are stored, never the computed
// prices or matrices.
type DBCalculation struct {
	gorm.Model
	Endpoint   string `gorm:"index"` // "calculate" or "heatmap"
	Params     string // JSON string of the request parameters
	DurationMs int64
	Status     string `gorm:"index"` // "ok" or "error"
}

// TableName override for a cleaner table name
func (DBCalculation) TableName() string {
	return "calculations"
}
