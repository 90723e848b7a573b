package idempotency

import (
	"time"

	"gorm.io/datatypes"
)

// Record represents a processed or claimed request in the database.
type Record struct {
	RequestID   string         `gorm:"primaryKey;size:128"`
	Status      string         `gorm:"size:16;not null;default:completed"`
	Result      datatypes.JSON `gorm:"not null"`
	ProcessedAt time.Time      `gorm:"not null"`
	ExpiresAt   time.Time      `gorm:"index;not null"`
}

// TableName specifies the table name for the Record model.
func (Record) TableName() string {
	return "idempotency_records"
}
