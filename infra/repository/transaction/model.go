package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a persisted, immutable transfer record.
type Transaction struct {
	TransactionID string          `gorm:"primaryKey;size:64"`
	UserID        string          `gorm:"index;not null;size:64"`
	Type          string          `gorm:"size:32;not null"`
	FromAccount   string          `gorm:"index;size:64"`
	ToAccount     string          `gorm:"index;size:64"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Status        string          `gorm:"size:16;not null"`
	Description   string
	CorrelationID string    `gorm:"size:64"`
	CreatedAt     time.Time `gorm:"index"`
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}
