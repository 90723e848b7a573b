package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents an account record in the database.
type Account struct {
	AccountID   string          `gorm:"primaryKey;size:64"`
	UserID      string          `gorm:"index;not null;size:64"`
	AccountType string          `gorm:"size:32;not null;default:'checking'"`
	Balance     decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'MXN'"`
	Status      string          `gorm:"size:16;not null;default:'active'"`
	Version     int64           `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}
