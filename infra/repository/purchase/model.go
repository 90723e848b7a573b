package purchase

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase represents a saga record in the database.
type Purchase struct {
	PurchaseID     string          `gorm:"primaryKey;size:64"`
	UserID         string          `gorm:"index;not null;size:64"`
	ProductID      string          `gorm:"index;not null;size:64"`
	RetailerID     string          `gorm:"size:64"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	BenefitApplied string          `gorm:"size:32"`
	Status         string          `gorm:"index;size:16;not null"`
	TransactionID  string          `gorm:"size:64"`
	ErrorMessage   string
	CorrelationID  string `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the Purchase model.
func (Purchase) TableName() string {
	return "purchases"
}
