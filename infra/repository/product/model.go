package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product represents a catalog record in the database.
type Product struct {
	ProductID   string `gorm:"primaryKey;size:64"`
	RetailerID  string `gorm:"index;not null;size:64"`
	Name        string `gorm:"not null"`
	Description string
	Category    string `gorm:"index;size:64"`
	ImageURL    string `gorm:"size:512"`
	Benefits    datatypes.JSONSlice[string]
	Stock       int             `gorm:"not null"`
	Reserved    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null;default:'MXN'"`
	Version     int64           `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the Product model.
func (Product) TableName() string {
	return "products"
}
