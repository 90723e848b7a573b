package beneficiary

import "time"

// Beneficiary represents a saved beneficiary. The composite unique index
// on (user_id, alias_lower) is the alias index.
type Beneficiary struct {
	BeneficiaryID string `gorm:"primaryKey;size:64"`
	UserID        string `gorm:"not null;size:64;uniqueIndex:idx_beneficiary_alias,priority:1"`
	Name          string `gorm:"not null"`
	Alias         string `gorm:"not null"`
	AliasLower    string `gorm:"not null;uniqueIndex:idx_beneficiary_alias,priority:2"`
	AccountID     string `gorm:"not null;size:64"`
	Relationship  string `gorm:"size:32;not null;default:'other'"`
	CreatedAt     time.Time
}

// TableName specifies the table name for the Beneficiary model.
func (Beneficiary) TableName() string {
	return "beneficiaries"
}
