package beneficiary

import (
	"strings"
	"time"

	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRelationship is stored when the caller gives none.
const DefaultRelationship = "other"

// Beneficiary is a saved transfer destination keyed by a user-chosen alias.
type Beneficiary struct {
	BeneficiaryID string
	UserID        string
	Name          string
	Alias         string
	AliasLower    string
	AccountID     string
	Relationship  string
	CreatedAt     time.Time
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ñ", "n", "ü", "u",
)

// NormalizeAlias lowercases, trims and strips common Spanish accents.
func NormalizeAlias(alias string) string {
	// Casers carry state and must not be shared across goroutines.
	lower := cases.Lower(language.Und).String(alias)
	return accentReplacer.Replace(strings.TrimSpace(lower))
}

// New validates input and builds a beneficiary with a normalized alias key.
func New(userID, name, alias, accountID, relationship string) (*Beneficiary, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, domain.NewValidationError("account_id is required")
	}
	key := NormalizeAlias(alias)
	if key == "" {
		return nil, domain.NewValidationError("alias is required")
	}
	if relationship == "" {
		relationship = DefaultRelationship
	}
	return &Beneficiary{
		BeneficiaryID: uuid.NewString(),
		UserID:        userID,
		Name:          strings.TrimSpace(name),
		Alias:         strings.TrimSpace(alias),
		AliasLower:    key,
		AccountID:     strings.TrimSpace(accountID),
		Relationship:  relationship,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// MatchField names which field produced a fuzzy match.
type MatchField string

const (
	MatchAlias   MatchField = "alias"
	MatchName    MatchField = "name"
	MatchReverse MatchField = "reverse"
)

// FuzzyMatch tests a normalized input against the beneficiary. The input
// matches when it is contained in the normalized alias or name, or when the
// normalized alias is a non-empty substring of the input.
func (b *Beneficiary) FuzzyMatch(normalizedInput string) (MatchField, bool) {
	alias := NormalizeAlias(b.Alias)
	name := NormalizeAlias(b.Name)
	switch {
	case strings.Contains(alias, normalizedInput):
		return MatchAlias, true
	case strings.Contains(name, normalizedInput):
		return MatchName, true
	case alias != "" && strings.Contains(normalizedInput, alias):
		return MatchReverse, true
	}
	return "", false
}
