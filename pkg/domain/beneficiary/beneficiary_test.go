package beneficiary_test

import (
	"testing"

	"github.com/amirasaad/ledgercore/pkg/domain"
	"github.com/amirasaad/ledgercore/pkg/domain/beneficiary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAlias(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Mamá ", "mama"},
		{"PEÑA", "pena"},
		{"Güero", "guero"},
		{"José Ángel", "jose angel"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, beneficiary.NormalizeAlias(tc.in))
		})
	}
}

func TestNew(t *testing.T) {
	b, err := beneficiary.New("user-1", "Maria Lopez", " Mamá ", "acc-9", "")
	require.NoError(t, err)
	assert.Equal(t, "mama", b.AliasLower)
	assert.Equal(t, "Mamá", b.Alias)
	assert.Equal(t, beneficiary.DefaultRelationship, b.Relationship)
	assert.NotEmpty(t, b.BeneficiaryID)

	_, err = beneficiary.New("user-1", "Maria", "  ", "acc-9", "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = beneficiary.New("user-1", "", "mama", "acc-9", "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = beneficiary.New("user-1", "Maria", "mama", "", "")
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestFuzzyMatch(t *testing.T) {
	b := &beneficiary.Beneficiary{Name: "María Pérez", Alias: "Mamá"}

	field, ok := b.FuzzyMatch("mam")
	assert.True(t, ok)
	assert.Equal(t, beneficiary.MatchAlias, field)

	field, ok = b.FuzzyMatch("perez")
	assert.True(t, ok)
	assert.Equal(t, beneficiary.MatchName, field)

	field, ok = b.FuzzyMatch("mi mama querida")
	assert.True(t, ok)
	assert.Equal(t, beneficiary.MatchReverse, field)

	_, ok = b.FuzzyMatch("papa")
	assert.False(t, ok)

	empty := &beneficiary.Beneficiary{Name: "Juan", Alias: ""}
	_, ok = empty.FuzzyMatch("tio")
	assert.False(t, ok, "an empty alias never matches in reverse")
}
