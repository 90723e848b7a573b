package infra_test

import (
	"path/filepath"
	"testing"

	"github.com/amirasaad/ledgercore/infra"
	infrarepo "github.com/amirasaad/ledgercore/infra/repository"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/amirasaad/ledgercore/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostgresURL(t *testing.T) {
	cases := map[string]bool{
		"postgres://u:p@localhost:5432/ledger":          true,
		"postgresql://localhost/ledger?sslmode=disable": true,
		"host=localhost user=ledger dbname=ledger":      true,
		"file:ledger.db?_pragma=busy_timeout(5000)":     false,
		":memory:": false,
	}
	for url, want := range cases {
		assert.Equal(t, want, infra.IsPostgresURL(url), url)
	}
}

func TestNewDBConnection_SQLiteAutoMigrates(t *testing.T) {
	cfg := &config.DB{
		URL:         "file:" + filepath.Join(t.TempDir(), "ledger.db"),
		AutoMigrate: true,
	}
	db, err := infra.NewDBConnection(cfg, "test", testutils.DiscardLogger())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, m := range infrarepo.Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewDBConnection_SkipsMigrationWhenDisabled(t *testing.T) {
	cfg := &config.DB{URL: "file:" + filepath.Join(t.TempDir(), "bare.db")}
	db, err := infra.NewDBConnection(cfg, "test", testutils.DiscardLogger())
	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable("accounts"))
}

func TestNewDBConnection_RequiresURL(t *testing.T) {
	_, err := infra.NewDBConnection(&config.DB{}, "test", testutils.DiscardLogger())
	assert.Error(t, err)
	_, err = infra.NewDBConnection(nil, "test", testutils.DiscardLogger())
	assert.Error(t, err)
}
