package migrations_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/amirasaad/ledgercore/infra/migrations"
	infrarepo "github.com/amirasaad/ledgercore/infra/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestRun_NilDB(t *testing.T) {
	assert.Error(t, migrations.Run(nil))
}

func TestMigrationsArePaired(t *testing.T) {
	src, err := migrations.Source()
	require.NoError(t, err)
	ups, err := fs.Glob(src, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(src, down)
		assert.NoError(t, err, "missing %s", down)
	}
}

func TestInitialMigrationCreatesEveryModelTable(t *testing.T) {
	src, err := migrations.Source()
	require.NoError(t, err)
	raw, err := fs.ReadFile(src, "000001_init.up.sql")
	require.NoError(t, err)
	sql := string(raw)
	for _, m := range infrarepo.Models() {
		tabler, ok := m.(schema.Tabler)
		require.True(t, ok, "%T has no TableName", m)
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+tabler.TableName()+" (")
	}
}
