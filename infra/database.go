// Package infra opens the relational store.
package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/ledgercore/infra/migrations"
	infrarepo "github.com/amirasaad/ledgercore/infra/repository"
	"github.com/amirasaad/ledgercore/pkg/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// IsPostgresURL reports whether url addresses a postgres server. Anything
// else is opened as a sqlite file.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") ||
		strings.HasPrefix(url, "postgresql://") ||
		strings.Contains(url, "host=")
}

func dialector(url string) gorm.Dialector {
	if IsPostgresURL(url) {
		return postgres.Open(url)
	}
	return sqlite.Open(url)
}

// NewDBConnection opens cnf.URL, registers the read replica when one is
// configured and applies the schema.
func NewDBConnection(cnf *config.DB, appEnv string, log *slog.Logger) (*gorm.DB, error) {
	if cnf == nil || cnf.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Warn
	}

	db, err := gorm.Open(dialector(cnf.URL), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cnf.ReplicaURL != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{dialector(cnf.ReplicaURL)},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
		log.Info("📚 read replica registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if IsPostgresURL(cnf.URL) {
		sqlDB.SetMaxOpenConns(cnf.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cnf.MaxIdleConns)
	} else {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(cnf.ConnMaxLifetime)

	if !cnf.AutoMigrate {
		return db, nil
	}
	if IsPostgresURL(cnf.URL) {
		err = migrations.Run(sqlDB)
	} else {
		err = infrarepo.AutoMigrate(db)
	}
	if err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Info("🗄️ schema up to date", "postgres", IsPostgresURL(cnf.URL))
	return db, nil
}
