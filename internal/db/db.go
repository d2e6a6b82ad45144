package db

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	config "github.com/nabhajit/bhujal/configs"
	"github.com/nabhajit/bhujal/internal/models"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case config.DriverSQLite:
		// Foreign keys are off by default in SQLite; the SET NULL rule on borewells needs them.
		sep := "?"
		if strings.Contains(cfg.SQLitePath, "?") {
			sep = "&"
		}
		dialector = sqlite.Open(cfg.SQLitePath + sep + "_foreign_keys=on")
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.DBDriver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	log.Info("database connected and migrated", zap.String("driver", cfg.DBDriver))
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Customer{},
		&models.Borewell{},
		&models.Session{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
