package database

import (
	"fmt"
	gommonlog "github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"nutricare/cmd/internal/config"
	"nutricare/cmd/internal/domain/entity"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the configured database and migrates the schema.
func Init(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(withForeignKeys(dsn))
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger()})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err = Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers anyway; one connection keeps transactions honest.
	if driver == config.DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Application{},
		&entity.Appointment{},
		&entity.SessionRoom{},
		&entity.ChatMessage{},
		&entity.SessionNote{},
		&entity.ConsultantPermission{},
		&entity.AuditEntry{},
		&entity.NutritionTarget{},
		&entity.UserGoal{},
		&entity.UserData{},
	)
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func newLogger() logger.Interface {
	return logger.New(gommonlog.New("gorm"), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
