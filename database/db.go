// database/db.go - Database Connection (PostgreSQL)
package database

import (
	"fmt"
	"time"

	"codemaster/config"
	"codemaster/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB opens the PostgreSQL connection described by cfg, configures the
// pool and runs migrations.
func InitDB(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	level := gormlogger.Info
	if cfg.IsProduction() {
		level = gormlogger.Warn
	}

	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("PostgreSQL database connected")

	if err := Migrate(conn, log); err != nil {
		return nil, err
	}

	db = conn
	return db, nil
}

// GetDB returns the connection opened by InitDB, or nil before it.
func GetDB() *gorm.DB {
	return db
}

// CloseDB closes the connection opened by InitDB.
func CloseDB() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db = nil
	return nil
}
