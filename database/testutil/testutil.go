// Package testutil opens isolated in-memory databases and seeds fixtures
// for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codemaster/database"
	"codemaster/logger"
	"codemaster/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB returns a migrated in-memory SQLite database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db, logger.NewNop()); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, email string) *models.User {
	tb.Helper()
	u := &models.User{Name: "Aluno", Email: email, Role: models.RoleStudent, Status: models.StatusActive}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedModule creates an active module with n topics and returns it with
// Topics loaded.
func SeedModule(tb testing.TB, db *gorm.DB, name string, n int) *models.Module {
	tb.Helper()
	m := &models.Module{Name: name, Active: true}
	if err := db.Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	for i := 0; i < n; i++ {
		topic := models.Topic{ModuleID: m.ID, Title: fmt.Sprintf("%s #%d", name, i+1), Position: i + 1}
		if err := db.Create(&topic).Error; err != nil {
			tb.Fatalf("seed topic: %v", err)
		}
		m.Topics = append(m.Topics, topic)
	}
	return m
}

// Complete marks topicID completed by userID at the given instant.
func Complete(tb testing.TB, db *gorm.DB, userID uuid.UUID, topicID uint, at time.Time) {
	tb.Helper()
	ts := at.UTC()
	row := models.TopicProgress{UserID: userID, TopicID: topicID, Completed: true, CompletedAt: &ts}
	if err := db.Create(&row).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
}

func SeedForum(tb testing.TB, db *gorm.DB, userID uuid.UUID, kind string, n int) {
	tb.Helper()
	for i := 0; i < n; i++ {
		if err := db.Create(&models.ForumActivity{UserID: userID, Type: kind}).Error; err != nil {
			tb.Fatalf("seed forum activity: %v", err)
		}
	}
}

// SeedDefinitions inserts catalog definitions through the production seeder.
func SeedDefinitions(tb testing.TB, db *gorm.DB, defs []models.Achievement) {
	tb.Helper()
	if _, err := database.SeedCatalog(context.Background(), db, defs, logger.NewNop()); err != nil {
		tb.Fatalf("seed catalog: %v", err)
	}
}
