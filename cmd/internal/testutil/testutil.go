// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"gorm.io/gorm"
	"nutricare/cmd/internal/config"
	"nutricare/cmd/internal/domain/database"
	"nutricare/cmd/internal/domain/entity"
	"sync/atomic"
	"testing"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:nutricare_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Init(config.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("init test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func SeedUser(t testing.TB, db *gorm.DB, id int, role entity.Role) *entity.User {
	t.Helper()

	user := &entity.User{ID: id, Username: fmt.Sprintf("user-%d", id), Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %d: %v", id, err)
	}
	return user
}
