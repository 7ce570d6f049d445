package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newUserTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&UserModel{}); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX idx_users_email ON users (email)`).Error; err != nil {
		t.Fatalf("index creation error = %v", err)
	}

	return db
}

func TestUserRepoCreateDuplicateEmailReturnsConflict(t *testing.T) {
	t.Parallel()

	repo := NewGormUserRepo(newUserTestDB(t))
	ctx := context.Background()

	first := &domain.User{
		ID:       uuid.NewString(),
		Email:    "owner@acme.test",
		FullName: "Owner",
		Active:   true,
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := &domain.User{
		ID:       uuid.NewString(),
		Email:    "owner@acme.test",
		FullName: "Someone Else",
		Active:   true,
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Create() duplicate email error = %v, want ErrConflict", err)
	}
}
