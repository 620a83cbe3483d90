package service_test

import (
	"StudyVault/config"
	"StudyVault/internal/repo"
	"StudyVault/internal/service"
	"StudyVault/internal/storage"
	"StudyVault/model"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"testing"
)

// TestMain sets up the test environment.
func TestMain(m *testing.M) {
	config.InitConfig()
	repo.InitMysqlTest()
	repo.InitRedis()
	storage.InitMinioTest()

	cleanupAllTables()

	code := m.Run()
	os.Exit(code)
}

// cleanupAllTables clears table data without dropping the schema.
func cleanupAllTables() {
	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 0")

	tables := []string{
		"notification",
		"bookmark",
		"material_access",
		"access_request",
		"material",
		"user_account",
	}
	for _, table := range tables {
		repo.Db.Exec("DELETE FROM " + table)
	}

	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 1")

	log.Println("[testmain] all tables cleaned")
}

func cleanTables(t *testing.T) {
	t.Helper()
	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 0")
	tables := []string{"notification", "bookmark", "material_access", "access_request", "material", "user_account"}
	for _, table := range tables {
		if err := repo.Db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean %s table failed: %v", table, err)
		}
	}
	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 1")
}

var userSeq atomic.Uint64

// newTestUser creates an active user with the given role.
func newTestUser(t *testing.T, role string) *model.User {
	t.Helper()
	n := userSeq.Add(1)
	user := &model.User{
		UserName: fmt.Sprintf("user_%s_%d", role, n),
		Password: "pass123",
		Email:    fmt.Sprintf("%s_%d@test.com", role, n),
		Role:     role,
		IsActive: true,
	}
	if err := service.CreateUser(user); err != nil {
		t.Fatalf("create test user failed: %v", err)
	}
	return user
}

// newTestMaterial inserts a material directly with the given uploader,
// access type, and status.
func newTestMaterial(t *testing.T, uploaderID uint64, accessType, status, accessCode string) *model.Material {
	t.Helper()
	material := &model.Material{
		Title:        "Calculus Notes",
		Description:  "First semester notes",
		MaterialType: "note",
		FileURL:      "/studyvault/materials/calc.pdf",
		ObjectName:   "materials/calc.pdf",
		FileType:     "pdf",
		AccessType:   accessType,
		AccessCode:   accessCode,
		UploadedBy:   uploaderID,
		Status:       status,
	}
	if err := repo.Db.Create(material).Error; err != nil {
		t.Fatalf("create test material failed: %v", err)
	}
	return material
}
