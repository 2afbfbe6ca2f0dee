package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lewa-workshop/internal/database/models"
)

func NewConnection(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		log.Fatal("DSN is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

// SeedRoles makes sure the built-in roles exist. Safe to run on every boot.
func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{RoleName: models.RoleAdmin, AccessLevel: 100},
		{RoleName: models.RoleServiceAdvisor, AccessLevel: 50},
		{RoleName: models.RolePartsManager, AccessLevel: 40},
		{RoleName: models.RoleMechanic, AccessLevel: 10},
	}
	for _, role := range roles {
		if err := db.Where("role_name = ?", role.RoleName).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

func MigrateWorkshopDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Vehicle{},
		&models.Supplier{},
		&models.InventoryItem{},
		&models.JobCard{},
		&models.PartUsage{},
		&models.AssignmentHistory{},
		&models.Invoice{},
		&models.PartsRequest{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
	)
}
