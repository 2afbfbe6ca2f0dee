package workshop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lewa-workshop/internal/database"
	"lewa-workshop/internal/database/models"
)

// setupDB opens an in-memory sqlite database pinned to a single connection,
// so every transaction in a test sees the same store.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.MigrateWorkshopDB(db))
	require.NoError(t, database.SeedRoles(db))
	return db
}

func roleID(t *testing.T, db *gorm.DB, name string) int32 {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where("role_name = ?", name).First(&role).Error)
	return role.ID
}

func createUser(t *testing.T, db *gorm.DB, username, role string, active bool) *models.User {
	t.Helper()
	user := models.User{
		Username:  username,
		Email:     username + "@lewa.test",
		Password:  "irrelevant",
		Firstname: "Test",
		Lastname:  "User",
		RoleID:    roleID(t, db, role),
		IsActive:  active,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createMechanic(t *testing.T, db *gorm.DB, username string) *models.User {
	return createUser(t, db, username, models.RoleMechanic, true)
}

func createItem(t *testing.T, db *gorm.DB, name string, quantity int32, price string) *models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		Name:       name,
		PartNumber: "PN-" + name,
		Quantity:   quantity,
		Price:      price,
	}
	require.NoError(t, db.Create(&item).Error)
	return &item
}

func createCard(t *testing.T, db *gorm.DB, status models.JobStatus) *models.JobCard {
	t.Helper()
	var plates int64
	require.NoError(t, db.Model(&models.Vehicle{}).Count(&plates).Error)
	vehicle := models.Vehicle{PlateNumber: fmt.Sprintf("KDA %03dX", plates+1)}
	require.NoError(t, db.Create(&vehicle).Error)
	card := models.JobCard{
		VehicleID:   vehicle.ID,
		Description: "engine knock",
		Status:      status,
	}
	require.NoError(t, db.Create(&card).Error)
	return &card
}

func itemQuantity(t *testing.T, db *gorm.DB, itemID int64) int32 {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, db.First(&item, itemID).Error)
	return item.Quantity
}

func cardStatus(t *testing.T, db *gorm.DB, cardID int64) models.JobStatus {
	t.Helper()
	var card models.JobCard
	require.NoError(t, db.First(&card, cardID).Error)
	return card.Status
}
