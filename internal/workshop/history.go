package workshop

import (
	"time"

	"gorm.io/gorm"

	"lewa-workshop/internal/database/models"
)

// Append-only recorders. Both run inside the caller's transaction, so a
// failed append rolls the whole operation back with it.

func recordAssignment(tx *gorm.DB, jobCardID, mechanicID, actorID int64) error {
	entry := models.AssignmentHistory{
		JobCardID:    jobCardID,
		MechanicID:   mechanicID,
		AssignedByID: actorID,
		CreatedAt:    time.Now(),
	}
	return tx.Create(&entry).Error
}

func recordPartUsage(tx *gorm.DB, jobCardID, itemID int64, quantity int32, actorID int64) error {
	usage := models.PartUsage{
		JobCardID:    jobCardID,
		ItemID:       itemID,
		QuantityUsed: quantity,
		RecordedByID: actorID,
		CreatedAt:    time.Now(),
	}
	return tx.Create(&usage).Error
}
