package workshop

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lewa-workshop/internal/database/models"
)

type RequestPartsCommand struct {
	JobCardID int64
	ItemID    int64
	Quantity  int32
	ActorID   int64
}

type DecidePartsRequestCommand struct {
	RequestID int64
	Approve   bool
	ActorID   int64
}

// RequestParts files a pending parts request for a job card. Only the
// mechanic currently assigned to the card may file one; nothing is deducted
// until the request is approved.
func (w *Workshop) RequestParts(ctx context.Context, cmd RequestPartsCommand) (*models.PartsRequest, error) {
	if cmd.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}

	var request models.PartsRequest
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card models.JobCard
		if err := tx.First(&card, cmd.JobCardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: job card %d", ErrNotFound, cmd.JobCardID)
			}
			return err
		}

		if card.AssignedToMechanicID == nil || *card.AssignedToMechanicID != cmd.ActorID {
			return fmt.Errorf("%w: only the assigned mechanic may request parts", ErrUnauthorized)
		}

		if IsTerminal(card.Status) || card.Status == models.StatusCompleted {
			return fmt.Errorf("%w: cannot request parts for job card in status %s", ErrIllegalTransition, card.Status)
		}

		var item models.InventoryItem
		if err := tx.First(&item, cmd.ItemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: inventory item %d", ErrNotFound, cmd.ItemID)
			}
			return err
		}

		request = models.PartsRequest{
			JobCardID:     cmd.JobCardID,
			ItemID:        cmd.ItemID,
			Quantity:      cmd.Quantity,
			RequestedByID: cmd.ActorID,
			Status:        models.RequestPending,
		}
		return tx.Create(&request).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// DecidePartsRequest resolves a pending request. Approval performs the
// deduct+record pair in the same transaction as the status flip, so an
// insufficient-stock failure leaves the request pending and stock untouched.
func (w *Workshop) DecidePartsRequest(ctx context.Context, cmd DecidePartsRequestCommand) (*models.PartsRequest, error) {
	var request models.PartsRequest
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockedRow(tx).First(&request, cmd.RequestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: parts request %d", ErrNotFound, cmd.RequestID)
			}
			return err
		}

		if request.Status != models.RequestPending {
			return fmt.Errorf("%w: parts request already %s", ErrIllegalTransition, request.Status)
		}

		status := models.RequestRejected
		if cmd.Approve {
			if _, err := deductStock(tx, request.ItemID, request.Quantity); err != nil {
				return err
			}
			if err := recordPartUsage(tx, request.JobCardID, request.ItemID, request.Quantity, cmd.ActorID); err != nil {
				return err
			}
			status = models.RequestApproved
		}

		now := time.Now()
		request.Status = status
		request.DecidedByID = &cmd.ActorID
		request.DecidedAt = &now

		return tx.Model(&models.PartsRequest{}).Where("id = ?", request.ID).Updates(map[string]interface{}{
			"status":        status,
			"decided_by_id": cmd.ActorID,
			"decided_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}
