package workshop

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lewa-workshop/internal/database/models"
)

type ReceivePurchaseOrderCommand struct {
	PurchaseOrderID int64
	ActorID         int64
}

// ReceivePurchaseOrder books in all line items of a pending purchase order
// and marks it received. Stock increments take the same item row locks as
// deductions, so receiving and deducting the same item serialize.
func (w *Workshop) ReceivePurchaseOrder(ctx context.Context, cmd ReceivePurchaseOrderCommand) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockedRow(tx).Preload("Items").First(&order, cmd.PurchaseOrderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: purchase order %d", ErrNotFound, cmd.PurchaseOrderID)
			}
			return err
		}

		if order.Status != models.POPending {
			return fmt.Errorf("%w: purchase order already %s", ErrIllegalTransition, order.Status)
		}

		for _, line := range order.Items {
			if _, err := restockItem(tx, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}

		now := time.Now()
		order.Status = models.POReceived
		order.ReceivedByID = &cmd.ActorID
		order.ReceivedAt = &now

		return tx.Model(&models.PurchaseOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"status":         models.POReceived,
			"received_by_id": cmd.ActorID,
			"received_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
