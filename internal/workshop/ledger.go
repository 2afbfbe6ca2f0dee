package workshop

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lewa-workshop/internal/database/models"
)

// lockedRow applies SELECT ... FOR UPDATE where the dialect supports it.
// sqlite (used by the test suite) rejects the clause; its single-writer
// model already serializes the check-and-decrement.
func lockedRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// deductStock takes the item row lock, verifies stock and decrements.
// Two concurrent deductions against the same item cannot both pass the check:
// the second blocks on the row lock until the first commits or rolls back.
// Callers record usage themselves, in the same transaction.
func deductStock(tx *gorm.DB, itemID int64, quantity int32) (*models.InventoryItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}

	var item models.InventoryItem
	if err := lockedRow(tx).First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: inventory item %d", ErrNotFound, itemID)
		}
		return nil, err
	}

	if item.Quantity < quantity {
		return nil, fmt.Errorf("%w: item %d has %d, requested %d",
			ErrInsufficientStock, itemID, item.Quantity, quantity)
	}

	item.Quantity -= quantity
	if err := tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID).
		Update("quantity", item.Quantity).Error; err != nil {
		return nil, err
	}

	return &item, nil
}

// Restock books quantity into an item outside any purchase order flow,
// e.g. a manual stock correction.
func (w *Workshop) Restock(ctx context.Context, itemID int64, quantity int32) (*models.InventoryItem, error) {
	var item *models.InventoryItem
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = restockItem(tx, itemID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// restockItem increments stock under the same row lock as deductStock.
func restockItem(tx *gorm.DB, itemID int64, quantity int32) (*models.InventoryItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}

	var item models.InventoryItem
	if err := lockedRow(tx).First(&item, itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: inventory item %d", ErrNotFound, itemID)
		}
		return nil, err
	}

	item.Quantity += quantity
	if err := tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID).
		Update("quantity", item.Quantity).Error; err != nil {
		return nil, err
	}

	return &item, nil
}
