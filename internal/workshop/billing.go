package workshop

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lewa-workshop/internal/database/models"
)

type GenerateInvoiceCommand struct {
	JobCardID int64
	LaborCost string
	ActorID   int64
}

type usageLine struct {
	QuantityUsed int32
	Price        string
}

// GenerateInvoice creates the single invoice for a job card and flips it to
// invoiced, in one transaction. parts_cost is always recomputed from the
// recorded PartUsage rows, never taken from caller input, so a client cannot
// tamper with the total. If either the insert or the status update fails the
// whole operation rolls back and no orphan invoice exists.
func (w *Workshop) GenerateInvoice(ctx context.Context, cmd GenerateInvoiceCommand) (*models.Invoice, error) {
	if err := validateMoney(cmd.LaborCost); err != nil {
		return nil, err
	}
	laborCost, _ := decimal.NewFromString(cmd.LaborCost)

	var invoice models.Invoice
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card models.JobCard
		if err := lockedRow(tx).First(&card, cmd.JobCardID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: job card %d", ErrNotFound, cmd.JobCardID)
			}
			return err
		}

		if card.Status == models.StatusInvoiced {
			return fmt.Errorf("%w: job card %d already invoiced", ErrIllegalTransition, cmd.JobCardID)
		}

		var existing int64
		if err := tx.Model(&models.Invoice{}).Where("job_card_id = ?", cmd.JobCardID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: job card %d", ErrInvoiceExists, cmd.JobCardID)
		}

		partsCost, err := partsCostForJobCard(tx, cmd.JobCardID)
		if err != nil {
			return err
		}
		total := laborCost.Add(partsCost)

		invoice = models.Invoice{
			JobCardID:        cmd.JobCardID,
			LaborCost:        laborCost.StringFixed(2),
			PartsCost:        partsCost.StringFixed(2),
			TotalAmount:      total.StringFixed(2),
			GeneratedByID:    cmd.ActorID,
			MechanicID:       card.AssignedToMechanicID,
			ServiceAdvisorID: card.ServiceAdvisorID,
			InvoiceDate:      time.Now(),
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		return tx.Model(&models.JobCard{}).Where("id = ?", card.ID).
			Update("status", models.StatusInvoiced).Error
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// partsCostForJobCard sums quantity_used * item price over the card's
// recorded part usages. Zero when none exist.
func partsCostForJobCard(tx *gorm.DB, jobCardID int64) (decimal.Decimal, error) {
	var lines []usageLine
	err := tx.Table("part_usages").
		Select("part_usages.quantity_used, inventory_items.price").
		Joins("join inventory_items on inventory_items.id = part_usages.item_id").
		Where("part_usages.job_card_id = ?", jobCardID).
		Find(&lines).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, line := range lines {
		price, err := decimal.NewFromString(line.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("bad price on usage line: %w", err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt32(line.QuantityUsed)))
	}
	return total, nil
}
