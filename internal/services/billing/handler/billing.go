package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lewa-workshop/config"
	"lewa-workshop/internal/database/models"
)

type BillingHandler struct {
	db *gorm.DB
}

func NewBillingHandler(db *gorm.DB) *BillingHandler {
	return &BillingHandler{db: db}
}

func (h *BillingHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *BillingHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (h *BillingHandler) ListInvoices(c *gin.Context) {
	var invoices []models.Invoice

	query := h.db.Model(&models.Invoice{})
	if jobCard := c.Query("job_card_id"); jobCard != "" {
		query = query.Where("job_card_id = ?", jobCard)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("invoice_date >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("invoice_date < ?", t.AddDate(0, 0, 1))
		}
	}

	if err := query.Order("invoice_date DESC").Find(&invoices).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, invoices)
}

func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	var invoice models.Invoice
	if err := h.db.First(&invoice, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusNotFound, "Invoice not found")
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, invoice)
}

// RevenueReport totals invoiced amounts over an optional date range.
// Amounts are stored as decimal strings, so the sum happens here rather
// than in SQL to avoid float driver round-trips.
func (h *BillingHandler) RevenueReport(c *gin.Context) {
	query := h.db.Model(&models.Invoice{})
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("invoice_date >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("invoice_date < ?", t.AddDate(0, 0, 1))
		}
	}

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		config.LogError(config.GetLogger(), "billing", "RevenueReport", "invoice query failed", nil, err)
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	totalLabor := decimal.Zero
	totalParts := decimal.Zero
	totalRevenue := decimal.Zero
	for _, inv := range invoices {
		if labor, err := decimal.NewFromString(inv.LaborCost); err == nil {
			totalLabor = totalLabor.Add(labor)
		}
		if parts, err := decimal.NewFromString(inv.PartsCost); err == nil {
			totalParts = totalParts.Add(parts)
		}
		if total, err := decimal.NewFromString(inv.TotalAmount); err == nil {
			totalRevenue = totalRevenue.Add(total)
		}
	}

	h.success(c, gin.H{
		"invoice_count": len(invoices),
		"total_labor":   totalLabor.StringFixed(2),
		"total_parts":   totalParts.StringFixed(2),
		"total_revenue": totalRevenue.StringFixed(2),
	})
}
