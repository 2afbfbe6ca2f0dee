package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lewa-workshop/config"
	"lewa-workshop/internal/database/models"
	"lewa-workshop/internal/middleware"
	"lewa-workshop/internal/workshop"
)

const (
	INVENTORY_ITEMS_CACHE_KEY = "inventory:items"
	INVENTORY_CACHE_TTL       = 5 * time.Minute
)

type InventoryHandler struct {
	db       *gorm.DB
	workshop *workshop.Workshop
	redis    *redis.Client
}

func NewInventoryHandler(db *gorm.DB, ws *workshop.Workshop, redisClient *redis.Client) *InventoryHandler {
	return &InventoryHandler{
		db:       db,
		workshop: ws,
		redis:    redisClient,
	}
}

// --- Helpers ---

func (h *InventoryHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *InventoryHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func (h *InventoryHandler) fail(c *gin.Context, funcName string, err error) {
	switch {
	case errors.Is(err, workshop.ErrValidation):
		h.error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, workshop.ErrUnauthorized):
		h.error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, workshop.ErrNotFound):
		h.error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, workshop.ErrIllegalTransition),
		errors.Is(err, workshop.ErrInsufficientStock):
		h.error(c, http.StatusConflict, err.Error())
	default:
		config.LogError(config.GetLogger(), "inventory", funcName, "inventory operation failed", nil, err)
		h.error(c, http.StatusInternalServerError, "database error")
	}
}

func (h *InventoryHandler) invalidateCache(ctx context.Context) {
	if h.redis != nil {
		_ = h.redis.Del(ctx, INVENTORY_ITEMS_CACHE_KEY)
	}
}

func parseIDParam(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

func validPrice(s string) bool {
	d, err := decimal.NewFromString(s)
	return err == nil && !d.IsNegative()
}

// --- DTOs ---

type CreateItemRequest struct {
	Name         string `json:"name" binding:"required"`
	PartNumber   string `json:"part_number" binding:"required"`
	Quantity     int32  `json:"quantity"`
	Price        string `json:"price" binding:"required"`
	ReorderLevel int32  `json:"reorder_level"`
	SupplierID   *int64 `json:"supplier_id"`
}

type UpdateItemRequest struct {
	Name         *string `json:"name"`
	Price        *string `json:"price"`
	ReorderLevel *int32  `json:"reorder_level"`
	SupplierID   *int64  `json:"supplier_id"`
}

type RestockRequest struct {
	Quantity int32 `json:"quantity" binding:"required"`
}

type DecideRequestRequest struct {
	Approve bool `json:"approve"`
}

type CreateSupplierRequest struct {
	SupplierCode  string  `json:"supplier_code" binding:"required"`
	SupplierName  string  `json:"supplier_name" binding:"required"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
}

type PurchaseOrderLineRequest struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	Quantity int32  `json:"quantity" binding:"required"`
	UnitCost string `json:"unit_cost" binding:"required"`
}

type CreatePurchaseOrderRequest struct {
	OrderNumber string                     `json:"order_number" binding:"required"`
	SupplierID  int64                      `json:"supplier_id" binding:"required"`
	Items       []PurchaseOrderLineRequest `json:"items" binding:"required,min=1"`
}

// --- Inventory items ---

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !validPrice(req.Price) {
		h.error(c, http.StatusBadRequest, "Invalid price")
		return
	}
	if req.Quantity < 0 {
		h.error(c, http.StatusBadRequest, "Quantity cannot be negative")
		return
	}

	item := models.InventoryItem{
		Name:         req.Name,
		PartNumber:   req.PartNumber,
		Quantity:     req.Quantity,
		Price:        req.Price,
		ReorderLevel: req.ReorderLevel,
		SupplierID:   req.SupplierID,
	}
	if err := h.db.Create(&item).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "error creating inventory item")
		return
	}

	h.invalidateCache(c.Request.Context())
	h.success(c, item)
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	filtered := c.Query("search") != ""

	// Cache only the unfiltered listing; filtered reads go to the database.
	if h.redis != nil && !filtered {
		if cached, err := h.redis.Get(ctx, INVENTORY_ITEMS_CACHE_KEY).Result(); err == nil {
			var items []models.InventoryItem
			if json.Unmarshal([]byte(cached), &items) == nil {
				h.success(c, items)
				return
			}
		}
	}

	var items []models.InventoryItem
	query := h.db.Model(&models.InventoryItem{})
	if search := c.Query("search"); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(part_number) LIKE ?", term, term)
	}
	if err := query.Order("name ASC").Find(&items).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	if h.redis != nil && !filtered {
		if payload, err := json.Marshal(items); err == nil {
			_ = h.redis.Set(ctx, INVENTORY_ITEMS_CACHE_KEY, payload, INVENTORY_CACHE_TTL)
		}
	}

	h.success(c, items)
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var item models.InventoryItem
	if err := h.db.Preload("Supplier").First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusNotFound, "Inventory item not found")
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Price != nil {
		if !validPrice(*req.Price) {
			h.error(c, http.StatusBadRequest, "Invalid price")
			return
		}
		updates["price"] = *req.Price
	}
	if req.ReorderLevel != nil {
		updates["reorder_level"] = *req.ReorderLevel
	}
	if req.SupplierID != nil {
		updates["supplier_id"] = *req.SupplierID
	}
	if len(updates) == 0 {
		h.error(c, http.StatusBadRequest, "No fields to update")
		return
	}

	result := h.db.Model(&models.InventoryItem{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		h.error(c, http.StatusInternalServerError, "error updating inventory item")
		return
	}
	if result.RowsAffected == 0 {
		h.error(c, http.StatusNotFound, "Inventory item not found")
		return
	}

	var item models.InventoryItem
	if err := h.db.First(&item, id).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.invalidateCache(c.Request.Context())
	h.success(c, item)
}

func (h *InventoryHandler) RestockItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.workshop.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		h.fail(c, "RestockItem", err)
		return
	}

	h.invalidateCache(c.Request.Context())
	h.success(c, item)
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	var items []models.InventoryItem
	if err := h.db.Where("quantity <= reorder_level").Order("quantity ASC").Find(&items).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}
	h.success(c, items)
}

// --- Parts requests ---

func (h *InventoryHandler) ListPartsRequests(c *gin.Context) {
	var requests []models.PartsRequest

	query := h.db.Model(&models.PartsRequest{}).Preload("Item")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if jobCard := c.Query("job_card_id"); jobCard != "" {
		query = query.Where("job_card_id = ?", jobCard)
	}

	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, requests)
}

func (h *InventoryHandler) DecidePartsRequest(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request ID")
		return
	}

	// Absent body means approve=false, i.e. reject.
	var req DecideRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	request, err := h.workshop.DecidePartsRequest(c.Request.Context(), workshop.DecidePartsRequestCommand{
		RequestID: id,
		Approve:   req.Approve,
		ActorID:   middleware.ActorID(c),
	})
	if err != nil {
		h.fail(c, "DecidePartsRequest", err)
		return
	}

	if req.Approve {
		h.invalidateCache(c.Request.Context())
	}
	h.success(c, request)
}

// --- Suppliers ---

func (h *InventoryHandler) CreateSupplier(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	supplier := models.Supplier{
		SupplierCode:  req.SupplierCode,
		SupplierName:  req.SupplierName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	if err := h.db.Create(&supplier).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "error creating supplier")
		return
	}

	h.success(c, supplier)
}

func (h *InventoryHandler) GetSupplier(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid supplier ID")
		return
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusNotFound, "Supplier not found")
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, supplier)
}

func (h *InventoryHandler) ListSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	if err := h.db.Where("is_active = ?", true).Order("supplier_name ASC").Find(&suppliers).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}
	h.success(c, suppliers)
}

// --- Purchase orders ---

func (h *InventoryHandler) CreatePurchaseOrder(c *gin.Context) {
	var req CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			h.error(c, http.StatusBadRequest, "Line quantity must be greater than 0")
			return
		}
		if !validPrice(line.UnitCost) {
			h.error(c, http.StatusBadRequest, "Invalid unit cost")
			return
		}
	}

	order := models.PurchaseOrder{
		OrderNumber: req.OrderNumber,
		SupplierID:  req.SupplierID,
		Status:      models.POPending,
		CreatedByID: middleware.ActorID(c),
	}
	for _, line := range req.Items {
		order.Items = append(order.Items, models.PurchaseOrderItem{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			UnitCost: line.UnitCost,
		})
	}

	if err := h.db.Create(&order).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "error creating purchase order")
		return
	}

	h.success(c, order)
}

func (h *InventoryHandler) ListPurchaseOrders(c *gin.Context) {
	var orders []models.PurchaseOrder

	query := h.db.Model(&models.PurchaseOrder{}).Preload("Supplier").Preload("Items")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, orders)
}

func (h *InventoryHandler) ReceivePurchaseOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid purchase order ID")
		return
	}

	order, err := h.workshop.ReceivePurchaseOrder(c.Request.Context(), workshop.ReceivePurchaseOrderCommand{
		PurchaseOrderID: id,
		ActorID:         middleware.ActorID(c),
	})
	if err != nil {
		h.fail(c, "ReceivePurchaseOrder", err)
		return
	}

	h.invalidateCache(c.Request.Context())
	h.success(c, order)
}
