package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"lewa-workshop/config"
	"lewa-workshop/internal/database/models"
	"lewa-workshop/internal/middleware"
	"lewa-workshop/internal/workshop"
)

const INVENTORY_ITEMS_CACHE_KEY = "inventory:items"

type JobCardHandler struct {
	db       *gorm.DB
	workshop *workshop.Workshop
	redis    *redis.Client
}

func NewJobCardHandler(db *gorm.DB, ws *workshop.Workshop, redisClient *redis.Client) *JobCardHandler {
	return &JobCardHandler{
		db:       db,
		workshop: ws,
		redis:    redisClient,
	}
}

// --- Helpers ---

func (h *JobCardHandler) success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func (h *JobCardHandler) error(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// fail maps workshop error kinds onto HTTP statuses. Unknown errors are
// store failures: logged and reported as 500 without leaking internals.
func (h *JobCardHandler) fail(c *gin.Context, funcName string, err error) {
	switch {
	case errors.Is(err, workshop.ErrValidation),
		errors.Is(err, workshop.ErrInvalidMechanic):
		h.error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, workshop.ErrUnauthorized):
		h.error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, workshop.ErrNotFound):
		h.error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, workshop.ErrIllegalTransition),
		errors.Is(err, workshop.ErrInsufficientStock),
		errors.Is(err, workshop.ErrInvoiceExists):
		h.error(c, http.StatusConflict, err.Error())
	default:
		config.LogError(config.GetLogger(), "jobcard", funcName, "workshop operation failed", nil, err)
		h.error(c, http.StatusInternalServerError, "database error")
	}
}

func (h *JobCardHandler) invalidateInventoryCache(ctx context.Context) {
	if h.redis != nil {
		_ = h.redis.Del(ctx, INVENTORY_ITEMS_CACHE_KEY)
	}
}

func parseIDParam(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

// --- DTOs ---

type CreateJobCardRequest struct {
	VehicleID        int64  `json:"vehicle_id" binding:"required"`
	DriverID         *int64 `json:"driver_id"`
	Description      string `json:"description" binding:"required"`
	ServiceAdvisorID *int64 `json:"service_advisor_id"`
}

type AssignRequest struct {
	MechanicID int64 `json:"mechanic_id" binding:"required"`
}

type PartLineRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int32 `json:"quantity"`
	Selected bool  `json:"selected"`
}

type AssignWithPartsRequest struct {
	MechanicID int64             `json:"mechanic_id" binding:"required"`
	LaborCost  *string           `json:"labor_cost"`
	Parts      []PartLineRequest `json:"parts"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CompleteRequest struct {
	MechanicID       *int64 `json:"mechanic_id"`
	ServiceAdvisorID *int64 `json:"service_advisor_id"`
}

type InvoiceRequest struct {
	LaborCost string `json:"labor_cost" binding:"required"`
}

type RequestPartsRequest struct {
	ItemID   int64 `json:"item_id" binding:"required"`
	Quantity int32 `json:"quantity" binding:"required"`
}

type CreateVehicleRequest struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int32  `json:"year"`
	OwnerName   string `json:"owner_name"`
	OwnerPhone  string `json:"owner_phone"`
}

// --- Job cards ---

func (h *JobCardHandler) CreateJobCard(c *gin.Context) {
	var req CreateJobCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var vehicle models.Vehicle
	if err := h.db.First(&vehicle, req.VehicleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusNotFound, "Vehicle not found")
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	card := models.JobCard{
		VehicleID:        req.VehicleID,
		DriverID:         req.DriverID,
		Description:      req.Description,
		Status:           models.StatusPending,
		ServiceAdvisorID: req.ServiceAdvisorID,
	}
	if err := h.db.Create(&card).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "error creating job card")
		return
	}

	h.success(c, card)
}

func (h *JobCardHandler) ListJobCards(c *gin.Context) {
	var cards []models.JobCard
	var total int64

	query := h.db.Model(&models.JobCard{}).Preload("Vehicle")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if mechanic := c.Query("mechanic_id"); mechanic != "" {
		query = query.Where("assigned_to_mechanic_id = ?", mechanic)
	}
	if vehicle := c.Query("vehicle_id"); vehicle != "" {
		query = query.Where("vehicle_id = ?", vehicle)
	}

	if err := query.Count(&total).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize <= 0 {
		pageSize = 20
	}
	pageNumber := 1
	if token := c.Query("page_token"); token != "" {
		if n, err := strconv.Atoi(token); err == nil && n > 0 {
			pageNumber = n
		}
	}

	offset := (pageNumber - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&cards).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	nextPageToken := ""
	if int64(pageNumber*pageSize) < total {
		nextPageToken = strconv.Itoa(pageNumber + 1)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cards,
		"pagination": gin.H{
			"next_page_token": nextPageToken,
			"total_count":     total,
		},
	})
}

func (h *JobCardHandler) GetJobCard(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid job card ID")
		return
	}

	var card models.JobCard
	if err := h.db.Preload("Vehicle").Preload("PartUsages.Item").First(&card, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusNotFound, "Job card not found")
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, card)
}

func (h *JobCardHandler) AssignJobCard(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid job card ID")
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	card, err := h.workshop.Assign(c.Request.Context(), workshop.AssignCommand{
		JobCardID:  id,
		MechanicID: req.MechanicID,
		ActorID:    middleware.ActorID(c),
	})
	if err != nil {
		h.fail(c, "AssignJobCard", err)
		return
	}

	h.success(c, card)
}

func (h *JobCardHandler) AssignWithParts(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid job card ID")
		return
	}

	var req AssignWithPartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	parts := make([]workshop.PartLine, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, workshop.PartLine{
			ItemID:   p.ItemID,
			Quantity: p.Quantity,
			Selected: p.Selected,
		})
	}

	card, err := h.workshop.AssignWithParts(c.Request.Context(), workshop.AssignWithPartsCommand{
		JobCardID:  id,
		MechanicID: req.MechanicID,
		ActorID:    middleware.ActorID(c),
		LaborCost:  req.LaborCost,
		Parts:      parts,
	})
	if err != nil {
		h.fail(c, "AssignWithParts", err)
		return
	}

	h.invalidateInventoryCache(c.Request.Context())
	h.success(c, card)
}

func (h *JobCardHandler) UpdateStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid job card ID")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	card, err := h.workshop.UpdateStatus(c.Request.Context(), workshop.UpdateStatusCommand{
		JobCardID: id,
		Status:    models.JobStatus(req.Status),
		ActorID:   middleware.ActorID(c),
	})
	if err != nil {
		h.fail(c, "UpdateStatus", err)
		return
	}

	h.success(c, card)
}

func (h *JobCardHandler) CompleteJobCard(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid job card ID")
		return
	}

	// Every field is optional, so a body-less POST is fine.
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	card, err := h.workshop.Complete(c.Request.Context(), workshop.CompleteCommand{
		JobCardID:        id,
		MechanicID:       req.MechanicID,
		ServiceAdvisorID: req.ServiceAdvisorID,
		ActorID:          middleware.ActorID(c),
	})
	if err != nil {
		h.fail(c, "CompleteJobCard", err)
		return
	}

	h.success(c, card)
}

func (h *JobCardHandler) GenerateInvoice(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid job card ID")
		return
	}

	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	invoice, err := h.workshop.GenerateInvoice(c.Request.Context(), workshop.GenerateInvoiceCommand{
		JobCardID: id,
		LaborCost: req.LaborCost,
		ActorID:   middleware.ActorID(c),
	})
	if err != nil {
		h.fail(c, "GenerateInvoice", err)
		return
	}

	h.success(c, invoice)
}

func (h *JobCardHandler) RequestParts(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid job card ID")
		return
	}

	var req RequestPartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	request, err := h.workshop.RequestParts(c.Request.Context(), workshop.RequestPartsCommand{
		JobCardID: id,
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
		ActorID:   middleware.ActorID(c),
	})
	if err != nil {
		h.fail(c, "RequestParts", err)
		return
	}

	h.success(c, request)
}

// --- Vehicles ---

func (h *JobCardHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.error(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	vehicle := models.Vehicle{
		PlateNumber: req.PlateNumber,
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		OwnerName:   req.OwnerName,
		OwnerPhone:  req.OwnerPhone,
	}
	if err := h.db.Create(&vehicle).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "error creating vehicle")
		return
	}

	h.success(c, vehicle)
}

func (h *JobCardHandler) ListVehicles(c *gin.Context) {
	var vehicles []models.Vehicle

	query := h.db.Model(&models.Vehicle{})
	if search := c.Query("search"); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(plate_number) LIKE ? OR LOWER(owner_name) LIKE ?", term, term)
	}

	if err := query.Order("created_at DESC").Limit(100).Find(&vehicles).Error; err != nil {
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, vehicles)
}

func (h *JobCardHandler) GetVehicle(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.error(c, http.StatusBadRequest, "Invalid vehicle ID")
		return
	}

	var vehicle models.Vehicle
	if err := h.db.First(&vehicle, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.error(c, http.StatusNotFound, "Vehicle not found")
			return
		}
		h.error(c, http.StatusInternalServerError, "database error")
		return
	}

	h.success(c, vehicle)
}
