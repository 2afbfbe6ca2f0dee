package models

import "time"

// Job card lifecycle statuses. A card never leaves StatusInvoiced.
type JobStatus string

const (
	StatusPending             JobStatus = "pending"
	StatusAssigned            JobStatus = "assigned"
	StatusInProgress          JobStatus = "in_progress"
	StatusOnHold              JobStatus = "on_hold"
	StatusWaitingForParts     JobStatus = "waiting_for_parts"
	StatusAssessmentRequested JobStatus = "assessment_requested"
	StatusCompleted           JobStatus = "completed"
	StatusInvoiced            JobStatus = "invoiced"
)

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

const (
	POPending   = "pending"
	POReceived  = "received"
	POCancelled = "cancelled"
)

type Vehicle struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PlateNumber string `gorm:"size:50;uniqueIndex;not null" json:"plate_number"`
	Make        string `gorm:"size:100" json:"make"`
	Model       string `gorm:"size:100" json:"model"`
	Year        int32  `json:"year"`
	OwnerName   string `gorm:"size:255" json:"owner_name"`
	OwnerPhone  string `gorm:"size:50" json:"owner_phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type JobCard struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	VehicleID            int64     `gorm:"index;not null" json:"vehicle_id"`
	DriverID             *int64    `json:"driver_id,omitempty"`
	Description          string    `gorm:"type:text;not null" json:"description"`
	Status               JobStatus `gorm:"size:32;not null;default:'pending';index" json:"status"`
	AssignedToMechanicID *int64    `gorm:"index" json:"assigned_to_mechanic_id,omitempty"`
	ServiceAdvisorID     *int64    `json:"service_advisor_id,omitempty"`
	LaborCost            *string   `gorm:"type:decimal(18,2)" json:"labor_cost,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	AssignedAt           *time.Time `json:"assigned_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`

	Vehicle    *Vehicle    `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	PartUsages []PartUsage `gorm:"foreignKey:JobCardID" json:"part_usages,omitempty"`
}

type InventoryItem struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	PartNumber   string `gorm:"size:100;uniqueIndex" json:"part_number"`
	Quantity     int32  `gorm:"not null;default:0" json:"quantity"`
	Price        string `gorm:"type:decimal(18,2);not null" json:"price"`
	ReorderLevel int32  `gorm:"not null;default:0" json:"reorder_level"`
	SupplierID   *int64 `json:"supplier_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// PartUsage is append-only. Rows are never updated or deleted once written;
// the invoice parts cost is always recomputed from these rows.
type PartUsage struct {
	ID           int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	JobCardID    int64 `gorm:"index;not null" json:"job_card_id"`
	ItemID       int64 `gorm:"index;not null" json:"item_id"`
	QuantityUsed int32 `gorm:"not null" json:"quantity_used"`
	RecordedByID int64 `gorm:"not null" json:"recorded_by_id"`
	CreatedAt    time.Time `json:"created_at"`

	Item *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// AssignmentHistory is append-only; one row per assignment event, so a card
// accumulates rows across reassignments.
type AssignmentHistory struct {
	ID           int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	JobCardID    int64 `gorm:"index;not null" json:"job_card_id"`
	MechanicID   int64 `gorm:"not null" json:"mechanic_id"`
	AssignedByID int64 `gorm:"not null" json:"assigned_by_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Invoice struct {
	ID               int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	JobCardID        int64   `gorm:"uniqueIndex;not null" json:"job_card_id"`
	LaborCost        string  `gorm:"type:decimal(18,2);not null" json:"labor_cost"`
	PartsCost        string  `gorm:"type:decimal(18,2);not null" json:"parts_cost"`
	TotalAmount      string  `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	GeneratedByID    int64   `gorm:"not null" json:"generated_by_id"`
	MechanicID       *int64  `json:"mechanic_id,omitempty"`
	ServiceAdvisorID *int64  `json:"service_advisor_id,omitempty"`
	InvoiceDate      time.Time `gorm:"not null" json:"invoice_date"`
	CreatedAt        time.Time `json:"created_at"`
}

type PartsRequest struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	JobCardID     int64  `gorm:"index;not null" json:"job_card_id"`
	ItemID        int64  `gorm:"not null" json:"item_id"`
	Quantity      int32  `gorm:"not null" json:"quantity"`
	RequestedByID int64  `gorm:"not null" json:"requested_by_id"`
	Status        string `gorm:"size:32;not null;default:'pending';index" json:"status"`
	DecidedByID   *int64 `json:"decided_by_id,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Item *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

type Supplier struct {
	ID            int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierCode  string  `gorm:"size:100;uniqueIndex;not null" json:"supplier_code"`
	SupplierName  string  `gorm:"size:255;not null" json:"supplier_name"`
	ContactPerson *string `gorm:"size:100" json:"contact_person,omitempty"`
	Phone         *string `gorm:"size:50" json:"phone,omitempty"`
	Email         *string `gorm:"size:100" json:"email,omitempty"`
	Address       *string `gorm:"size:255" json:"address,omitempty"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PurchaseOrder struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string `gorm:"size:100;uniqueIndex;not null" json:"order_number"`
	SupplierID  int64  `gorm:"index;not null" json:"supplier_id"`
	Status      string `gorm:"size:32;not null;default:'pending';index" json:"status"`
	CreatedByID int64  `gorm:"not null" json:"created_by_id"`
	ReceivedByID *int64    `json:"received_by_id,omitempty"`
	ReceivedAt   *time.Time `json:"received_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Supplier *Supplier           `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Items    []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID" json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseOrderID int64  `gorm:"index;not null" json:"purchase_order_id"`
	ItemID          int64  `gorm:"not null" json:"item_id"`
	Quantity        int32  `gorm:"not null" json:"quantity"`
	UnitCost        string `gorm:"type:decimal(18,2);not null" json:"unit_cost"`
	CreatedAt       time.Time `json:"created_at"`

	Item *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
