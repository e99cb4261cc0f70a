package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// JobStatus 工单状态
const (
	JobStatusPlanned    = "PLANNED"
	JobStatusInProgress = "IN_PROGRESS"
	JobStatusCompleted  = "COMPLETED"
	JobStatusCancelled  = "CANCELLED"
)

// ValidJobStatuses 合法工单状态集合
var ValidJobStatuses = []string{JobStatusPlanned, JobStatusInProgress, JobStatusCompleted, JobStatusCancelled}

// WorkOrderSource 工单来源
const (
	WOSourceMRP    = "MRP"
	WOSourceManual = "MANUAL"
)

// WorkOrder 生产工单
type WorkOrder struct {
	ID          string          `json:"id" gorm:"primaryKey;size:32"`
	JobNo       string          `json:"job_no" gorm:"size:50;not null;uniqueIndex"`
	ItemID      string          `json:"item_id" gorm:"size:32;not null;index"`
	QtyPlanned  decimal.Decimal `json:"qty_planned" gorm:"type:decimal(15,4);not null"`
	QtyProduced decimal.Decimal `json:"qty_produced" gorm:"type:decimal(15,4);default:0"`
	BOMRevision int             `json:"bom_revision" gorm:"default:0"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Status      string          `json:"status" gorm:"size:20;not null;default:PLANNED"`
	WarehouseID string          `json:"warehouse_id" gorm:"size:32;not null"`
	LotNumber   string          `json:"lot_number" gorm:"size:64"`
	SourceType  string          `json:"source_type" gorm:"size:16;default:MANUAL"`
	PlanID      string          `json:"plan_id" gorm:"size:32;index"`
	CreatedBy   string          `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Item      *Item               `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Materials []WorkOrderMaterial `json:"materials,omitempty" gorm:"foreignKey:WorkOrderID"`
}

func (WorkOrder) TableName() string {
	return "erp_work_orders"
}

// WorkOrderMaterial 工单物料需求行
type WorkOrderMaterial struct {
	ID          string          `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID string          `json:"work_order_id" gorm:"size:32;not null;index"`
	ItemID      string          `json:"item_id" gorm:"size:32;not null"`
	QtyRequired decimal.Decimal `json:"qty_required" gorm:"type:decimal(15,4);not null"`
	QtyConsumed decimal.Decimal `json:"qty_consumed" gorm:"type:decimal(15,4);default:0"`
	LotNumber   string          `json:"lot_number" gorm:"size:64"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (WorkOrderMaterial) TableName() string {
	return "erp_work_order_materials"
}
