package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanStatus 生产计划状态
const (
	PlanStatusDraft      = "DRAFT"
	PlanStatusCalculated = "CALCULATED"
	PlanStatusProcessed  = "PROCESSED"
)

// PlanSourceType 需求来源
const (
	PlanSourceActual   = "ACTUAL"   // 未交货销售订单
	PlanSourceForecast = "FORECAST" // 预测，取计划行
	PlanSourceManual   = "MANUAL"   // 手工录入计划行
)

// SuggestedAction MRP建议动作
const (
	ActionNone = "NONE"
	ActionMake = "MAKE"
	ActionBuy  = "BUY"
)

// ProductionPlan 生产计划头
type ProductionPlan struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	PlanName       string     `json:"plan_name" gorm:"size:128;not null"`
	SourceType     string     `json:"source_type" gorm:"size:16;not null;default:MANUAL"`
	SalesOrderID   string     `json:"sales_order_id" gorm:"size:32"`
	Status         string     `json:"status" gorm:"size:16;not null;default:DRAFT"`
	CalculatedDate *time.Time `json:"calculated_date"`
	CreatedBy      string     `json:"created_by" gorm:"size:64"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Items      []ProductionPlanItem `json:"items,omitempty" gorm:"foreignKey:PlanID"`
	MRPResults []MRPResult          `json:"mrp_results,omitempty" gorm:"foreignKey:PlanID"`
}

func (ProductionPlan) TableName() string {
	return "erp_production_plans"
}

// ProductionPlanItem 计划需求行（MANUAL/FORECAST 模式）
type ProductionPlanItem struct {
	ID           string          `json:"id" gorm:"primaryKey;size:32"`
	PlanID       string          `json:"plan_id" gorm:"size:32;not null;index"`
	ItemID       string          `json:"item_id" gorm:"size:32;not null"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(15,4);not null"`
	DeliveryDate *time.Time      `json:"delivery_date"`
	CreatedAt    time.Time       `json:"created_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (ProductionPlanItem) TableName() string {
	return "erp_production_plan_items"
}

// MRPResult 净需求计算结果，计划进入 CALCULATED 后不再修改
type MRPResult struct {
	ID               string          `json:"id" gorm:"primaryKey;size:32"`
	PlanID           string          `json:"plan_id" gorm:"size:32;not null;index"`
	ItemID           string          `json:"item_id" gorm:"size:32;not null"`
	RequiredDate     *time.Time      `json:"required_date"`
	GrossRequirement decimal.Decimal `json:"gross_requirement" gorm:"type:decimal(15,4);default:0"`
	OnHandQty        decimal.Decimal `json:"on_hand_qty" gorm:"type:decimal(15,4);default:0"`
	OpenPOQty        decimal.Decimal `json:"open_po_qty" gorm:"type:decimal(15,4);default:0"`
	NetRequirement   decimal.Decimal `json:"net_requirement" gorm:"type:decimal(15,4);default:0"`
	SuggestedAction  string          `json:"suggested_action" gorm:"size:8;not null;default:NONE"`
	SuggestedQty     decimal.Decimal `json:"suggested_qty" gorm:"type:decimal(15,4);default:0"`
	CreatedAt        time.Time       `json:"created_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (MRPResult) TableName() string {
	return "erp_mrp_results"
}

// PRStatus 采购申请状态
const (
	PRStatusDraft         = "DRAFT"
	PRStatusApproved      = "APPROVED"
	PRStatusConvertedToPO = "CONVERTED_TO_PO"
)

// DraftPurchaseRequisition MRP处理阶段为BUY结果生成的采购申请
type DraftPurchaseRequisition struct {
	ID                 string          `json:"id" gorm:"primaryKey;size:32"`
	PRNo               string          `json:"pr_no" gorm:"size:50;not null;uniqueIndex"`
	PlanID             string          `json:"plan_id" gorm:"size:32;not null;index"`
	VendorID           string          `json:"vendor_id" gorm:"size:32;not null"`
	ItemID             string          `json:"item_id" gorm:"size:32;not null"`
	RequiredQty        decimal.Decimal `json:"required_qty" gorm:"type:decimal(15,4);not null"`
	RequiredDate       *time.Time      `json:"required_date"`
	SuggestedOrderDate *time.Time      `json:"suggested_order_date"`
	Status             string          `json:"status" gorm:"size:20;not null;default:DRAFT"`
	ApprovedBy         string          `json:"approved_by" gorm:"size:64"`
	ApprovedAt         *time.Time      `json:"approved_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (DraftPurchaseRequisition) TableName() string {
	return "erp_draft_purchase_requisitions"
}
