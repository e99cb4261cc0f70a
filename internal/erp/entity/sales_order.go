package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SOStatus 销售订单状态
const (
	SOStatusDraft            = "DRAFT"
	SOStatusConfirmed        = "CONFIRMED"
	SOStatusPartialDelivered = "PARTIAL_DELIVERED"
	SOStatusDelivered        = "DELIVERED"
	SOStatusCancelled        = "CANCELLED"
)

// SalesOrder 销售订单头
type SalesOrder struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	SONo         string     `json:"so_no" gorm:"size:50;not null;uniqueIndex"`
	CustomerID   string     `json:"customer_id" gorm:"size:32;not null"`
	SODate       time.Time  `json:"so_date" gorm:"not null"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Status       string     `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	Remark       string     `json:"remark" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Customer *BusinessPartner `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Details  []SOItem         `json:"details,omitempty" gorm:"foreignKey:SOID"`
}

func (SalesOrder) TableName() string {
	return "erp_sales_orders"
}

// SOItem 销售订单明细，未交数量 = qty_ordered - qty_delivered
type SOItem struct {
	ID           string          `json:"id" gorm:"primaryKey;size:32"`
	SOID         string          `json:"so_id" gorm:"size:32;not null;index"`
	LineNo       int             `json:"line_no" gorm:"not null;default:1"`
	ItemID       string          `json:"item_id" gorm:"size:32;not null;index"`
	QtyOrdered   decimal.Decimal `json:"qty_ordered" gorm:"type:decimal(15,4);not null"`
	QtyDelivered decimal.Decimal `json:"qty_delivered" gorm:"type:decimal(15,4);default:0"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:decimal(15,4);default:0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (SOItem) TableName() string {
	return "erp_sales_order_items"
}
