package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// POStatus 采购订单状态
const (
	POStatusDraft           = "DRAFT"
	POStatusApproved        = "APPROVED"
	POStatusPartialReceived = "PARTIAL_RECEIVED"
	POStatusReceived        = "RECEIVED"
	POStatusCancelled       = "CANCELLED"
)

// PurchaseOrder 采购订单头
type PurchaseOrder struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	PONo         string     `json:"po_no" gorm:"size:50;not null;uniqueIndex"`
	VendorID     string     `json:"vendor_id" gorm:"size:32;not null"`
	PODate       time.Time  `json:"po_date" gorm:"not null"`
	DeliveryDate *time.Time `json:"delivery_date"`
	Status       string     `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	Remark       string     `json:"remark" gorm:"type:text"`
	CreatedBy    string     `json:"created_by" gorm:"size:64"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Vendor  *BusinessPartner `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
	Details []POItem         `json:"details,omitempty" gorm:"foreignKey:POID"`
}

func (PurchaseOrder) TableName() string {
	return "erp_purchase_orders"
}

// POItem 采购订单明细，在途数量 = qty_ordered - qty_received
type POItem struct {
	ID          string          `json:"id" gorm:"primaryKey;size:32"`
	POID        string          `json:"po_id" gorm:"size:32;not null;index"`
	LineNo      int             `json:"line_no" gorm:"not null;default:1"`
	ItemID      string          `json:"item_id" gorm:"size:32;not null;index"`
	QtyOrdered  decimal.Decimal `json:"qty_ordered" gorm:"type:decimal(15,4);not null"`
	QtyReceived decimal.Decimal `json:"qty_received" gorm:"type:decimal(15,4);default:0"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(15,4);default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Item *Item `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (POItem) TableName() string {
	return "erp_purchase_order_items"
}
