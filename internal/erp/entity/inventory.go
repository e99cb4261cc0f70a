package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType 库存事务类型
const (
	TxnTypeReceipt = "receipt"
	TxnTypeIssue   = "issue"
	TxnTypeAdjust  = "adjust"
)

// Warehouse 仓库主数据
type Warehouse struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	WarehouseCode string    `json:"warehouse_code" gorm:"size:32;not null;uniqueIndex"`
	WarehouseName string    `json:"warehouse_name" gorm:"size:128;not null"`
	WarehouseType string    `json:"warehouse_type" gorm:"size:32;default:Main"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Warehouse) TableName() string {
	return "erp_warehouses"
}

// InventoryBalance 库存余额，按物料+仓库+批次
type InventoryBalance struct {
	ID          string          `json:"id" gorm:"primaryKey;size:32"`
	ItemID      string          `json:"item_id" gorm:"size:32;not null;index:idx_balance_item_wh"`
	WarehouseID string          `json:"warehouse_id" gorm:"size:32;not null;index:idx_balance_item_wh"`
	LotNumber   string          `json:"lot_number" gorm:"size:64"`
	QtyOnHand   decimal.Decimal `json:"qty_on_hand" gorm:"type:decimal(15,4);default:0"`
	AvgCost     decimal.Decimal `json:"avg_cost" gorm:"type:decimal(15,4);default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Item      *Item      `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Warehouse *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}

func (InventoryBalance) TableName() string {
	return "erp_inventory_balances"
}

// InventoryTransaction 库存事务流水
type InventoryTransaction struct {
	ID              string          `json:"id" gorm:"primaryKey;size:32"`
	TransactionDate time.Time       `json:"transaction_date" gorm:"not null"`
	ItemID          string          `json:"item_id" gorm:"size:32;not null;index"`
	WarehouseID     string          `json:"warehouse_id" gorm:"size:32;not null"`
	LotNumber       string          `json:"lot_number" gorm:"size:64"`
	TransactionType string          `json:"transaction_type" gorm:"size:16;not null"`
	ReferenceNo     string          `json:"reference_no" gorm:"size:64"`
	Qty             decimal.Decimal `json:"qty" gorm:"type:decimal(15,4);not null"`
	CreatedBy       string          `json:"created_by" gorm:"size:64"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (InventoryTransaction) TableName() string {
	return "erp_inventory_transactions"
}

// InventoryCostLayer FIFO成本层，收货时建立，发料时按收货日期先进先出消耗
type InventoryCostLayer struct {
	ID                   string          `json:"id" gorm:"primaryKey;size:32"`
	ItemID               string          `json:"item_id" gorm:"size:32;not null;index:idx_layer_item_wh"`
	WarehouseID          string          `json:"warehouse_id" gorm:"size:32;not null;index:idx_layer_item_wh"`
	ReceiptDate          time.Time       `json:"receipt_date" gorm:"not null"`
	QtyRemaining         decimal.Decimal `json:"qty_remaining" gorm:"type:decimal(15,4);not null"`
	UnitCost             decimal.Decimal `json:"unit_cost" gorm:"type:decimal(15,4);not null"`
	ReceiptTransactionID string          `json:"receipt_transaction_id" gorm:"size:32"`
	LotNumber            string          `json:"lot_number" gorm:"size:64"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (InventoryCostLayer) TableName() string {
	return "erp_inventory_cost_layers"
}
