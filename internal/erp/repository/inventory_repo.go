package repository

import (
	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *InventoryRepository) WithTx(tx *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: tx}
}

// DB 返回底层db用于事务
func (r *InventoryRepository) DB() *gorm.DB {
	return r.db
}

// TotalOnHand 物料全部仓库的在库数量合计
func (r *InventoryRepository) TotalOnHand(itemID string) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(qty_on_hand), 0) AS total
		FROM erp_inventory_balances
		WHERE item_id = ?
	`, itemID).Scan(&result).Error
	return result.Total, err
}

// GetBalance 取物料在仓库+批次下的余额记录
func (r *InventoryRepository) GetBalance(itemID, warehouseID, lotNumber string) (*entity.InventoryBalance, error) {
	var balance entity.InventoryBalance
	err := r.db.Where("item_id = ? AND warehouse_id = ? AND lot_number = ?", itemID, warehouseID, lotNumber).
		First(&balance).Error
	if err != nil {
		return nil, translate(err)
	}
	return &balance, nil
}

func (r *InventoryRepository) CreateBalance(balance *entity.InventoryBalance) error {
	return r.db.Create(balance).Error
}

func (r *InventoryRepository) UpdateBalance(balance *entity.InventoryBalance) error {
	return r.db.Save(balance).Error
}

func (r *InventoryRepository) CreateTransaction(txn *entity.InventoryTransaction) error {
	return r.db.Create(txn).Error
}

func (r *InventoryRepository) CreateCostLayer(layer *entity.InventoryCostLayer) error {
	return r.db.Create(layer).Error
}

func (r *InventoryRepository) UpdateCostLayer(layer *entity.InventoryCostLayer) error {
	return r.db.Save(layer).Error
}

// OpenCostLayers 剩余数量大于0的成本层，按收货日期先进先出排序
func (r *InventoryRepository) OpenCostLayers(itemID, warehouseID string) ([]entity.InventoryCostLayer, error) {
	var layers []entity.InventoryCostLayer
	err := r.db.Where("item_id = ? AND warehouse_id = ? AND qty_remaining > 0", itemID, warehouseID).
		Order("receipt_date").Find(&layers).Error
	return layers, err
}

// OpenCostLayersByItem 物料全部仓库的未耗尽成本层
func (r *InventoryRepository) OpenCostLayersByItem(itemID string, warehouseID string) ([]entity.InventoryCostLayer, error) {
	query := r.db.Where("item_id = ? AND qty_remaining > 0", itemID)
	if warehouseID != "" {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	var layers []entity.InventoryCostLayer
	err := query.Order("receipt_date").Find(&layers).Error
	return layers, err
}

// PositiveBalances 在库数量大于0的余额记录
func (r *InventoryRepository) PositiveBalances(warehouseID string) ([]entity.InventoryBalance, error) {
	query := r.db.Where("qty_on_hand > 0")
	if warehouseID != "" {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	var balances []entity.InventoryBalance
	err := query.Find(&balances).Error
	return balances, err
}

type BalanceListParams struct {
	ItemID      string
	WarehouseID string
	Page        int
	Size        int
}

func (r *InventoryRepository) ListBalances(params BalanceListParams) ([]entity.InventoryBalance, int64, error) {
	query := r.db.Model(&entity.InventoryBalance{})
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", params.WarehouseID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var balances []entity.InventoryBalance
	err := query.Preload("Item").Preload("Warehouse").Order("updated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&balances).Error
	return balances, total, err
}

func (r *InventoryRepository) ListTransactions(itemID string, page, size int) ([]entity.InventoryTransaction, int64, error) {
	query := r.db.Model(&entity.InventoryTransaction{})
	if itemID != "" {
		query = query.Where("item_id = ?", itemID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var txns []entity.InventoryTransaction
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&txns).Error
	return txns, total, err
}

// --- Warehouse ---

func (r *InventoryRepository) CreateWarehouse(wh *entity.Warehouse) error {
	return r.db.Create(wh).Error
}

func (r *InventoryRepository) GetWarehouse(id string) (*entity.Warehouse, error) {
	var wh entity.Warehouse
	err := r.db.Where("id = ?", id).First(&wh).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wh, nil
}

func (r *InventoryRepository) GetWarehouseByCode(code string) (*entity.Warehouse, error) {
	var wh entity.Warehouse
	err := r.db.Where("warehouse_code = ?", code).First(&wh).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wh, nil
}

// DefaultWarehouse 取主仓，没有时取任意一个
func (r *InventoryRepository) DefaultWarehouse() (*entity.Warehouse, error) {
	var wh entity.Warehouse
	err := r.db.Where("warehouse_type = ? AND is_active = true", "Main").First(&wh).Error
	if err == gorm.ErrRecordNotFound {
		err = r.db.Where("is_active = true").First(&wh).Error
	}
	if err != nil {
		return nil, translate(err)
	}
	return &wh, nil
}

func (r *InventoryRepository) ListWarehouses() ([]entity.Warehouse, error) {
	var whs []entity.Warehouse
	err := r.db.Where("is_active = true").Order("warehouse_code").Find(&whs).Error
	return whs, err
}
