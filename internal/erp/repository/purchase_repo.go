package repository

import (
	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) CreatePO(po *entity.PurchaseOrder) error {
	return r.db.Create(po).Error
}

func (r *PurchaseRepository) CreatePOItem(item *entity.POItem) error {
	return r.db.Create(item).Error
}

func (r *PurchaseRepository) GetPO(id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.Preload("Details").Preload("Details.Item").Preload("Vendor").
		Where("id = ?", id).First(&po).Error
	if err != nil {
		return nil, translate(err)
	}
	return &po, nil
}

func (r *PurchaseRepository) ListPOs(status string, page, size int) ([]entity.PurchaseOrder, int64, error) {
	query := r.db.Model(&entity.PurchaseOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var pos []entity.PurchaseOrder
	err := query.Preload("Details").Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&pos).Error
	return pos, total, err
}

func (r *PurchaseRepository) CountPOs() (int64, error) {
	var count int64
	err := r.db.Model(&entity.PurchaseOrder{}).Count(&count).Error
	return count, err
}

// OpenPOQty 物料的在途采购数量合计（已订未收）
func (r *PurchaseRepository) OpenPOQty(itemID string) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := r.db.Raw(`
		SELECT COALESCE(SUM(qty_ordered - qty_received), 0) AS total
		FROM erp_purchase_order_items
		WHERE item_id = ? AND qty_ordered > qty_received
	`, itemID).Scan(&result).Error
	return result.Total, err
}
