package repository

import (
	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"gorm.io/gorm"
)

type SalesRepository struct {
	db *gorm.DB
}

func NewSalesRepository(db *gorm.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

func (r *SalesRepository) CreateSO(so *entity.SalesOrder) error {
	return r.db.Create(so).Error
}

func (r *SalesRepository) UpdateSO(so *entity.SalesOrder) error {
	return r.db.Save(so).Error
}

func (r *SalesRepository) GetSO(id string) (*entity.SalesOrder, error) {
	var so entity.SalesOrder
	err := r.db.Preload("Details").Preload("Details.Item").Preload("Customer").
		Where("id = ?", id).First(&so).Error
	if err != nil {
		return nil, translate(err)
	}
	return &so, nil
}

func (r *SalesRepository) ListSOs(status string, page, size int) ([]entity.SalesOrder, int64, error) {
	query := r.db.Model(&entity.SalesOrder{})
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
	var sos []entity.SalesOrder
	err := query.Preload("Details").Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&sos).Error
	return sos, total, err
}

func (r *SalesRepository) CountSOs() (int64, error) {
	var count int64
	err := r.db.Model(&entity.SalesOrder{}).Count(&count).Error
	return count, err
}

// OutstandingOrders 已确认/部分交货且仍有未交数量的销售订单（MRP的ACTUAL需求来源）
func (r *SalesRepository) OutstandingOrders() ([]entity.SalesOrder, error) {
	var sos []entity.SalesOrder
	err := r.db.Preload("Details").
		Where("status IN ?", []string{entity.SOStatusConfirmed, entity.SOStatusPartialDelivered}).
		Find(&sos).Error
	return sos, err
}
