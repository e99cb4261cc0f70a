package repository

import (
	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"gorm.io/gorm"
)

type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

func (r *PartnerRepository) Create(partner *entity.BusinessPartner) error {
	return r.db.Create(partner).Error
}

func (r *PartnerRepository) Update(partner *entity.BusinessPartner) error {
	return r.db.Save(partner).Error
}

func (r *PartnerRepository) GetByID(id string) (*entity.BusinessPartner, error) {
	var partner entity.BusinessPartner
	err := r.db.Where("id = ?", id).First(&partner).Error
	if err != nil {
		return nil, translate(err)
	}
	return &partner, nil
}

func (r *PartnerRepository) List(partnerType string, page, size int) ([]entity.BusinessPartner, int64, error) {
	query := r.db.Model(&entity.BusinessPartner{}).Where("is_active = true")
	if partnerType != "" {
		query = query.Where("partner_type = ? OR partner_type = ?", partnerType, entity.PartnerTypeBoth)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var partners []entity.BusinessPartner
	err := query.Order("partner_code").Offset((page - 1) * size).Limit(size).Find(&partners).Error
	return partners, total, err
}

// DefaultVendor MRP处理阶段兜底使用的第一个有效供应商
func (r *PartnerRepository) DefaultVendor() (*entity.BusinessPartner, error) {
	var partner entity.BusinessPartner
	err := r.db.Where("partner_type IN ? AND is_active = true",
		[]string{entity.PartnerTypeVendor, entity.PartnerTypeBoth}).
		Order("partner_code").First(&partner).Error
	if err != nil {
		return nil, translate(err)
	}
	return &partner, nil
}
