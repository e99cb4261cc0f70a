package repository

import (
	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(item *entity.Item) error {
	return r.db.Create(item).Error
}

func (r *ItemRepository) Update(item *entity.Item) error {
	return r.db.Save(item).Error
}

func (r *ItemRepository) GetByID(id string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *ItemRepository) GetByCode(code string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.Where("item_code = ?", code).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

type ItemListParams struct {
	ItemType string
	Keyword  string
	Page     int
	Size     int
}

func (r *ItemRepository) List(params ItemListParams) ([]entity.Item, int64, error) {
	query := r.db.Model(&entity.Item{}).Where("is_active = true")
	if params.ItemType != "" {
		query = query.Where("item_type = ?", params.ItemType)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("item_code ILIKE ? OR item_name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var items []entity.Item
	err := query.Order("item_code").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&items).Error
	return items, total, err
}

// SearchIDs 按编码/名称模糊查询物料ID
func (r *ItemRepository) SearchIDs(keyword string) ([]string, error) {
	kw := "%" + keyword + "%"
	var ids []string
	err := r.db.Model(&entity.Item{}).
		Where("item_code ILIKE ? OR item_name ILIKE ?", kw, kw).
		Pluck("id", &ids).Error
	return ids, err
}
