package service

import (
	"fmt"
	"slices"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
)

// ItemService 物料主数据维护
type ItemService struct {
	items *repository.ItemRepository
}

func NewItemService(items *repository.ItemRepository) *ItemService {
	return &ItemService{items: items}
}

func (s *ItemService) Create(item *entity.Item) (*entity.Item, error) {
	if item.ItemCode == "" || item.ItemName == "" {
		return nil, fmt.Errorf("%w: item_code and item_name are required", ErrValidation)
	}
	if !slices.Contains(entity.ValidItemTypes, item.ItemType) {
		return nil, fmt.Errorf("%w: unknown item_type %q", ErrValidation, item.ItemType)
	}
	if _, err := s.items.GetByCode(item.ItemCode); err == nil {
		return nil, fmt.Errorf("%w: item code %s already exists", ErrValidation, item.ItemCode)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("create item: %w", err)
	}
	item.ID = newID()
	item.IsActive = true
	if item.UnitOfMeasure == "" {
		item.UnitOfMeasure = "pcs"
	}
	if err := s.items.Create(item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *ItemService) Update(id string, apply func(*entity.Item) error) (*entity.Item, error) {
	item, err := s.items.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	if err := apply(item); err != nil {
		return nil, err
	}
	if !slices.Contains(entity.ValidItemTypes, item.ItemType) {
		return nil, fmt.Errorf("%w: unknown item_type %q", ErrValidation, item.ItemType)
	}
	if err := s.items.Update(item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

func (s *ItemService) Get(id string) (*entity.Item, error) {
	return s.items.GetByID(id)
}

func (s *ItemService) GetByCode(code string) (*entity.Item, error) {
	return s.items.GetByCode(code)
}

func (s *ItemService) List(params repository.ItemListParams) ([]entity.Item, int64, error) {
	return s.items.List(params)
}

// Deactivate 停用物料（软删除）
func (s *ItemService) Deactivate(id string) error {
	item, err := s.items.GetByID(id)
	if err != nil {
		return fmt.Errorf("deactivate item: %w", err)
	}
	item.IsActive = false
	return s.items.Update(item)
}
