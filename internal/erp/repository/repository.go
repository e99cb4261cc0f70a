package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// translate gorm的未找到错误统一映射为ErrNotFound
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Repositories ERP 仓库集合
type Repositories struct {
	Item      *ItemRepository
	Partner   *PartnerRepository
	BOM       *BOMRepository
	Inventory *InventoryRepository
	Sales     *SalesRepository
	Purchase  *PurchaseRepository
	Plan      *PlanRepository
	WorkOrder *WorkOrderRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Item:      NewItemRepository(db),
		Partner:   NewPartnerRepository(db),
		BOM:       NewBOMRepository(db),
		Inventory: NewInventoryRepository(db),
		Sales:     NewSalesRepository(db),
		Purchase:  NewPurchaseRepository(db),
		Plan:      NewPlanRepository(db),
		WorkOrder: NewWorkOrderRepository(db),
	}
}
