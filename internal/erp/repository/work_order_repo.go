package repository

import (
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"gorm.io/gorm"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *WorkOrderRepository) WithTx(tx *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: tx}
}

// DB 返回底层db用于事务
func (r *WorkOrderRepository) DB() *gorm.DB {
	return r.db
}

func (r *WorkOrderRepository) Create(wo *entity.WorkOrder) error {
	return r.db.Create(wo).Error
}

func (r *WorkOrderRepository) Update(wo *entity.WorkOrder) error {
	return r.db.Save(wo).Error
}

func (r *WorkOrderRepository) GetByID(id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.Preload("Item").Preload("Materials").Preload("Materials.Item").
		Where("id = ?", id).First(&wo).Error
	if err != nil {
		return nil, translate(err)
	}
	return &wo, nil
}

func (r *WorkOrderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entity.WorkOrder{}).Count(&count).Error
	return count, err
}

func (r *WorkOrderRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.WorkOrder{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountOverdue 逾期未完成工单数
func (r *WorkOrderRepository) CountOverdue(today time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entity.WorkOrder{}).
		Where("end_date < ? AND status NOT IN ?", today,
			[]string{entity.JobStatusCompleted, entity.JobStatusCancelled}).
		Count(&count).Error
	return count, err
}

type WorkOrderListParams struct {
	Status        string
	ItemID        string
	WarehouseID   string
	PlanID        string
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	Page          int
	Size          int
}

func (r *WorkOrderRepository) List(params WorkOrderListParams) ([]entity.WorkOrder, int64, error) {
	query := r.db.Model(&entity.WorkOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ItemID != "" {
		query = query.Where("item_id = ?", params.ItemID)
	}
	if params.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", params.WarehouseID)
	}
	if params.PlanID != "" {
		query = query.Where("plan_id = ?", params.PlanID)
	}
	if params.StartDateFrom != nil {
		query = query.Where("start_date >= ?", params.StartDateFrom)
	}
	if params.StartDateTo != nil {
		query = query.Where("start_date <= ?", params.StartDateTo)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var wos []entity.WorkOrder
	err := query.Preload("Item").Preload("Materials").Preload("Materials.Item").
		Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&wos).Error
	return wos, total, err
}

func (r *WorkOrderRepository) CreateMaterial(material *entity.WorkOrderMaterial) error {
	return r.db.Create(material).Error
}

func (r *WorkOrderRepository) UpdateMaterial(material *entity.WorkOrderMaterial) error {
	return r.db.Save(material).Error
}

func (r *WorkOrderRepository) GetMaterial(workOrderID, itemID string) (*entity.WorkOrderMaterial, error) {
	var material entity.WorkOrderMaterial
	err := r.db.Where("work_order_id = ? AND item_id = ?", workOrderID, itemID).
		First(&material).Error
	if err != nil {
		return nil, translate(err)
	}
	return &material, nil
}

func (r *WorkOrderRepository) MaterialsByWorkOrder(workOrderID string) ([]entity.WorkOrderMaterial, error) {
	var materials []entity.WorkOrderMaterial
	err := r.db.Preload("Item").Where("work_order_id = ?", workOrderID).Find(&materials).Error
	return materials, err
}
