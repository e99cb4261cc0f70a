package repository

import (
	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"gorm.io/gorm"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *PlanRepository) WithTx(tx *gorm.DB) *PlanRepository {
	return &PlanRepository{db: tx}
}

// DB 返回底层db用于事务
func (r *PlanRepository) DB() *gorm.DB {
	return r.db
}

func (r *PlanRepository) Create(plan *entity.ProductionPlan) error {
	return r.db.Create(plan).Error
}

func (r *PlanRepository) Update(plan *entity.ProductionPlan) error {
	return r.db.Save(plan).Error
}

func (r *PlanRepository) GetByID(id string) (*entity.ProductionPlan, error) {
	var plan entity.ProductionPlan
	err := r.db.Preload("Items").Preload("Items.Item").
		Preload("MRPResults").Preload("MRPResults.Item").
		Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (r *PlanRepository) List(page, size int) ([]entity.ProductionPlan, int64, error) {
	var total int64
	r.db.Model(&entity.ProductionPlan{}).Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var plans []entity.ProductionPlan
	err := r.db.Preload("Items").Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&plans).Error
	return plans, total, err
}

// Delete 级联删除计划及其需求行与MRP结果
func (r *PlanRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", id).Delete(&entity.MRPResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", id).Delete(&entity.ProductionPlanItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.ProductionPlan{}).Error
	})
}

func (r *PlanRepository) AddItems(items []entity.ProductionPlanItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

func (r *PlanRepository) CreateResults(results []entity.MRPResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.Create(&results).Error
}

func (r *PlanRepository) ResultsByPlan(planID string) ([]entity.MRPResult, error) {
	var results []entity.MRPResult
	err := r.db.Preload("Item").Where("plan_id = ?", planID).Find(&results).Error
	return results, err
}

// ActionableResults 建议动作为MAKE/BUY的结果
func (r *PlanRepository) ActionableResults(planID string) ([]entity.MRPResult, error) {
	var results []entity.MRPResult
	err := r.db.Where("plan_id = ? AND suggested_action IN ?",
		planID, []string{entity.ActionMake, entity.ActionBuy}).Find(&results).Error
	return results, err
}

// --- Draft Purchase Requisitions ---

func (r *PlanRepository) CreatePR(pr *entity.DraftPurchaseRequisition) error {
	return r.db.Create(pr).Error
}

func (r *PlanRepository) UpdatePR(pr *entity.DraftPurchaseRequisition) error {
	return r.db.Save(pr).Error
}

func (r *PlanRepository) GetPR(id string) (*entity.DraftPurchaseRequisition, error) {
	var pr entity.DraftPurchaseRequisition
	err := r.db.Preload("Item").Where("id = ?", id).First(&pr).Error
	if err != nil {
		return nil, translate(err)
	}
	return &pr, nil
}

func (r *PlanRepository) PRsByPlan(planID string) ([]entity.DraftPurchaseRequisition, error) {
	var prs []entity.DraftPurchaseRequisition
	err := r.db.Preload("Item").Where("plan_id = ?", planID).Order("pr_no").Find(&prs).Error
	return prs, err
}
