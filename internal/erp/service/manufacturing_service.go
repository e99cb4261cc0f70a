package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ManufacturingService 工单生成与执行
type ManufacturingService struct {
	workOrders *repository.WorkOrderRepository
	inventory  *InventoryService
	items      *repository.ItemRepository
	boms       *repository.BOMRepository
	explosion  *ExplosionService
	logger     *zap.Logger
}

func NewManufacturingService(workOrders *repository.WorkOrderRepository, inventory *InventoryService,
	items *repository.ItemRepository, boms *repository.BOMRepository,
	explosion *ExplosionService, logger *zap.Logger) *ManufacturingService {
	return &ManufacturingService{
		workOrders: workOrders, inventory: inventory, items: items,
		boms: boms, explosion: explosion, logger: logger,
	}
}

// GenerateRequest 按BOM生成工单的入参
type GenerateRequest struct {
	ItemID            string
	Quantity          decimal.Decimal
	WarehouseID       string
	Revision          int
	IncludeOptional   bool
	AutoMaterialLines bool
	StartDate         *time.Time
	EndDate           *time.Time
	LotNumber         string
	CreatedBy         string
}

// GenerateFromBOM 按BOM展开生成工单，物料需求行取汇总后的采购件数量。
// 副产品不计入需求。
func (s *ManufacturingService) GenerateFromBOM(req GenerateRequest) (*entity.WorkOrder, error) {
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if req.WarehouseID == "" {
		return nil, fmt.Errorf("%w: warehouse_id is required", ErrValidation)
	}
	if _, err := s.items.GetByID(req.ItemID); err != nil {
		return nil, fmt.Errorf("generate work order: item: %w", err)
	}

	result, err := s.explosion.Explode(ExplosionRequest{
		ParentItemID:      req.ItemID,
		Quantity:          req.Quantity,
		Revision:          req.Revision,
		IncludeOptional:   req.IncludeOptional,
		IncludeByproducts: false,
	})
	if err != nil {
		return nil, fmt.Errorf("generate work order: %w", err)
	}

	count, err := s.workOrders.Count()
	if err != nil {
		return nil, fmt.Errorf("generate work order: %w", err)
	}
	wo := &entity.WorkOrder{
		ID:          newID(),
		JobNo:       fmt.Sprintf("WO-%s-%05d", time.Now().Format("20060102"), count+1),
		ItemID:      req.ItemID,
		QtyPlanned:  req.Quantity,
		BOMRevision: result.Revision,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      entity.JobStatusPlanned,
		WarehouseID: req.WarehouseID,
		LotNumber:   req.LotNumber,
		SourceType:  entity.WOSourceManual,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.workOrders.Create(wo); err != nil {
		return nil, fmt.Errorf("generate work order: %w", err)
	}

	if req.AutoMaterialLines {
		for _, raw := range result.RawMaterialsOnly {
			material := &entity.WorkOrderMaterial{
				ID:          newID(),
				WorkOrderID: wo.ID,
				ItemID:      raw.ItemID,
				QtyRequired: raw.TotalQty,
			}
			if err := s.workOrders.CreateMaterial(material); err != nil {
				return nil, fmt.Errorf("generate work order: materials: %w", err)
			}
		}
	}
	return s.workOrders.GetByID(wo.ID)
}

func (s *ManufacturingService) Get(id string) (*entity.WorkOrder, error) {
	return s.workOrders.GetByID(id)
}

func (s *ManufacturingService) List(params repository.WorkOrderListParams) ([]entity.WorkOrder, int64, error) {
	return s.workOrders.List(params)
}

// UpdateRequest 可更新字段，nil表示不变
type UpdateRequest struct {
	Status    *string
	StartDate *time.Time
	EndDate   *time.Time
	LotNumber *string
}

func (s *ManufacturingService) Update(id string, req UpdateRequest) (*entity.WorkOrder, error) {
	wo, err := s.workOrders.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	if req.Status != nil {
		if !validJobTransition(wo.Status, *req.Status) {
			return nil, fmt.Errorf("%w: cannot move work order from %s to %s",
				ErrInvalidState, wo.Status, *req.Status)
		}
		wo.Status = *req.Status
	}
	if req.StartDate != nil {
		wo.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		wo.EndDate = req.EndDate
	}
	if req.LotNumber != nil {
		wo.LotNumber = *req.LotNumber
	}
	if err := s.workOrders.Update(wo); err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	return wo, nil
}

func validJobTransition(from, to string) bool {
	switch from {
	case entity.JobStatusPlanned:
		return to == entity.JobStatusInProgress || to == entity.JobStatusCancelled
	case entity.JobStatusInProgress:
		return to == entity.JobStatusCompleted || to == entity.JobStatusCancelled
	default:
		return false
	}
}

// ConsumeMaterial 对单条物料需求行发料。首次发料把工单推进到IN_PROGRESS。
func (s *ManufacturingService) ConsumeMaterial(workOrderID, itemID string, qty decimal.Decimal, createdBy string) (*entity.WorkOrderMaterial, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: qty must be positive", ErrValidation)
	}
	wo, err := s.workOrders.GetByID(workOrderID)
	if err != nil {
		return nil, fmt.Errorf("consume material: %w", err)
	}
	if wo.Status != entity.JobStatusPlanned && wo.Status != entity.JobStatusInProgress {
		return nil, fmt.Errorf("%w: work order %s is %s", ErrInvalidState, wo.JobNo, wo.Status)
	}
	material, err := s.workOrders.GetMaterial(workOrderID, itemID)
	if err != nil {
		return nil, fmt.Errorf("consume material: %w", err)
	}
	if material.QtyConsumed.Add(qty).GreaterThan(material.QtyRequired) {
		return nil, fmt.Errorf("%w: consumption would exceed requirement: required %s, already consumed %s",
			ErrValidation, material.QtyRequired, material.QtyConsumed)
	}

	if _, err := s.inventory.CreateTransaction(TransactionRequest{
		ItemID:          itemID,
		WarehouseID:     wo.WarehouseID,
		LotNumber:       material.LotNumber,
		TransactionType: entity.TxnTypeIssue,
		Qty:             qty,
		ReferenceNo:     wo.JobNo,
		CreatedBy:       createdBy,
	}); err != nil {
		return nil, fmt.Errorf("consume material: %w", err)
	}

	material.QtyConsumed = material.QtyConsumed.Add(qty)
	if err := s.workOrders.UpdateMaterial(material); err != nil {
		return nil, fmt.Errorf("consume material: %w", err)
	}
	if wo.Status == entity.JobStatusPlanned {
		wo.Status = entity.JobStatusInProgress
		if wo.StartDate == nil {
			now := time.Now()
			wo.StartDate = &now
		}
		if err := s.workOrders.Update(wo); err != nil {
			return nil, fmt.Errorf("consume material: %w", err)
		}
	}
	return material, nil
}

// IssueMaterials 对全部需求行一次性发剩余数量
func (s *ManufacturingService) IssueMaterials(workOrderID, createdBy string) (int, error) {
	wo, err := s.workOrders.GetByID(workOrderID)
	if err != nil {
		return 0, fmt.Errorf("issue materials: %w", err)
	}
	if wo.Status != entity.JobStatusPlanned && wo.Status != entity.JobStatusInProgress {
		return 0, fmt.Errorf("%w: work order %s is %s", ErrInvalidState, wo.JobNo, wo.Status)
	}
	materials, err := s.workOrders.MaterialsByWorkOrder(workOrderID)
	if err != nil {
		return 0, fmt.Errorf("issue materials: %w", err)
	}
	issued := 0
	for _, material := range materials {
		open := material.QtyRequired.Sub(material.QtyConsumed)
		if !open.IsPositive() {
			continue
		}
		if _, err := s.ConsumeMaterial(workOrderID, material.ItemID, open, createdBy); err != nil {
			return issued, err
		}
		issued++
	}
	return issued, nil
}

// Complete 完工：补发未耗完的物料，成品按标准成本入库并建成本层
func (s *ManufacturingService) Complete(workOrderID string, qtyProduced decimal.Decimal, createdBy string) (*entity.WorkOrder, error) {
	if !qtyProduced.IsPositive() {
		return nil, fmt.Errorf("%w: qty_produced must be positive", ErrValidation)
	}
	wo, err := s.workOrders.GetByID(workOrderID)
	if err != nil {
		return nil, fmt.Errorf("complete work order: %w", err)
	}
	if wo.Status != entity.JobStatusPlanned && wo.Status != entity.JobStatusInProgress {
		return nil, fmt.Errorf("%w: work order %s is %s", ErrInvalidState, wo.JobNo, wo.Status)
	}

	if _, err := s.IssueMaterials(workOrderID, createdBy); err != nil {
		return nil, fmt.Errorf("complete work order: %w", err)
	}

	item, err := s.items.GetByID(wo.ItemID)
	if err != nil {
		return nil, fmt.Errorf("complete work order: %w", err)
	}
	if _, err := s.inventory.CreateTransaction(TransactionRequest{
		ItemID:          wo.ItemID,
		WarehouseID:     wo.WarehouseID,
		LotNumber:       wo.LotNumber,
		TransactionType: entity.TxnTypeReceipt,
		Qty:             qtyProduced,
		UnitCost:        item.StandardCost,
		ReferenceNo:     wo.JobNo,
		CreatedBy:       createdBy,
	}); err != nil {
		return nil, fmt.Errorf("complete work order: %w", err)
	}

	now := time.Now()
	wo.QtyProduced = wo.QtyProduced.Add(qtyProduced)
	wo.Status = entity.JobStatusCompleted
	wo.EndDate = &now
	if err := s.workOrders.Update(wo); err != nil {
		return nil, fmt.Errorf("complete work order: %w", err)
	}
	s.logger.Info("work order completed",
		zap.String("job_no", wo.JobNo), zap.String("qty_produced", qtyProduced.String()))
	return wo, nil
}

// Stats 工单数量统计
type Stats struct {
	Total      int64 `json:"total"`
	Planned    int64 `json:"planned"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	Overdue    int64 `json:"overdue"`
}

func (s *ManufacturingService) Statistics() (*Stats, error) {
	stats := &Stats{}
	var err error
	if stats.Total, err = s.workOrders.Count(); err != nil {
		return nil, fmt.Errorf("work order stats: %w", err)
	}
	if stats.Planned, err = s.workOrders.CountByStatus(entity.JobStatusPlanned); err != nil {
		return nil, fmt.Errorf("work order stats: %w", err)
	}
	if stats.InProgress, err = s.workOrders.CountByStatus(entity.JobStatusInProgress); err != nil {
		return nil, fmt.Errorf("work order stats: %w", err)
	}
	if stats.Completed, err = s.workOrders.CountByStatus(entity.JobStatusCompleted); err != nil {
		return nil, fmt.Errorf("work order stats: %w", err)
	}
	if stats.Cancelled, err = s.workOrders.CountByStatus(entity.JobStatusCancelled); err != nil {
		return nil, fmt.Errorf("work order stats: %w", err)
	}
	if stats.Overdue, err = s.workOrders.CountOverdue(time.Now()); err != nil {
		return nil, fmt.Errorf("work order stats: %w", err)
	}
	return stats, nil
}
