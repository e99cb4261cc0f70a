package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlanningService 生产计划与MRP净需求计算
type PlanningService struct {
	plans      *repository.PlanRepository
	sales      *repository.SalesRepository
	purchases  *repository.PurchaseRepository
	inventory  *repository.InventoryRepository
	boms       *repository.BOMRepository
	items      *repository.ItemRepository
	partners   *repository.PartnerRepository
	workOrders *repository.WorkOrderRepository
	db         *gorm.DB
	logger     *zap.Logger
}

func NewPlanningService(plans *repository.PlanRepository, sales *repository.SalesRepository,
	purchases *repository.PurchaseRepository, inventory *repository.InventoryRepository,
	boms *repository.BOMRepository, items *repository.ItemRepository,
	partners *repository.PartnerRepository, workOrders *repository.WorkOrderRepository,
	db *gorm.DB, logger *zap.Logger) *PlanningService {
	return &PlanningService{
		plans: plans, sales: sales, purchases: purchases, inventory: inventory,
		boms: boms, items: items, partners: partners, workOrders: workOrders,
		db: db, logger: logger,
	}
}

var validPlanSources = []string{entity.PlanSourceActual, entity.PlanSourceForecast, entity.PlanSourceManual}

// CreatePlanRequest 新建计划入参
type CreatePlanRequest struct {
	PlanName     string
	SourceType   string
	SalesOrderID string
	CreatedBy    string
}

func (s *PlanningService) CreatePlan(req CreatePlanRequest) (*entity.ProductionPlan, error) {
	if req.PlanName == "" {
		return nil, fmt.Errorf("%w: plan_name is required", ErrValidation)
	}
	if req.SourceType == "" {
		req.SourceType = entity.PlanSourceManual
	}
	if !slices.Contains(validPlanSources, req.SourceType) {
		return nil, fmt.Errorf("%w: unknown source_type %q", ErrValidation, req.SourceType)
	}
	plan := &entity.ProductionPlan{
		ID:           newID(),
		PlanName:     req.PlanName,
		SourceType:   req.SourceType,
		SalesOrderID: req.SalesOrderID,
		Status:       entity.PlanStatusDraft,
		CreatedBy:    req.CreatedBy,
	}
	if err := s.plans.Create(plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

// PlanItemRequest 计划需求行入参
type PlanItemRequest struct {
	ItemID       string
	Quantity     decimal.Decimal
	DeliveryDate *time.Time
}

// AddItems 给DRAFT计划追加需求行
func (s *PlanningService) AddItems(planID string, reqs []PlanItemRequest) error {
	plan, err := s.plans.GetByID(planID)
	if err != nil {
		return fmt.Errorf("add plan items: %w", err)
	}
	if plan.Status != entity.PlanStatusDraft {
		return fmt.Errorf("%w: plan %s is %s, items can only be added in DRAFT", ErrInvalidState, planID, plan.Status)
	}
	items := make([]entity.ProductionPlanItem, 0, len(reqs))
	for _, req := range reqs {
		if !req.Quantity.IsPositive() {
			return fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		if _, err := s.items.GetByID(req.ItemID); err != nil {
			return fmt.Errorf("add plan items: item %s: %w", req.ItemID, err)
		}
		items = append(items, entity.ProductionPlanItem{
			ID:           newID(),
			PlanID:       planID,
			ItemID:       req.ItemID,
			Quantity:     req.Quantity,
			DeliveryDate: req.DeliveryDate,
		})
	}
	if err := s.plans.AddItems(items); err != nil {
		return fmt.Errorf("add plan items: %w", err)
	}
	return nil
}

// demand 单条毛需求行
type demand struct {
	itemID       string
	qty          decimal.Decimal
	requiredDate *time.Time
}

// Calculate 执行MRP净需求计算，仅DRAFT计划可计算。
// 每条需求行独立生成一条结果，各自对全量在库与在途做净额。
func (s *PlanningService) Calculate(planID string) (*entity.ProductionPlan, error) {
	plan, err := s.plans.GetByID(planID)
	if err != nil {
		return nil, fmt.Errorf("calculate mrp: %w", err)
	}
	if plan.Status != entity.PlanStatusDraft {
		return nil, fmt.Errorf("%w: plan %s is %s, only DRAFT plans can be calculated",
			ErrInvalidState, planID, plan.Status)
	}

	demands, err := s.collectDemands(plan)
	if err != nil {
		return nil, err
	}
	if len(demands) == 0 {
		return nil, fmt.Errorf("%w: plan has no demand to calculate", ErrValidation)
	}

	results := make([]entity.MRPResult, 0, len(demands))
	for _, d := range demands {
		onHand, err := s.inventory.TotalOnHand(d.itemID)
		if err != nil {
			return nil, fmt.Errorf("calculate mrp: on-hand: %w", err)
		}
		openPO, err := s.purchases.OpenPOQty(d.itemID)
		if err != nil {
			return nil, fmt.Errorf("calculate mrp: open po: %w", err)
		}
		net := d.qty.Sub(onHand.Add(openPO))

		action := entity.ActionNone
		suggested := decimal.Zero
		if net.IsPositive() {
			hasBOM, err := s.boms.HasActiveBOM(d.itemID)
			if err != nil {
				return nil, fmt.Errorf("calculate mrp: %w", err)
			}
			if hasBOM {
				action = entity.ActionMake
			} else {
				action = entity.ActionBuy
			}
			suggested = net
		} else {
			net = decimal.Zero
		}

		results = append(results, entity.MRPResult{
			ID:               newID(),
			PlanID:           planID,
			ItemID:           d.itemID,
			RequiredDate:     d.requiredDate,
			GrossRequirement: d.qty,
			OnHandQty:        onHand,
			OpenPOQty:        openPO,
			NetRequirement:   net,
			SuggestedAction:  action,
			SuggestedQty:     suggested,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		plans := s.plans.WithTx(tx)
		if err := plans.CreateResults(results); err != nil {
			return err
		}
		now := time.Now()
		plan.Status = entity.PlanStatusCalculated
		plan.CalculatedDate = &now
		return plans.Update(plan)
	})
	if err != nil {
		return nil, fmt.Errorf("calculate mrp: %w", err)
	}
	s.logger.Info("mrp calculated",
		zap.String("plan_id", planID), zap.Int("results", len(results)))
	return s.plans.GetByID(planID)
}

// collectDemands 收集毛需求行。ACTUAL取未交货销售订单明细，否则取计划需求行。
// 不做按物料聚合，同一物料的多条需求各算各的。
func (s *PlanningService) collectDemands(plan *entity.ProductionPlan) ([]demand, error) {
	var demands []demand

	if plan.SourceType == entity.PlanSourceActual {
		orders, err := s.sales.OutstandingOrders()
		if err != nil {
			return nil, fmt.Errorf("calculate mrp: sales orders: %w", err)
		}
		for _, so := range orders {
			if plan.SalesOrderID != "" && so.ID != plan.SalesOrderID {
				continue
			}
			for _, line := range so.Details {
				outstanding := line.QtyOrdered.Sub(line.QtyDelivered)
				if outstanding.IsPositive() {
					demands = append(demands, demand{
						itemID:       line.ItemID,
						qty:          outstanding,
						requiredDate: so.DeliveryDate,
					})
				}
			}
		}
		return demands, nil
	}

	for _, item := range plan.Items {
		demands = append(demands, demand{
			itemID:       item.ItemID,
			qty:          item.Quantity,
			requiredDate: item.DeliveryDate,
		})
	}
	return demands, nil
}

// Process 处理CALCULATED计划：BUY生成采购申请草稿，MAKE生成PLANNED工单
func (s *PlanningService) Process(planID, createdBy string) (*entity.ProductionPlan, error) {
	plan, err := s.plans.GetByID(planID)
	if err != nil {
		return nil, fmt.Errorf("process plan: %w", err)
	}
	if plan.Status != entity.PlanStatusCalculated {
		return nil, fmt.Errorf("%w: plan %s is %s, only CALCULATED plans can be processed",
			ErrInvalidState, planID, plan.Status)
	}

	results, err := s.plans.ActionableResults(planID)
	if err != nil {
		return nil, fmt.Errorf("process plan: %w", err)
	}

	var vendor *entity.BusinessPartner
	for _, res := range results {
		if res.SuggestedAction == entity.ActionBuy {
			vendor, err = s.partners.DefaultVendor()
			if err != nil {
				if isNotFound(err) {
					return nil, fmt.Errorf("%w: no active vendor for purchase requisitions", ErrValidation)
				}
				return nil, fmt.Errorf("process plan: %w", err)
			}
			break
		}
	}

	warehouse, err := s.inventory.DefaultWarehouse()
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("process plan: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		plans := s.plans.WithTx(tx)
		workOrders := s.workOrders.WithTx(tx)
		now := time.Now()
		datePart := now.Format("20060102")

		existingPRs, err := plans.PRsByPlan(planID)
		if err != nil {
			return err
		}
		prSeq := len(existingPRs)

		woCount, err := workOrders.Count()
		if err != nil {
			return err
		}

		for _, res := range results {
			switch res.SuggestedAction {
			case entity.ActionBuy:
				prSeq++
				pr := &entity.DraftPurchaseRequisition{
					ID:           newID(),
					PRNo:         fmt.Sprintf("PR-%s-%s-%04d", datePart, planID, prSeq),
					PlanID:       planID,
					VendorID:     vendor.ID,
					ItemID:       res.ItemID,
					RequiredQty:  res.SuggestedQty,
					RequiredDate: res.RequiredDate,
					Status:       entity.PRStatusDraft,
				}
				if res.RequiredDate != nil {
					leadDays := vendor.LeadTimeProductionDays + vendor.LeadTimeTransitDays
					orderDate := res.RequiredDate.AddDate(0, 0, -leadDays)
					pr.SuggestedOrderDate = &orderDate
				}
				if err := plans.CreatePR(pr); err != nil {
					return err
				}

			case entity.ActionMake:
				woCount++
				wo := &entity.WorkOrder{
					ID:         newID(),
					JobNo:      fmt.Sprintf("WO-%s-%05d", datePart, woCount),
					ItemID:     res.ItemID,
					QtyPlanned: res.SuggestedQty,
					Status:     entity.JobStatusPlanned,
					SourceType: entity.WOSourceMRP,
					PlanID:     planID,
					EndDate:    res.RequiredDate,
					CreatedBy:  createdBy,
				}
				if warehouse != nil {
					wo.WarehouseID = warehouse.ID
				}
				if err := workOrders.Create(wo); err != nil {
					return err
				}
			}
		}

		plan.Status = entity.PlanStatusProcessed
		return plans.Update(plan)
	})
	if err != nil {
		return nil, fmt.Errorf("process plan: %w", err)
	}
	s.logger.Info("mrp plan processed",
		zap.String("plan_id", planID), zap.Int("actionable_results", len(results)))
	return s.plans.GetByID(planID)
}

func (s *PlanningService) Get(planID string) (*entity.ProductionPlan, error) {
	return s.plans.GetByID(planID)
}

func (s *PlanningService) List(page, size int) ([]entity.ProductionPlan, int64, error) {
	return s.plans.List(page, size)
}

// Delete 删除计划及其结果，已处理计划不可删除
func (s *PlanningService) Delete(planID string) error {
	plan, err := s.plans.GetByID(planID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if plan.Status == entity.PlanStatusProcessed {
		return fmt.Errorf("%w: processed plans cannot be deleted", ErrInvalidState)
	}
	return s.plans.Delete(planID)
}

func (s *PlanningService) Results(planID string) ([]entity.MRPResult, error) {
	if _, err := s.plans.GetByID(planID); err != nil {
		return nil, fmt.Errorf("plan results: %w", err)
	}
	return s.plans.ResultsByPlan(planID)
}

func (s *PlanningService) PRsByPlan(planID string) ([]entity.DraftPurchaseRequisition, error) {
	return s.plans.PRsByPlan(planID)
}

// ApprovePR 批准采购申请草稿
func (s *PlanningService) ApprovePR(prID, approvedBy string) (*entity.DraftPurchaseRequisition, error) {
	pr, err := s.plans.GetPR(prID)
	if err != nil {
		return nil, fmt.Errorf("approve pr: %w", err)
	}
	if pr.Status != entity.PRStatusDraft {
		return nil, fmt.Errorf("%w: pr %s is %s, only DRAFT can be approved", ErrInvalidState, pr.PRNo, pr.Status)
	}
	now := time.Now()
	pr.Status = entity.PRStatusApproved
	pr.ApprovedBy = approvedBy
	pr.ApprovedAt = &now
	if err := s.plans.UpdatePR(pr); err != nil {
		return nil, fmt.Errorf("approve pr: %w", err)
	}
	return pr, nil
}

// ConvertPRToPO 把已批准的采购申请转为采购订单
func (s *PlanningService) ConvertPRToPO(prID, createdBy string) (*entity.PurchaseOrder, error) {
	pr, err := s.plans.GetPR(prID)
	if err != nil {
		return nil, fmt.Errorf("convert pr: %w", err)
	}
	if pr.Status != entity.PRStatusApproved {
		return nil, fmt.Errorf("%w: pr %s is %s, only APPROVED can be converted", ErrInvalidState, pr.PRNo, pr.Status)
	}
	item, err := s.items.GetByID(pr.ItemID)
	if err != nil {
		return nil, fmt.Errorf("convert pr: item: %w", err)
	}

	var po *entity.PurchaseOrder
	err = s.db.Transaction(func(tx *gorm.DB) error {
		plans := s.plans.WithTx(tx)
		now := time.Now()
		count, err := repository.NewPurchaseRepository(tx).CountPOs()
		if err != nil {
			return err
		}
		po = &entity.PurchaseOrder{
			ID:           newID(),
			PONo:         fmt.Sprintf("PO-%s-%05d", now.Format("20060102"), count+1),
			VendorID:     pr.VendorID,
			PODate:       now,
			DeliveryDate: pr.RequiredDate,
			Status:       entity.POStatusDraft,
			Remark:       fmt.Sprintf("from %s", pr.PRNo),
			CreatedBy:    createdBy,
		}
		if err := tx.Create(po).Error; err != nil {
			return err
		}
		poItem := &entity.POItem{
			ID:         newID(),
			POID:       po.ID,
			LineNo:     1,
			ItemID:     pr.ItemID,
			QtyOrdered: pr.RequiredQty,
			UnitPrice:  item.StandardCost,
		}
		if err := tx.Create(poItem).Error; err != nil {
			return err
		}
		pr.Status = entity.PRStatusConvertedToPO
		return plans.UpdatePR(pr)
	})
	if err != nil {
		return nil, fmt.Errorf("convert pr: %w", err)
	}
	return s.purchases.GetPO(po.ID)
}

func (s *PlanningService) GetPO(id string) (*entity.PurchaseOrder, error) {
	return s.purchases.GetPO(id)
}

func (s *PlanningService) ListPOs(status string, page, size int) ([]entity.PurchaseOrder, int64, error) {
	return s.purchases.ListPOs(status, page, size)
}
