package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
)

// SalesService 销售订单维护，为MRP提供ACTUAL需求
type SalesService struct {
	sales *repository.SalesRepository
	items *repository.ItemRepository
}

func NewSalesService(sales *repository.SalesRepository, items *repository.ItemRepository) *SalesService {
	return &SalesService{sales: sales, items: items}
}

// SOLineRequest 销售订单明细入参
type SOLineRequest struct {
	ItemID    string
	Qty       decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateSORequest 新建销售订单入参
type CreateSORequest struct {
	CustomerID   string
	DeliveryDate *time.Time
	Remark       string
	CreatedBy    string
	Lines        []SOLineRequest
}

func (s *SalesService) CreateSO(req CreateSORequest) (*entity.SalesOrder, error) {
	if req.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one order line is required", ErrValidation)
	}
	for _, line := range req.Lines {
		if !line.Qty.IsPositive() {
			return nil, fmt.Errorf("%w: qty must be positive", ErrValidation)
		}
		if _, err := s.items.GetByID(line.ItemID); err != nil {
			return nil, fmt.Errorf("create sales order: item %s: %w", line.ItemID, err)
		}
	}

	count, err := s.sales.CountSOs()
	if err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}
	now := time.Now()
	so := &entity.SalesOrder{
		ID:           newID(),
		SONo:         fmt.Sprintf("SO-%s-%05d", now.Format("20060102"), count+1),
		CustomerID:   req.CustomerID,
		SODate:       now,
		DeliveryDate: req.DeliveryDate,
		Status:       entity.SOStatusDraft,
		Remark:       req.Remark,
		CreatedBy:    req.CreatedBy,
	}
	for i, line := range req.Lines {
		so.Details = append(so.Details, entity.SOItem{
			ID:         newID(),
			LineNo:     i + 1,
			ItemID:     line.ItemID,
			QtyOrdered: line.Qty,
			UnitPrice:  line.UnitPrice,
		})
	}
	if err := s.sales.CreateSO(so); err != nil {
		return nil, fmt.Errorf("create sales order: %w", err)
	}
	return s.sales.GetSO(so.ID)
}

func (s *SalesService) Get(id string) (*entity.SalesOrder, error) {
	return s.sales.GetSO(id)
}

func (s *SalesService) List(status string, page, size int) ([]entity.SalesOrder, int64, error) {
	return s.sales.ListSOs(status, page, size)
}

func validSOTransition(from, to string) bool {
	switch from {
	case entity.SOStatusDraft:
		return to == entity.SOStatusConfirmed || to == entity.SOStatusCancelled
	case entity.SOStatusConfirmed:
		return to == entity.SOStatusPartialDelivered || to == entity.SOStatusDelivered || to == entity.SOStatusCancelled
	case entity.SOStatusPartialDelivered:
		return to == entity.SOStatusDelivered
	default:
		return false
	}
}

// SetStatus 推进销售订单状态
func (s *SalesService) SetStatus(id, status string) (*entity.SalesOrder, error) {
	so, err := s.sales.GetSO(id)
	if err != nil {
		return nil, fmt.Errorf("set sales order status: %w", err)
	}
	if !validSOTransition(so.Status, status) {
		return nil, fmt.Errorf("%w: cannot move sales order from %s to %s", ErrInvalidState, so.Status, status)
	}
	so.Status = status
	if err := s.sales.UpdateSO(so); err != nil {
		return nil, fmt.Errorf("set sales order status: %w", err)
	}
	return so, nil
}

// RecordDelivery 登记某明细行的交货数量并联动订单状态
func (s *SalesService) RecordDelivery(soID, itemID string, qty decimal.Decimal) (*entity.SalesOrder, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: qty must be positive", ErrValidation)
	}
	so, err := s.sales.GetSO(soID)
	if err != nil {
		return nil, fmt.Errorf("record delivery: %w", err)
	}
	if so.Status != entity.SOStatusConfirmed && so.Status != entity.SOStatusPartialDelivered {
		return nil, fmt.Errorf("%w: sales order %s is %s", ErrInvalidState, so.SONo, so.Status)
	}

	var line *entity.SOItem
	for i := range so.Details {
		if so.Details[i].ItemID == itemID {
			line = &so.Details[i]
			break
		}
	}
	if line == nil {
		return nil, fmt.Errorf("record delivery: item %s not on order: %w", itemID, repository.ErrNotFound)
	}
	if line.QtyDelivered.Add(qty).GreaterThan(line.QtyOrdered) {
		return nil, fmt.Errorf("%w: delivery would exceed ordered qty", ErrValidation)
	}
	line.QtyDelivered = line.QtyDelivered.Add(qty)

	allDelivered := true
	for _, d := range so.Details {
		if d.QtyDelivered.LessThan(d.QtyOrdered) {
			allDelivered = false
			break
		}
	}
	if allDelivered {
		so.Status = entity.SOStatusDelivered
	} else {
		so.Status = entity.SOStatusPartialDelivered
	}
	if err := s.sales.UpdateSO(so); err != nil {
		return nil, fmt.Errorf("record delivery: %w", err)
	}
	return so, nil
}
