package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService 库存事务、余额与FIFO成本
type InventoryService struct {
	inventory *repository.InventoryRepository
	items     *repository.ItemRepository
	logger    *zap.Logger
}

func NewInventoryService(inventory *repository.InventoryRepository, items *repository.ItemRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{inventory: inventory, items: items, logger: logger}
}

// TransactionRequest 库存事务入参。UnitCost仅收货时使用。
type TransactionRequest struct {
	ItemID          string
	WarehouseID     string
	LotNumber       string
	TransactionType string
	Qty             decimal.Decimal
	UnitCost        decimal.Decimal
	ReferenceNo     string
	CreatedBy       string
}

// CreateTransaction 记账一笔库存事务并维护余额与成本层
func (s *InventoryService) CreateTransaction(req TransactionRequest) (*entity.InventoryTransaction, error) {
	if req.ItemID == "" || req.WarehouseID == "" {
		return nil, fmt.Errorf("%w: item_id and warehouse_id are required", ErrValidation)
	}
	if _, err := s.items.GetByID(req.ItemID); err != nil {
		return nil, fmt.Errorf("inventory transaction: item: %w", err)
	}
	if _, err := s.inventory.GetWarehouse(req.WarehouseID); err != nil {
		return nil, fmt.Errorf("inventory transaction: warehouse: %w", err)
	}

	var txn *entity.InventoryTransaction
	err := s.inventory.DB().Transaction(func(tx *gorm.DB) error {
		inv := s.inventory.WithTx(tx)
		var err error
		switch req.TransactionType {
		case entity.TxnTypeReceipt:
			if !req.Qty.IsPositive() {
				return fmt.Errorf("%w: receipt qty must be positive", ErrValidation)
			}
			txn, err = s.receipt(inv, req)
		case entity.TxnTypeIssue:
			if !req.Qty.IsPositive() {
				return fmt.Errorf("%w: issue qty must be positive", ErrValidation)
			}
			txn, err = s.issue(inv, req)
		case entity.TxnTypeAdjust:
			txn, err = s.adjust(inv, req)
		default:
			return fmt.Errorf("%w: unknown transaction_type %q", ErrValidation, req.TransactionType)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// receipt 收货：建成本层，余额按移动加权平均更新
func (s *InventoryService) receipt(inv *repository.InventoryRepository, req TransactionRequest) (*entity.InventoryTransaction, error) {
	now := time.Now()
	txn := &entity.InventoryTransaction{
		ID:              newID(),
		TransactionDate: now,
		ItemID:          req.ItemID,
		WarehouseID:     req.WarehouseID,
		LotNumber:       req.LotNumber,
		TransactionType: entity.TxnTypeReceipt,
		ReferenceNo:     req.ReferenceNo,
		Qty:             req.Qty,
		CreatedBy:       req.CreatedBy,
	}
	if err := inv.CreateTransaction(txn); err != nil {
		return nil, fmt.Errorf("inventory receipt: %w", err)
	}

	layer := &entity.InventoryCostLayer{
		ID:                   newID(),
		ItemID:               req.ItemID,
		WarehouseID:          req.WarehouseID,
		ReceiptDate:          now,
		QtyRemaining:         req.Qty,
		UnitCost:             req.UnitCost,
		ReceiptTransactionID: txn.ID,
		LotNumber:            req.LotNumber,
	}
	if err := inv.CreateCostLayer(layer); err != nil {
		return nil, fmt.Errorf("inventory receipt: %w", err)
	}

	balance, err := inv.GetBalance(req.ItemID, req.WarehouseID, req.LotNumber)
	if err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("inventory receipt: %w", err)
		}
		balance = &entity.InventoryBalance{
			ID:          newID(),
			ItemID:      req.ItemID,
			WarehouseID: req.WarehouseID,
			LotNumber:   req.LotNumber,
			QtyOnHand:   req.Qty,
			AvgCost:     req.UnitCost,
		}
		if err := inv.CreateBalance(balance); err != nil {
			return nil, fmt.Errorf("inventory receipt: %w", err)
		}
		return txn, nil
	}

	newQty := balance.QtyOnHand.Add(req.Qty)
	if newQty.IsPositive() {
		oldValue := balance.QtyOnHand.Mul(balance.AvgCost)
		newValue := req.Qty.Mul(req.UnitCost)
		balance.AvgCost = oldValue.Add(newValue).Div(newQty)
	} else {
		balance.AvgCost = req.UnitCost
	}
	balance.QtyOnHand = newQty
	if err := inv.UpdateBalance(balance); err != nil {
		return nil, fmt.Errorf("inventory receipt: %w", err)
	}
	return txn, nil
}

// issue 发料：校验余额充足后按收货日期先进先出消耗成本层。
// 没有可用成本层时只告警，余额照扣。
func (s *InventoryService) issue(inv *repository.InventoryRepository, req TransactionRequest) (*entity.InventoryTransaction, error) {
	balance, err := inv.GetBalance(req.ItemID, req.WarehouseID, req.LotNumber)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: no stock for item %s in warehouse", ErrValidation, req.ItemID)
		}
		return nil, fmt.Errorf("inventory issue: %w", err)
	}
	if balance.QtyOnHand.LessThan(req.Qty) {
		return nil, fmt.Errorf("%w: insufficient stock: on hand %s, requested %s",
			ErrValidation, balance.QtyOnHand, req.Qty)
	}

	remaining := req.Qty
	layers, err := inv.OpenCostLayers(req.ItemID, req.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("inventory issue: %w", err)
	}
	for i := range layers {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(layers[i].QtyRemaining, remaining)
		layers[i].QtyRemaining = layers[i].QtyRemaining.Sub(take)
		remaining = remaining.Sub(take)
		if err := inv.UpdateCostLayer(&layers[i]); err != nil {
			return nil, fmt.Errorf("inventory issue: %w", err)
		}
	}
	if remaining.IsPositive() {
		s.logger.Warn("issue exceeds cost layers, balance decremented anyway",
			zap.String("item_id", req.ItemID),
			zap.String("warehouse_id", req.WarehouseID),
			zap.String("uncovered_qty", remaining.String()))
	}

	balance.QtyOnHand = balance.QtyOnHand.Sub(req.Qty)
	if err := inv.UpdateBalance(balance); err != nil {
		return nil, fmt.Errorf("inventory issue: %w", err)
	}

	txn := &entity.InventoryTransaction{
		ID:              newID(),
		TransactionDate: time.Now(),
		ItemID:          req.ItemID,
		WarehouseID:     req.WarehouseID,
		LotNumber:       req.LotNumber,
		TransactionType: entity.TxnTypeIssue,
		ReferenceNo:     req.ReferenceNo,
		Qty:             req.Qty.Neg(),
		CreatedBy:       req.CreatedBy,
	}
	if err := inv.CreateTransaction(txn); err != nil {
		return nil, fmt.Errorf("inventory issue: %w", err)
	}
	return txn, nil
}

// adjust 差异调整，Qty为正负增量
func (s *InventoryService) adjust(inv *repository.InventoryRepository, req TransactionRequest) (*entity.InventoryTransaction, error) {
	if req.Qty.IsZero() {
		return nil, fmt.Errorf("%w: adjust qty cannot be zero", ErrValidation)
	}
	balance, err := inv.GetBalance(req.ItemID, req.WarehouseID, req.LotNumber)
	if err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("inventory adjust: %w", err)
		}
		balance = &entity.InventoryBalance{
			ID:          newID(),
			ItemID:      req.ItemID,
			WarehouseID: req.WarehouseID,
			LotNumber:   req.LotNumber,
			QtyOnHand:   decimal.Zero,
			AvgCost:     req.UnitCost,
		}
		if err := inv.CreateBalance(balance); err != nil {
			return nil, fmt.Errorf("inventory adjust: %w", err)
		}
	}
	newQty := balance.QtyOnHand.Add(req.Qty)
	if newQty.IsNegative() {
		return nil, fmt.Errorf("%w: adjustment would drive stock negative", ErrValidation)
	}
	balance.QtyOnHand = newQty
	if err := inv.UpdateBalance(balance); err != nil {
		return nil, fmt.Errorf("inventory adjust: %w", err)
	}

	txn := &entity.InventoryTransaction{
		ID:              newID(),
		TransactionDate: time.Now(),
		ItemID:          req.ItemID,
		WarehouseID:     req.WarehouseID,
		LotNumber:       req.LotNumber,
		TransactionType: entity.TxnTypeAdjust,
		ReferenceNo:     req.ReferenceNo,
		Qty:             req.Qty,
		CreatedBy:       req.CreatedBy,
	}
	if err := inv.CreateTransaction(txn); err != nil {
		return nil, fmt.Errorf("inventory adjust: %w", err)
	}
	return txn, nil
}

func (s *InventoryService) Balances(params repository.BalanceListParams) ([]entity.InventoryBalance, int64, error) {
	return s.inventory.ListBalances(params)
}

func (s *InventoryService) Transactions(itemID string, page, size int) ([]entity.InventoryTransaction, int64, error) {
	return s.inventory.ListTransactions(itemID, page, size)
}

func (s *InventoryService) CostLayers(itemID, warehouseID string) ([]entity.InventoryCostLayer, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: item_id is required", ErrValidation)
	}
	return s.inventory.OpenCostLayersByItem(itemID, warehouseID)
}

// ValuationRow 单条估值对比
type ValuationRow struct {
	ItemID       string          `json:"item_id"`
	WarehouseID  string          `json:"warehouse_id"`
	QtyOnHand    decimal.Decimal `json:"qty_on_hand"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	AvgValue     decimal.Decimal `json:"avg_value"`
	FIFOValue    decimal.Decimal `json:"fifo_value"`
	LayerQty     decimal.Decimal `json:"layer_qty"`
	LayerMissing bool            `json:"layer_missing"`
}

// ValuationReport FIFO与移动加权平均的估值对照
type ValuationReport struct {
	Rows          []ValuationRow  `json:"rows"`
	TotalAvgValue decimal.Decimal `json:"total_avg_value"`
	TotalFIFO     decimal.Decimal `json:"total_fifo_value"`
}

// Valuation 对在库余额做FIFO与移动平均双口径估值
func (s *InventoryService) Valuation(warehouseID string) (*ValuationReport, error) {
	balances, err := s.inventory.PositiveBalances(warehouseID)
	if err != nil {
		return nil, fmt.Errorf("inventory valuation: %w", err)
	}
	report := &ValuationReport{
		TotalAvgValue: decimal.Zero,
		TotalFIFO:     decimal.Zero,
	}
	for _, b := range balances {
		row := ValuationRow{
			ItemID:      b.ItemID,
			WarehouseID: b.WarehouseID,
			QtyOnHand:   b.QtyOnHand,
			AvgCost:     b.AvgCost,
			AvgValue:    b.QtyOnHand.Mul(b.AvgCost),
			FIFOValue:   decimal.Zero,
			LayerQty:    decimal.Zero,
		}
		layers, err := s.inventory.OpenCostLayers(b.ItemID, b.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("inventory valuation: %w", err)
		}
		for _, layer := range layers {
			row.FIFOValue = row.FIFOValue.Add(layer.QtyRemaining.Mul(layer.UnitCost))
			row.LayerQty = row.LayerQty.Add(layer.QtyRemaining)
		}
		row.LayerMissing = !row.LayerQty.Equal(b.QtyOnHand)
		report.TotalAvgValue = report.TotalAvgValue.Add(row.AvgValue)
		report.TotalFIFO = report.TotalFIFO.Add(row.FIFOValue)
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// --- Warehouse ---

func (s *InventoryService) CreateWarehouse(code, name, whType string) (*entity.Warehouse, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: warehouse_code and warehouse_name are required", ErrValidation)
	}
	if _, err := s.inventory.GetWarehouseByCode(code); err == nil {
		return nil, fmt.Errorf("%w: warehouse code %s already exists", ErrValidation, code)
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("create warehouse: %w", err)
	}
	if whType == "" {
		whType = "Main"
	}
	wh := &entity.Warehouse{
		ID:            newID(),
		WarehouseCode: code,
		WarehouseName: name,
		WarehouseType: whType,
		IsActive:      true,
	}
	if err := s.inventory.CreateWarehouse(wh); err != nil {
		return nil, fmt.Errorf("create warehouse: %w", err)
	}
	return wh, nil
}

func (s *InventoryService) ListWarehouses() ([]entity.Warehouse, error) {
	return s.inventory.ListWarehouses()
}
