package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupInventoryTest(t *testing.T) (*gorm.DB, *InventoryService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewInventoryService(
		repository.NewInventoryRepository(db),
		repository.NewItemRepository(db),
		zap.NewNop(),
	)
	return db, svc
}

func receive(t *testing.T, svc *InventoryService, itemID, warehouseID, qty, cost string) {
	t.Helper()
	_, err := svc.CreateTransaction(TransactionRequest{
		ItemID: itemID, WarehouseID: warehouseID,
		TransactionType: entity.TxnTypeReceipt,
		Qty:             dec(qty), UnitCost: dec(cost),
		CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("receipt failed: %v", err)
	}
}

func TestReceiptMovingAverage(t *testing.T) {
	db, svc := setupInventoryTest(t)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedWarehouse(t, db, "WH", "WH-01")

	receive(t, svc, "RM", "WH", "10", "2.00")
	receive(t, svc, "RM", "WH", "10", "4.00")

	var balance entity.InventoryBalance
	if err := db.Where("item_id = ? AND warehouse_id = ?", "RM", "WH").First(&balance).Error; err != nil {
		t.Fatalf("balance not found: %v", err)
	}
	if !balance.QtyOnHand.Equal(dec("20")) {
		t.Errorf("on hand = %s, want 20", balance.QtyOnHand)
	}
	// (10*2 + 10*4) / 20 = 3
	if !balance.AvgCost.Equal(dec("3")) {
		t.Errorf("avg cost = %s, want 3", balance.AvgCost)
	}

	layers, err := svc.CostLayers("RM", "WH")
	if err != nil {
		t.Fatalf("CostLayers failed: %v", err)
	}
	if len(layers) != 2 {
		t.Fatalf("layer count = %d, want 2", len(layers))
	}
}

func TestIssueFIFOConsumesOldestFirst(t *testing.T) {
	db, svc := setupInventoryTest(t)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedWarehouse(t, db, "WH", "WH-01")

	receive(t, svc, "RM", "WH", "10", "2.00")
	receive(t, svc, "RM", "WH", "10", "4.00")

	txn, err := svc.CreateTransaction(TransactionRequest{
		ItemID: "RM", WarehouseID: "WH",
		TransactionType: entity.TxnTypeIssue,
		Qty:             dec("15"),
		CreatedBy:       "tester",
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if !txn.Qty.Equal(dec("-15")) {
		t.Errorf("issue txn qty = %s, want -15", txn.Qty)
	}

	// 第一层吃光，第二层剩5
	layers, err := svc.CostLayers("RM", "WH")
	if err != nil {
		t.Fatalf("CostLayers failed: %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("open layer count = %d, want 1", len(layers))
	}
	if !layers[0].QtyRemaining.Equal(dec("5")) {
		t.Errorf("remaining = %s, want 5", layers[0].QtyRemaining)
	}
	if !layers[0].UnitCost.Equal(dec("4.00")) {
		t.Errorf("surviving layer cost = %s, want 4.00", layers[0].UnitCost)
	}

	var balance entity.InventoryBalance
	db.Where("item_id = ?", "RM").First(&balance)
	if !balance.QtyOnHand.Equal(dec("5")) {
		t.Errorf("on hand = %s, want 5", balance.QtyOnHand)
	}
}

func TestIssueInsufficientStock(t *testing.T) {
	db, svc := setupInventoryTest(t)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedWarehouse(t, db, "WH", "WH-01")
	receive(t, svc, "RM", "WH", "5", "1.00")

	_, err := svc.CreateTransaction(TransactionRequest{
		ItemID: "RM", WarehouseID: "WH",
		TransactionType: entity.TxnTypeIssue,
		Qty:             dec("8"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}

	// 无任何库存时同样拒绝
	testutil.SeedItem(t, db, "RM2", "RM-002", entity.ItemTypeRawMaterial)
	_, err = svc.CreateTransaction(TransactionRequest{
		ItemID: "RM2", WarehouseID: "WH",
		TransactionType: entity.TxnTypeIssue,
		Qty:             dec("1"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("no stock: err = %v, want ErrValidation", err)
	}
}

func TestIssueWithoutLayersStillDecrementsBalance(t *testing.T) {
	db, svc := setupInventoryTest(t)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedWarehouse(t, db, "WH", "WH-01")

	// 调整入库不建成本层
	if _, err := svc.CreateTransaction(TransactionRequest{
		ItemID: "RM", WarehouseID: "WH",
		TransactionType: entity.TxnTypeAdjust,
		Qty:             dec("10"),
	}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	if _, err := svc.CreateTransaction(TransactionRequest{
		ItemID: "RM", WarehouseID: "WH",
		TransactionType: entity.TxnTypeIssue,
		Qty:             dec("4"),
	}); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	var balance entity.InventoryBalance
	db.Where("item_id = ?", "RM").First(&balance)
	if !balance.QtyOnHand.Equal(dec("6")) {
		t.Errorf("on hand = %s, want 6", balance.QtyOnHand)
	}
}

func TestAdjustCannotGoNegative(t *testing.T) {
	db, svc := setupInventoryTest(t)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedWarehouse(t, db, "WH", "WH-01")
	receive(t, svc, "RM", "WH", "3", "1.00")

	_, err := svc.CreateTransaction(TransactionRequest{
		ItemID: "RM", WarehouseID: "WH",
		TransactionType: entity.TxnTypeAdjust,
		Qty:             dec("-5"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	_, err = svc.CreateTransaction(TransactionRequest{
		ItemID: "RM", WarehouseID: "WH",
		TransactionType: entity.TxnTypeAdjust,
		Qty:             dec("0"),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("zero adjust: err = %v, want ErrValidation", err)
	}
}

func TestValuationFlagsLayerGap(t *testing.T) {
	db, svc := setupInventoryTest(t)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedWarehouse(t, db, "WH", "WH-01")

	receive(t, svc, "RM", "WH", "10", "2.50")
	// 层外调增造成层数量与余额不一致
	if _, err := svc.CreateTransaction(TransactionRequest{
		ItemID: "RM", WarehouseID: "WH",
		TransactionType: entity.TxnTypeAdjust,
		Qty:             dec("2"),
	}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	report, err := svc.Valuation("WH")
	if err != nil {
		t.Fatalf("Valuation failed: %v", err)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("row count = %d, want 1", len(report.Rows))
	}
	row := report.Rows[0]
	if !row.FIFOValue.Equal(dec("25")) {
		t.Errorf("fifo value = %s, want 25", row.FIFOValue)
	}
	if !row.LayerMissing {
		t.Error("layer gap not flagged")
	}
	if !report.TotalFIFO.Equal(dec("25")) {
		t.Errorf("total fifo = %s, want 25", report.TotalFIFO)
	}
}

func TestCreateWarehouseDuplicateCode(t *testing.T) {
	_, svc := setupInventoryTest(t)

	if _, err := svc.CreateWarehouse("WH-01", "Main warehouse", ""); err != nil {
		t.Fatalf("CreateWarehouse failed: %v", err)
	}
	if _, err := svc.CreateWarehouse("WH-01", "Another", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate code: err = %v, want ErrValidation", err)
	}
}
