package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupManufacturingTest(t *testing.T) (*gorm.DB, *ManufacturingService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	boms := repository.NewBOMRepository(db)
	items := repository.NewItemRepository(db)
	inventory := NewInventoryService(repository.NewInventoryRepository(db), items, zap.NewNop())
	explosion := NewExplosionService(boms, items, zap.NewNop(), 10)
	svc := NewManufacturingService(repository.NewWorkOrderRepository(db), inventory, items, boms, explosion, zap.NewNop())
	return db, svc
}

func seedJobFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedItem(t, db, "FG", "FG-001", entity.ItemTypeFinishedGood)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedBOMLine(t, db, "bl-fg-rm", "FG", "RM", 1, "2")
	testutil.SeedWarehouse(t, db, "WH", "WH-01")
}

func TestGenerateFromBOM(t *testing.T) {
	db, svc := setupManufacturingTest(t)
	seedJobFixture(t, db)

	wo, err := svc.GenerateFromBOM(GenerateRequest{
		ItemID: "FG", Quantity: dec("5"), WarehouseID: "WH",
		AutoMaterialLines: true, CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("GenerateFromBOM failed: %v", err)
	}
	if wo.Status != entity.JobStatusPlanned {
		t.Errorf("status = %s, want PLANNED", wo.Status)
	}
	if !strings.HasPrefix(wo.JobNo, "WO-") {
		t.Errorf("job no = %s, want WO- prefix", wo.JobNo)
	}
	if wo.BOMRevision != 1 {
		t.Errorf("bom revision = %d, want 1", wo.BOMRevision)
	}
	if len(wo.Materials) != 1 {
		t.Fatalf("material lines = %d, want 1", len(wo.Materials))
	}
	m := wo.Materials[0]
	if m.ItemID != "RM" || !m.QtyRequired.Equal(dec("10")) {
		t.Errorf("material = %s qty %s, want RM qty 10", m.ItemID, m.QtyRequired)
	}
}

func TestGenerateFromBOMWithoutBOM(t *testing.T) {
	db, svc := setupManufacturingTest(t)
	testutil.SeedItem(t, db, "RM", "RM-001", entity.ItemTypeRawMaterial)
	testutil.SeedWarehouse(t, db, "WH", "WH-01")

	_, err := svc.GenerateFromBOM(GenerateRequest{
		ItemID: "RM", Quantity: dec("5"), WarehouseID: "WH",
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestConsumeMaterialAdvancesWorkOrder(t *testing.T) {
	db, svc := setupManufacturingTest(t)
	seedJobFixture(t, db)
	receive(t, svc.inventory, "RM", "WH", "20", "1.50")

	wo, err := svc.GenerateFromBOM(GenerateRequest{
		ItemID: "FG", Quantity: dec("5"), WarehouseID: "WH",
		AutoMaterialLines: true, CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("GenerateFromBOM failed: %v", err)
	}

	m, err := svc.ConsumeMaterial(wo.ID, "RM", dec("4"), "tester")
	if err != nil {
		t.Fatalf("ConsumeMaterial failed: %v", err)
	}
	if !m.QtyConsumed.Equal(dec("4")) {
		t.Errorf("consumed = %s, want 4", m.QtyConsumed)
	}
	wo, _ = svc.Get(wo.ID)
	if wo.Status != entity.JobStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", wo.Status)
	}
	if wo.StartDate == nil {
		t.Error("start date not set on first consumption")
	}

	// 超领拒绝：需求10已领4，再领7超出
	if _, err := svc.ConsumeMaterial(wo.ID, "RM", dec("7"), "tester"); !errors.Is(err, ErrValidation) {
		t.Errorf("over consume: err = %v, want ErrValidation", err)
	}

	var balance entity.InventoryBalance
	db.Where("item_id = ?", "RM").First(&balance)
	if !balance.QtyOnHand.Equal(dec("16")) {
		t.Errorf("RM on hand = %s, want 16", balance.QtyOnHand)
	}
}

func TestCompleteIssuesRemainderAndReceivesFinishedGood(t *testing.T) {
	db, svc := setupManufacturingTest(t)
	seedJobFixture(t, db)
	db.Model(&entity.Item{}).Where("id = ?", "FG").Update("standard_cost", dec("12.00"))
	receive(t, svc.inventory, "RM", "WH", "20", "1.50")

	wo, err := svc.GenerateFromBOM(GenerateRequest{
		ItemID: "FG", Quantity: dec("5"), WarehouseID: "WH",
		AutoMaterialLines: true, CreatedBy: "tester",
	})
	if err != nil {
		t.Fatalf("GenerateFromBOM failed: %v", err)
	}
	if _, err := svc.ConsumeMaterial(wo.ID, "RM", dec("4"), "tester"); err != nil {
		t.Fatalf("ConsumeMaterial failed: %v", err)
	}

	wo, err = svc.Complete(wo.ID, dec("5"), "tester")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if wo.Status != entity.JobStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", wo.Status)
	}
	if !wo.QtyProduced.Equal(dec("5")) {
		t.Errorf("qty produced = %s, want 5", wo.QtyProduced)
	}
	if wo.EndDate == nil {
		t.Error("end date not set")
	}

	// 完工补发剩余6，合计领料10
	var rm entity.InventoryBalance
	db.Where("item_id = ?", "RM").First(&rm)
	if !rm.QtyOnHand.Equal(dec("10")) {
		t.Errorf("RM on hand = %s, want 10", rm.QtyOnHand)
	}

	// 成品按标准成本入库并建成本层
	var fg entity.InventoryBalance
	if err := db.Where("item_id = ?", "FG").First(&fg).Error; err != nil {
		t.Fatalf("FG balance not found: %v", err)
	}
	if !fg.QtyOnHand.Equal(dec("5")) {
		t.Errorf("FG on hand = %s, want 5", fg.QtyOnHand)
	}
	if !fg.AvgCost.Equal(dec("12.00")) {
		t.Errorf("FG avg cost = %s, want 12.00", fg.AvgCost)
	}

	// 完工后不可再领料或再完工
	if _, err := svc.ConsumeMaterial(wo.ID, "RM", dec("1"), "tester"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("consume after complete: err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Complete(wo.ID, dec("1"), "tester"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("recomplete: err = %v, want ErrInvalidState", err)
	}
}

func TestWorkOrderStatusTransitions(t *testing.T) {
	db, svc := setupManufacturingTest(t)
	seedJobFixture(t, db)

	wo, err := svc.GenerateFromBOM(GenerateRequest{
		ItemID: "FG", Quantity: dec("5"), WarehouseID: "WH",
	})
	if err != nil {
		t.Fatalf("GenerateFromBOM failed: %v", err)
	}

	completed := entity.JobStatusCompleted
	if _, err := svc.Update(wo.ID, UpdateRequest{Status: &completed}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("PLANNED->COMPLETED: err = %v, want ErrInvalidState", err)
	}

	cancelled := entity.JobStatusCancelled
	wo, err = svc.Update(wo.ID, UpdateRequest{Status: &cancelled})
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if wo.Status != entity.JobStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", wo.Status)
	}
	planned := entity.JobStatusPlanned
	if _, err := svc.Update(wo.ID, UpdateRequest{Status: &planned}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("CANCELLED->PLANNED: err = %v, want ErrInvalidState", err)
	}
}
