package service

import (
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/testutil"
	"gorm.io/gorm"
)

func setupBOMTest(t *testing.T) (*gorm.DB, *BOMService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	boms := repository.NewBOMRepository(db)
	items := repository.NewItemRepository(db)
	return db, NewBOMService(boms, items, db, 3)
}

func seedRevision(t *testing.T, db *gorm.DB, parentID, childID string, revision int, status string) {
	t.Helper()
	line := testutil.SeedBOMLine(t, db, "bl-"+parentID+"-"+childID+"-"+string(rune('0'+revision)), parentID, childID, revision, "2")
	if status != entity.BOMStatusActive {
		now := time.Now()
		db.Model(line).Updates(map[string]interface{}{"status": status, "inactive_date": now})
	}
}

func TestCreateRevisionRetention(t *testing.T) {
	db, svc := setupBOMTest(t)
	testutil.SeedItem(t, db, "P", "FG-P", entity.ItemTypeFinishedGood)
	testutil.SeedItem(t, db, "C", "RM-C", entity.ItemTypeRawMaterial)

	seedRevision(t, db, "P", "C", 1, entity.BOMStatusInactive)
	seedRevision(t, db, "P", "C", 2, entity.BOMStatusInactive)
	seedRevision(t, db, "P", "C", 3, entity.BOMStatusActive)

	newRev, err := svc.CreateRevision("P", 3, "tester", "")
	if err != nil {
		t.Fatalf("CreateRevision failed: %v", err)
	}
	if newRev != 4 {
		t.Fatalf("new revision = %d, want 4", newRev)
	}

	infos, err := svc.ListRevisions("P")
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	// retention 3: revision 1 pruned, {4,3,2} remain, newest first
	if len(infos) != 3 {
		t.Fatalf("revisions after prune = %d, want 3", len(infos))
	}
	wantRevs := []int{4, 3, 2}
	for i, info := range infos {
		if info.Revision != wantRevs[i] {
			t.Errorf("revision[%d] = %d, want %d", i, info.Revision, wantRevs[i])
		}
	}
	if infos[0].Status != entity.BOMStatusActive {
		t.Errorf("revision 4 status = %s, want ACTIVE", infos[0].Status)
	}
	for _, info := range infos[1:] {
		if info.Status != entity.BOMStatusInactive {
			t.Errorf("revision %d status = %s, want INACTIVE", info.Revision, info.Status)
		}
	}
	// copied lines carried over
	if infos[0].ComponentCount != 1 {
		t.Errorf("revision 4 component count = %d, want 1", infos[0].ComponentCount)
	}
}

func TestCreateRevisionWithoutCopy(t *testing.T) {
	db, svc := setupBOMTest(t)
	testutil.SeedItem(t, db, "P", "FG-P", entity.ItemTypeFinishedGood)
	testutil.SeedItem(t, db, "C", "RM-C", entity.ItemTypeRawMaterial)
	seedRevision(t, db, "P", "C", 1, entity.BOMStatusActive)

	newRev, err := svc.CreateRevision("P", 0, "tester", "")
	if err != nil {
		t.Fatalf("CreateRevision failed: %v", err)
	}
	if newRev != 2 {
		t.Fatalf("new revision = %d, want 2", newRev)
	}
	lines, _, err := svc.GetBOM("P", 2)
	if err != nil {
		t.Fatalf("GetBOM failed: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("empty revision should have no lines, got %d", len(lines))
	}
}

func TestSetRevisionStatusDeactivatesSiblings(t *testing.T) {
	db, svc := setupBOMTest(t)
	testutil.SeedItem(t, db, "P", "FG-P", entity.ItemTypeFinishedGood)
	testutil.SeedItem(t, db, "C", "RM-C", entity.ItemTypeRawMaterial)
	seedRevision(t, db, "P", "C", 1, entity.BOMStatusInactive)
	seedRevision(t, db, "P", "C", 2, entity.BOMStatusActive)

	if err := svc.SetRevisionStatus("P", 1, entity.BOMStatusActive); err != nil {
		t.Fatalf("SetRevisionStatus failed: %v", err)
	}
	infos, err := svc.ListRevisions("P")
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	for _, info := range infos {
		want := entity.BOMStatusInactive
		if info.Revision == 1 {
			want = entity.BOMStatusActive
		}
		if info.Status != want {
			t.Errorf("revision %d status = %s, want %s", info.Revision, info.Status, want)
		}
	}
}

func TestSetRevisionStatusUnknownRevision(t *testing.T) {
	db, svc := setupBOMTest(t)
	testutil.SeedItem(t, db, "P", "FG-P", entity.ItemTypeFinishedGood)

	err := svc.SetRevisionStatus("P", 9, entity.BOMStatusActive)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateLineValidation(t *testing.T) {
	db, svc := setupBOMTest(t)
	testutil.SeedItem(t, db, "P", "FG-P", entity.ItemTypeFinishedGood)
	testutil.SeedItem(t, db, "C", "RM-C", entity.ItemTypeRawMaterial)

	// 自引用
	_, err := svc.CreateLine(CreateLineRequest{ParentItemID: "P", ChildItemID: "P",
		Line: entity.BOMLine{Quantity: dec("1")}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("self reference: err = %v, want ErrValidation", err)
	}

	line, err := svc.CreateLine(CreateLineRequest{ParentItemID: "P", ChildItemID: "C",
		Line: entity.BOMLine{Quantity: dec("4")}})
	if err != nil {
		t.Fatalf("CreateLine failed: %v", err)
	}
	if line.Revision != 1 || line.Status != entity.BOMStatusActive {
		t.Errorf("new line revision=%d status=%s, want 1/ACTIVE", line.Revision, line.Status)
	}

	// 同版本重复子件
	_, err = svc.CreateLine(CreateLineRequest{ParentItemID: "P", ChildItemID: "C",
		Line: entity.BOMLine{Quantity: dec("2")}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate child: err = %v, want ErrValidation", err)
	}

	// FORMULA 必须带百分比
	_, err = svc.CreateLine(CreateLineRequest{ParentItemID: "P", ChildItemID: "C",
		BOMType: entity.BOMTypeFormula, Line: entity.BOMLine{Quantity: dec("1")}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("formula without percentage: err = %v, want ErrValidation", err)
	}
}

func TestDeleteBOMSoftDelete(t *testing.T) {
	db, svc := setupBOMTest(t)
	testutil.SeedItem(t, db, "P", "FG-P", entity.ItemTypeFinishedGood)
	testutil.SeedItem(t, db, "C", "RM-C", entity.ItemTypeRawMaterial)
	seedRevision(t, db, "P", "C", 1, entity.BOMStatusActive)

	deleted, err := svc.DeleteBOM("P", 0)
	if err != nil {
		t.Fatalf("DeleteBOM failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	// 软删除后不可再解析版本
	if _, _, err := svc.GetBOM("P", 0); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
	// 行仍在表中，只是失效
	var count int64
	db.Model(&entity.BOMLine{}).Where("parent_item_id = ?", "P").Count(&count)
	if count != 1 {
		t.Errorf("rows in table = %d, want 1", count)
	}
}
