package service

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeBOMSource serves BOM lines from memory for engine tests
type fakeBOMSource struct {
	lines  map[string][]entity.BOMLine
	active map[string]int
}

func (f *fakeBOMSource) ExplosionLines(parentItemID string, revision int, includeOptional, includeByproducts bool) ([]entity.BOMLine, error) {
	var out []entity.BOMLine
	for _, line := range f.lines[parentItemID] {
		if revision > 0 {
			if line.Revision != revision {
				continue
			}
		} else if line.Status != entity.BOMStatusActive {
			continue
		}
		if !includeOptional && line.IsOptional {
			continue
		}
		if !includeByproducts && line.IsByproduct {
			continue
		}
		out = append(out, line)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].SequenceOrder < out[b].SequenceOrder })
	return out, nil
}

func (f *fakeBOMSource) HasActiveBOM(parentItemID string) (bool, error) {
	return len(f.lines[parentItemID]) > 0, nil
}

func (f *fakeBOMSource) ResolveRevision(parentItemID string) (int, error) {
	rev, ok := f.active[parentItemID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return rev, nil
}

type fakeItemSource struct {
	items map[string]*entity.Item
}

func (f *fakeItemSource) GetByID(id string) (*entity.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testItem(id, code, itemType string) *entity.Item {
	return &entity.Item{ID: id, ItemCode: code, ItemName: "item " + code, ItemType: itemType, UnitOfMeasure: "pcs"}
}

func assemblyLine(id, parent, child string, qty, scrap string, seq int) entity.BOMLine {
	return entity.BOMLine{
		ID:            id,
		ParentItemID:  parent,
		ChildItemID:   child,
		BOMType:       entity.BOMTypeAssembly,
		SequenceOrder: seq,
		Quantity:      dec(qty),
		ScrapFactor:   dec(scrap),
		Revision:      1,
		Status:        entity.BOMStatusActive,
		IsActive:      true,
	}
}

func newTestEngine(boms *fakeBOMSource, items *fakeItemSource) *ExplosionService {
	return NewExplosionService(boms, items, zap.NewNop(), 10)
}

func TestExplodeScrapMath(t *testing.T) {
	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {assemblyLine("l1", "A", "B", "8", "2", 1)},
		},
		active: map[string]int{"A": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A": testItem("A", "FG-A", entity.ItemTypeFinishedGood),
		"B": testItem("B", "RM-B", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(result.Lines))
	}
	line := result.Lines[0]
	if !line.RequiredQty.Equal(dec("8")) {
		t.Errorf("required qty = %s, want 8", line.RequiredQty)
	}
	if !line.ScrapQty.Equal(dec("0.16")) {
		t.Errorf("scrap qty = %s, want 0.16", line.ScrapQty)
	}
	if !line.TotalQty.Equal(dec("8.16")) {
		t.Errorf("total qty = %s, want 8.16", line.TotalQty)
	}
}

func TestExplodeFormulaPercentage(t *testing.T) {
	pct := dec("30")
	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"MIX": {{
				ID:           "f1",
				ParentItemID: "MIX",
				ChildItemID:  "ING",
				BOMType:      entity.BOMTypeFormula,
				Quantity:     dec("1"),
				Percentage:   &pct,
				ScrapFactor:  decimal.Zero,
				Revision:     1,
				Status:       entity.BOMStatusActive,
				IsActive:     true,
			}},
		},
		active: map[string]int{"MIX": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"MIX": testItem("MIX", "FG-MIX", entity.ItemTypeFinishedGood),
		"ING": testItem("ING", "RM-ING", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "MIX", Quantity: dec("10")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if !result.Lines[0].RequiredQty.Equal(dec("3")) {
		t.Errorf("formula required qty = %s, want 3", result.Lines[0].RequiredQty)
	}
	if !result.Lines[0].BOMQuantity.Equal(dec("0.3")) {
		t.Errorf("formula bom qty = %s, want 0.3", result.Lines[0].BOMQuantity)
	}
}

func TestExplodeScrapPropagatesToSubLevels(t *testing.T) {
	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {assemblyLine("l1", "A", "B", "2", "10", 1)},
			"B": {assemblyLine("l2", "B", "C", "3", "0", 1)},
		},
		active: map[string]int{"A": 1, "B": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A": testItem("A", "FG-A", entity.ItemTypeFinishedGood),
		"B": testItem("B", "SA-B", entity.ItemTypeWIP),
		"C": testItem("C", "RM-C", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	// B: required 2, scrap 0.2, total 2.2; C takes 2.2*3 = 6.6
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(result.Lines))
	}
	sub := result.Lines[1]
	if sub.ItemID != "C" || sub.Level != 2 {
		t.Fatalf("unexpected sub line: %+v", sub)
	}
	if !sub.RequiredQty.Equal(dec("6.6")) {
		t.Errorf("sub required qty = %s, want 6.6", sub.RequiredQty)
	}
	if result.TotalLevels != 2 {
		t.Errorf("total levels = %d, want 2", result.TotalLevels)
	}
}

func TestExplodeCycleTruncated(t *testing.T) {
	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {assemblyLine("l1", "A", "B", "1", "0", 1)},
			"B": {assemblyLine("l2", "B", "A", "1", "0", 1)},
		},
		active: map[string]int{"A": 1, "B": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A": testItem("A", "A", entity.ItemTypeWIP),
		"B": testItem("B", "B", entity.ItemTypeWIP),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	// B at level 1, A at level 2, then the branch stops
	if len(result.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(result.Lines))
	}
	if result.Lines[1].ItemID != "A" || result.Lines[1].Level != 2 {
		t.Errorf("unexpected second line: %+v", result.Lines[1])
	}
}

func TestExplodeSharedComponentAcrossBranches(t *testing.T) {
	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {
				assemblyLine("l1", "A", "B", "1", "0", 1),
				assemblyLine("l2", "A", "C", "1", "0", 2),
			},
			"B": {assemblyLine("l3", "B", "D", "2", "0", 1)},
			"C": {assemblyLine("l4", "C", "D", "3", "0", 1)},
		},
		active: map[string]int{"A": 1, "B": 1, "C": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A": testItem("A", "A", entity.ItemTypeFinishedGood),
		"B": testItem("B", "B", entity.ItemTypeWIP),
		"C": testItem("C", "C", entity.ItemTypeWIP),
		"D": testItem("D", "D", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	// D appears under both B and C despite the shared path guard
	var d *ConsolidatedLine
	for i := range result.Consolidated {
		if result.Consolidated[i].ItemID == "D" {
			d = &result.Consolidated[i]
		}
	}
	if d == nil {
		t.Fatal("D missing from consolidated result")
	}
	if d.Occurrences != 2 {
		t.Errorf("D occurrences = %d, want 2", d.Occurrences)
	}
	if !d.TotalQty.Equal(dec("5")) {
		t.Errorf("D total qty = %s, want 5", d.TotalQty)
	}
	if !d.IsRawMaterial {
		t.Error("D should be consolidated as raw material")
	}
	if result.TotalRawMaterials != 2 {
		t.Errorf("total raw materials = %d, want 2", result.TotalRawMaterials)
	}
}

func TestExplodeOptionalAndByproductFilters(t *testing.T) {
	optional := assemblyLine("l2", "A", "OPT", "1", "0", 2)
	optional.IsOptional = true
	byproduct := assemblyLine("l3", "A", "BY", "1", "0", 3)
	byproduct.IsByproduct = true

	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {assemblyLine("l1", "A", "B", "1", "0", 1), optional, byproduct},
		},
		active: map[string]int{"A": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A":   testItem("A", "A", entity.ItemTypeFinishedGood),
		"B":   testItem("B", "B", entity.ItemTypeRawMaterial),
		"OPT": testItem("OPT", "OPT", entity.ItemTypeRawMaterial),
		"BY":  testItem("BY", "BY", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("default explode should exclude optional and byproduct, got %d lines", len(result.Lines))
	}

	result, err = svc.Explode(ExplosionRequest{
		ParentItemID: "A", Quantity: dec("1"),
		IncludeOptional: true, IncludeByproducts: true,
	})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(result.Lines) != 3 {
		t.Fatalf("expected 3 lines with filters open, got %d", len(result.Lines))
	}
	if !result.HasOptionalItems || !result.HasByproducts {
		t.Errorf("flags = optional %v byproduct %v, want both true", result.HasOptionalItems, result.HasByproducts)
	}
}

func TestExplodeAllLinesFilteredReturnsEmpty(t *testing.T) {
	optional := assemblyLine("l1", "A", "OPT", "1", "0", 1)
	optional.IsOptional = true

	boms := &fakeBOMSource{
		lines:  map[string][]entity.BOMLine{"A": {optional}},
		active: map[string]int{"A": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A":   testItem("A", "A", entity.ItemTypeFinishedGood),
		"OPT": testItem("OPT", "OPT", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	// BOM行存在但都被过滤掉：返回空结果而不是报错
	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(result.Lines) != 0 || len(result.Consolidated) != 0 {
		t.Errorf("expected empty result, got %d lines / %d consolidated",
			len(result.Lines), len(result.Consolidated))
	}
	if result.TotalComponents != 0 || result.TotalRawMaterials != 0 {
		t.Errorf("totals = %d components / %d raw materials, want 0/0",
			result.TotalComponents, result.TotalRawMaterials)
	}
}

func TestExplodeMaxLevels(t *testing.T) {
	boms := &fakeBOMSource{lines: map[string][]entity.BOMLine{}, active: map[string]int{}}
	items := &fakeItemSource{items: map[string]*entity.Item{}}
	prev := "I0"
	items.items[prev] = testItem(prev, prev, entity.ItemTypeFinishedGood)
	boms.active[prev] = 1
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("I%d", i)
		items.items[id] = testItem(id, id, entity.ItemTypeWIP)
		boms.lines[prev] = []entity.BOMLine{assemblyLine("l"+id, prev, id, "1", "0", 1)}
		prev = id
	}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "I0", Quantity: dec("1"), MaxLevels: 3})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if result.TotalLevels != 3 {
		t.Errorf("total levels = %d, want 3", result.TotalLevels)
	}
	if len(result.Lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(result.Lines))
	}
}

func TestConsolidateOrdering(t *testing.T) {
	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {
				assemblyLine("l1", "A", "SUB", "1", "0", 1),
				assemblyLine("l2", "A", "RM2", "1", "0", 2),
				assemblyLine("l3", "A", "RM1", "1", "0", 3),
			},
			"SUB": {assemblyLine("l4", "SUB", "RM1", "1", "0", 1)},
		},
		active: map[string]int{"A": 1, "SUB": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A":   testItem("A", "A-001", entity.ItemTypeFinishedGood),
		"SUB": testItem("SUB", "SA-900", entity.ItemTypeWIP),
		"RM1": testItem("RM1", "RM-100", entity.ItemTypeRawMaterial),
		"RM2": testItem("RM2", "RM-200", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	codes := make([]string, 0, len(result.Consolidated))
	for _, c := range result.Consolidated {
		codes = append(codes, c.ItemCode)
	}
	// raw materials first by code, sub-assembly last
	want := []string{"RM-100", "RM-200", "SA-900"}
	if len(codes) != len(want) {
		t.Fatalf("consolidated codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("consolidated codes = %v, want %v", codes, want)
		}
	}
	// RM-100 appears under both A and SUB, so the flat count is 3
	if result.TotalRawMaterials != 3 {
		t.Errorf("total raw materials = %d, want 3", result.TotalRawMaterials)
	}
	if len(result.RawMaterialsOnly) != 2 {
		t.Errorf("raw materials projection = %d rows, want 2", len(result.RawMaterialsOnly))
	}
}

func TestExplodeSkipsMissingChild(t *testing.T) {
	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {
				assemblyLine("l1", "A", "GONE", "1", "0", 1),
				assemblyLine("l2", "A", "B", "1", "0", 2),
			},
		},
		active: map[string]int{"A": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A": testItem("A", "A", entity.ItemTypeFinishedGood),
		"B": testItem("B", "B", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1")})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0].ItemID != "B" {
		t.Fatalf("missing child should be skipped, got %+v", result.Lines)
	}
}

func TestExplodeErrors(t *testing.T) {
	boms := &fakeBOMSource{lines: map[string][]entity.BOMLine{}, active: map[string]int{}}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"LEAF": testItem("LEAF", "LEAF", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	if _, err := svc.Explode(ExplosionRequest{ParentItemID: "NOPE", Quantity: dec("1")}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("unknown item: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Explode(ExplosionRequest{ParentItemID: "LEAF", Quantity: dec("1")}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("item without bom: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Explode(ExplosionRequest{ParentItemID: "LEAF", Quantity: dec("0")}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero qty: err = %v, want ErrValidation", err)
	}
	if _, err := svc.Explode(ExplosionRequest{ParentItemID: "LEAF", Quantity: dec("-2")}); !errors.Is(err, ErrValidation) {
		t.Errorf("negative qty: err = %v, want ErrValidation", err)
	}
}

func TestExplodeSpecificRevision(t *testing.T) {
	rev2 := assemblyLine("l2", "A", "C", "5", "0", 1)
	rev2.Revision = 2
	rev2.Status = entity.BOMStatusInactive

	boms := &fakeBOMSource{
		lines: map[string][]entity.BOMLine{
			"A": {assemblyLine("l1", "A", "B", "1", "0", 1), rev2},
		},
		active: map[string]int{"A": 1},
	}
	items := &fakeItemSource{items: map[string]*entity.Item{
		"A": testItem("A", "A", entity.ItemTypeFinishedGood),
		"B": testItem("B", "B", entity.ItemTypeRawMaterial),
		"C": testItem("C", "C", entity.ItemTypeRawMaterial),
	}}
	svc := newTestEngine(boms, items)

	result, err := svc.Explode(ExplosionRequest{ParentItemID: "A", Quantity: dec("1"), Revision: 2})
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0].ItemID != "C" {
		t.Fatalf("revision 2 explode returned %+v", result.Lines)
	}
	if result.Revision != 2 {
		t.Errorf("result revision = %d, want 2", result.Revision)
	}
}
