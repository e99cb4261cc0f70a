package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BOMSource 展开引擎需要的BOM读取能力，由 repository.BOMRepository 实现
type BOMSource interface {
	ExplosionLines(parentItemID string, revision int, includeOptional, includeByproducts bool) ([]entity.BOMLine, error)
	HasActiveBOM(parentItemID string) (bool, error)
	ResolveRevision(parentItemID string) (int, error)
}

// ItemSource 展开引擎需要的物料读取能力，由 repository.ItemRepository 实现
type ItemSource interface {
	GetByID(id string) (*entity.Item, error)
}

// ExplosionService 多层BOM展开与汇总
type ExplosionService struct {
	boms      BOMSource
	items     ItemSource
	logger    *zap.Logger
	maxLevels int
}

func NewExplosionService(boms BOMSource, items ItemSource, logger *zap.Logger, defaultMaxLevels int) *ExplosionService {
	if defaultMaxLevels <= 0 {
		defaultMaxLevels = 10
	}
	return &ExplosionService{boms: boms, items: items, logger: logger, maxLevels: defaultMaxLevels}
}

// ExplosionRequest 展开请求。Revision为0时取当前生效版本。
type ExplosionRequest struct {
	ParentItemID      string
	Quantity          decimal.Decimal
	Revision          int
	IncludeOptional   bool
	IncludeByproducts bool
	MaxLevels         int
}

// ExplosionLine 展开结果中的一行，保留树的先序顺序
type ExplosionLine struct {
	Level          int              `json:"level"`
	ItemID         string           `json:"item_id"`
	ItemCode       string           `json:"item_code"`
	ItemName       string           `json:"item_name"`
	ItemType       string           `json:"item_type"`
	UnitOfMeasure  string           `json:"unit_of_measure"`
	BOMType        string           `json:"bom_type"`
	SequenceOrder  int              `json:"sequence_order"`
	BOMQuantity    decimal.Decimal  `json:"bom_quantity"`
	Percentage     *decimal.Decimal `json:"percentage,omitempty"`
	RequiredQty    decimal.Decimal  `json:"required_qty"`
	ScrapFactor    decimal.Decimal  `json:"scrap_factor"`
	ScrapQty       decimal.Decimal  `json:"scrap_qty"`
	TotalQty       decimal.Decimal  `json:"total_qty"`
	IsOptional     bool             `json:"is_optional"`
	IsByproduct    bool             `json:"is_byproduct"`
	ParentItemID   string           `json:"parent_item_id"`
	ParentItemCode string           `json:"parent_item_code"`
	BOMLineID      string           `json:"bom_line_id"`
	Remark         string           `json:"remark,omitempty"`
}

// ConsolidatedLine 按物料汇总后的一行
type ConsolidatedLine struct {
	ItemID        string          `json:"item_id"`
	ItemCode      string          `json:"item_code"`
	ItemName      string          `json:"item_name"`
	ItemType      string          `json:"item_type"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	RequiredQty   decimal.Decimal `json:"required_qty"`
	ScrapQty      decimal.Decimal `json:"scrap_qty"`
	TotalQty      decimal.Decimal `json:"total_qty"`
	Occurrences   int             `json:"occurrences"`
	IsRawMaterial bool            `json:"is_raw_material"`
}

// ExplosionResult 完整展开响应
type ExplosionResult struct {
	ParentItemID      string             `json:"parent_item_id"`
	ParentItemCode    string             `json:"parent_item_code"`
	ParentItemName    string             `json:"parent_item_name"`
	RequestedQty      decimal.Decimal    `json:"requested_qty"`
	Revision          int                `json:"revision"`
	ExplosionDate     time.Time          `json:"explosion_date"`
	TotalLevels       int                `json:"total_levels"`
	TotalComponents   int                `json:"total_components"`
	TotalRawMaterials int                `json:"total_raw_materials"`
	HasOptionalItems  bool               `json:"has_optional_items"`
	HasByproducts     bool               `json:"has_byproducts"`
	Lines             []ExplosionLine    `json:"lines"`
	Consolidated      []ConsolidatedLine `json:"consolidated"`
	RawMaterialsOnly  []ConsolidatedLine `json:"raw_materials_only"`
}

// Explode 从父物料出发做多层展开，返回明细行、按物料汇总与纯采购件清单
func (s *ExplosionService) Explode(req ExplosionRequest) (*ExplosionResult, error) {
	if req.ParentItemID == "" {
		return nil, fmt.Errorf("%w: parent_item_id is required", ErrValidation)
	}
	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	maxLevels := req.MaxLevels
	if maxLevels <= 0 {
		maxLevels = s.maxLevels
	}

	parent, err := s.items.GetByID(req.ParentItemID)
	if err != nil {
		return nil, fmt.Errorf("explode bom: parent item: %w", err)
	}

	revision := req.Revision
	if revision <= 0 {
		revision, err = s.boms.ResolveRevision(req.ParentItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("item %s has no bom: %w", parent.ItemCode, repository.ErrNotFound)
			}
			return nil, fmt.Errorf("explode bom: resolve revision: %w", err)
		}
	}

	lines, err := s.explode(req.ParentItemID, parent.ItemCode, req.Quantity, revision,
		req.IncludeOptional, req.IncludeByproducts, 1, maxLevels, map[string]struct{}{})
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		// 区分"根本没有BOM行"与"行都被选装/副产品过滤掉"：前者报错，后者返回空结果
		raw, err := s.boms.ExplosionLines(req.ParentItemID, revision, true, true)
		if err != nil {
			return nil, fmt.Errorf("explode bom: load lines: %w", err)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("item %s has no bom lines for revision %d: %w",
				parent.ItemCode, revision, repository.ErrNotFound)
		}
	}

	consolidated, err := s.Consolidate(lines)
	if err != nil {
		return nil, err
	}

	result := &ExplosionResult{
		ParentItemID:    req.ParentItemID,
		ParentItemCode:  parent.ItemCode,
		ParentItemName:  parent.ItemName,
		RequestedQty:    req.Quantity,
		Revision:        revision,
		ExplosionDate:   time.Now(),
		TotalComponents: len(consolidated),
		Lines:           lines,
		Consolidated:    consolidated,
	}
	for _, line := range lines {
		if line.Level > result.TotalLevels {
			result.TotalLevels = line.Level
		}
		if line.IsOptional {
			result.HasOptionalItems = true
		}
		if line.IsByproduct {
			result.HasByproducts = true
		}
	}
	// 采购件计数按展开明细行计，同一物料出现在多个分支算多次
	for _, c := range consolidated {
		if c.IsRawMaterial {
			result.RawMaterialsOnly = append(result.RawMaterialsOnly, c)
			result.TotalRawMaterials += c.Occurrences
		}
	}
	return result, nil
}

// explode 先序深度优先递归。visited 按分支复制，只拦截真正的祖先环，
// 不影响同一物料出现在不同分支的情况。
func (s *ExplosionService) explode(parentID, parentCode string, incomingQty decimal.Decimal,
	revision int, includeOptional, includeByproducts bool,
	level, maxLevels int, visited map[string]struct{}) ([]ExplosionLine, error) {

	if level > maxLevels {
		return nil, nil
	}
	if _, ok := visited[parentID]; ok {
		s.logger.Warn("bom cycle detected, branch truncated",
			zap.String("item_id", parentID), zap.Int("level", level))
		return nil, nil
	}
	branch := make(map[string]struct{}, len(visited)+1)
	for id := range visited {
		branch[id] = struct{}{}
	}
	branch[parentID] = struct{}{}

	bomLines, err := s.boms.ExplosionLines(parentID, revision, includeOptional, includeByproducts)
	if err != nil {
		return nil, fmt.Errorf("explode bom: load lines: %w", err)
	}

	var out []ExplosionLine
	for _, bl := range bomLines {
		child, err := s.items.GetByID(bl.ChildItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("bom line references missing item, skipped",
					zap.String("bom_line_id", bl.ID), zap.String("child_item_id", bl.ChildItemID))
				continue
			}
			return nil, fmt.Errorf("explode bom: child item: %w", err)
		}

		bomQty := bl.Quantity
		if bl.BOMType == entity.BOMTypeFormula && bl.Percentage != nil {
			bomQty = bl.Percentage.Div(decimal.NewFromInt(100))
		}
		requiredQty := incomingQty.Mul(bomQty)
		scrapQty := requiredQty.Mul(bl.ScrapFactor.Div(decimal.NewFromInt(100)))
		totalQty := requiredQty.Add(scrapQty)

		out = append(out, ExplosionLine{
			Level:          level,
			ItemID:         child.ID,
			ItemCode:       child.ItemCode,
			ItemName:       child.ItemName,
			ItemType:       child.ItemType,
			UnitOfMeasure:  child.UnitOfMeasure,
			BOMType:        bl.BOMType,
			SequenceOrder:  bl.SequenceOrder,
			BOMQuantity:    bomQty,
			Percentage:     bl.Percentage,
			RequiredQty:    requiredQty,
			ScrapFactor:    bl.ScrapFactor,
			ScrapQty:       scrapQty,
			TotalQty:       totalQty,
			IsOptional:     bl.IsOptional,
			IsByproduct:    bl.IsByproduct,
			ParentItemID:   parentID,
			ParentItemCode: parentCode,
			BOMLineID:      bl.ID,
			Remark:         bl.Remark,
		})

		hasBOM, err := s.boms.HasActiveBOM(child.ID)
		if err != nil {
			return nil, fmt.Errorf("explode bom: check sub-bom: %w", err)
		}
		if hasBOM {
			// 下层固定按生效版本展开，含报废量一并下推
			sub, err := s.explode(child.ID, child.ItemCode, totalQty, 0,
				includeOptional, includeByproducts, level+1, maxLevels, branch)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// Consolidate 按物料汇总展开行。是否为采购件以当前是否持有生效BOM实时判定，
// 排序规则：采购件在前，同组内按物料编码。
func (s *ExplosionService) Consolidate(lines []ExplosionLine) ([]ConsolidatedLine, error) {
	index := make(map[string]int)
	var out []ConsolidatedLine
	for _, line := range lines {
		i, ok := index[line.ItemID]
		if !ok {
			hasBOM, err := s.boms.HasActiveBOM(line.ItemID)
			if err != nil {
				return nil, fmt.Errorf("consolidate bom: %w", err)
			}
			index[line.ItemID] = len(out)
			out = append(out, ConsolidatedLine{
				ItemID:        line.ItemID,
				ItemCode:      line.ItemCode,
				ItemName:      line.ItemName,
				ItemType:      line.ItemType,
				UnitOfMeasure: line.UnitOfMeasure,
				RequiredQty:   line.RequiredQty,
				ScrapQty:      line.ScrapQty,
				TotalQty:      line.TotalQty,
				Occurrences:   1,
				IsRawMaterial: !hasBOM,
			})
			continue
		}
		out[i].RequiredQty = out[i].RequiredQty.Add(line.RequiredQty)
		out[i].ScrapQty = out[i].ScrapQty.Add(line.ScrapQty)
		out[i].TotalQty = out[i].TotalQty.Add(line.TotalQty)
		out[i].Occurrences++
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].IsRawMaterial != out[b].IsRawMaterial {
			return out[a].IsRawMaterial
		}
		return out[a].ItemCode < out[b].ItemCode
	})
	return out, nil
}
