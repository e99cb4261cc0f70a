package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"gorm.io/gorm"
)

// BOMService BOM行维护与版本管理
type BOMService struct {
	boms      *repository.BOMRepository
	items     *repository.ItemRepository
	db        *gorm.DB
	retention int
}

func NewBOMService(boms *repository.BOMRepository, items *repository.ItemRepository, db *gorm.DB, retention int) *BOMService {
	if retention <= 0 {
		retention = 3
	}
	return &BOMService{boms: boms, items: items, db: db, retention: retention}
}

// CreateLineRequest 新增BOM行入参
type CreateLineRequest struct {
	ParentItemID string
	ChildItemID  string
	BOMType      string
	Revision     int
	CreatedBy    string
	Line         entity.BOMLine
}

// CreateLine 在指定版本（缺省为当前解析版本，无BOM时为1）下新增一行
func (s *BOMService) CreateLine(req CreateLineRequest) (*entity.BOMLine, error) {
	if req.ParentItemID == req.ChildItemID {
		return nil, fmt.Errorf("%w: item cannot be its own component", ErrValidation)
	}
	if req.BOMType == "" {
		req.BOMType = entity.BOMTypeAssembly
	}
	if !slices.Contains(entity.ValidBOMTypes, req.BOMType) {
		return nil, fmt.Errorf("%w: unknown bom_type %q", ErrValidation, req.BOMType)
	}
	if req.BOMType == entity.BOMTypeFormula && req.Line.Percentage == nil {
		return nil, fmt.Errorf("%w: FORMULA lines require a percentage", ErrValidation)
	}
	if req.BOMType != entity.BOMTypeFormula && !req.Line.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if req.Line.ScrapFactor.IsNegative() {
		return nil, fmt.Errorf("%w: scrap_factor cannot be negative", ErrValidation)
	}
	if _, err := s.items.GetByID(req.ParentItemID); err != nil {
		return nil, fmt.Errorf("create bom line: parent item: %w", err)
	}
	if _, err := s.items.GetByID(req.ChildItemID); err != nil {
		return nil, fmt.Errorf("create bom line: child item: %w", err)
	}

	revision := req.Revision
	if revision <= 0 {
		resolved, err := s.boms.ResolveRevision(req.ParentItemID)
		switch {
		case err == nil:
			revision = resolved
		case isNotFound(err):
			revision = 1
		default:
			return nil, fmt.Errorf("create bom line: %w", err)
		}
	}

	dup, err := s.boms.DuplicateExists(req.ParentItemID, req.ChildItemID, revision)
	if err != nil {
		return nil, fmt.Errorf("create bom line: %w", err)
	}
	if dup {
		return nil, fmt.Errorf("%w: child item already present in revision %d", ErrValidation, revision)
	}

	now := time.Now()
	line := req.Line
	line.ID = newID()
	line.ParentItemID = req.ParentItemID
	line.ChildItemID = req.ChildItemID
	line.BOMType = req.BOMType
	line.Revision = revision
	line.RevisionDate = now
	line.Status = entity.BOMStatusActive
	line.ActiveDate = &now
	line.IsActive = true
	line.CreatedBy = req.CreatedBy
	if err := s.boms.CreateLine(&line); err != nil {
		return nil, fmt.Errorf("create bom line: %w", err)
	}
	return &line, nil
}

// UpdateLineRequest 可更新字段，nil表示不变
type UpdateLineRequest struct {
	Quantity               *string
	Percentage             *string
	ScrapFactor            *string
	SequenceOrder          *int
	IsOptional             *bool
	IsByproduct            *bool
	ProductionLeadTimeDays *string
	Remark                 *string
}

func (s *BOMService) UpdateLine(id string, req UpdateLineRequest) (*entity.BOMLine, error) {
	line, err := s.boms.GetLineByID(id)
	if err != nil {
		return nil, fmt.Errorf("update bom line: %w", err)
	}
	if err := applyDecimal(&line.Quantity, req.Quantity, "quantity"); err != nil {
		return nil, err
	}
	if req.Percentage != nil {
		pct, err := parseDecimal(*req.Percentage, "percentage")
		if err != nil {
			return nil, err
		}
		line.Percentage = &pct
	}
	if err := applyDecimal(&line.ScrapFactor, req.ScrapFactor, "scrap_factor"); err != nil {
		return nil, err
	}
	if err := applyDecimal(&line.ProductionLeadTimeDays, req.ProductionLeadTimeDays, "production_lead_time_days"); err != nil {
		return nil, err
	}
	if req.SequenceOrder != nil {
		line.SequenceOrder = *req.SequenceOrder
	}
	if req.IsOptional != nil {
		line.IsOptional = *req.IsOptional
	}
	if req.IsByproduct != nil {
		line.IsByproduct = *req.IsByproduct
	}
	if req.Remark != nil {
		line.Remark = *req.Remark
	}
	if !line.Quantity.IsPositive() && line.BOMType != entity.BOMTypeFormula {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if line.ScrapFactor.IsNegative() {
		return nil, fmt.Errorf("%w: scrap_factor cannot be negative", ErrValidation)
	}
	if err := s.boms.UpdateLine(line); err != nil {
		return nil, fmt.Errorf("update bom line: %w", err)
	}
	return line, nil
}

// DeleteLine 软删除单行
func (s *BOMService) DeleteLine(id string) error {
	if _, err := s.boms.GetLineByID(id); err != nil {
		return fmt.Errorf("delete bom line: %w", err)
	}
	return s.boms.SoftDeleteLine(id)
}

// DeleteBOM 软删除父物料的整套BOM，revision为0时删除全部版本
func (s *BOMService) DeleteBOM(parentItemID string, revision int) (int64, error) {
	deleted, err := s.boms.SoftDeleteByParent(parentItemID, revision)
	if err != nil {
		return 0, fmt.Errorf("delete bom: %w", err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("delete bom: %w", repository.ErrNotFound)
	}
	return deleted, nil
}

// GetBOM 取某父物料的BOM行。revision为0时解析当前生效版本。
func (s *BOMService) GetBOM(parentItemID string, revision int) ([]entity.BOMLine, int, error) {
	if revision <= 0 {
		resolved, err := s.boms.ResolveRevision(parentItemID)
		if err != nil {
			return nil, 0, fmt.Errorf("get bom: %w", err)
		}
		revision = resolved
	}
	lines, err := s.boms.LinesByParentRevision(parentItemID, revision)
	if err != nil {
		return nil, 0, fmt.Errorf("get bom: %w", err)
	}
	return lines, revision, nil
}

// Search 组合条件查询
func (s *BOMService) Search(params repository.BOMSearchParams) ([]entity.BOMLine, error) {
	return s.boms.Search(params)
}

// ListParents 拥有有效BOM的父物料列表
func (s *BOMService) ListParents() ([]entity.Item, error) {
	ids, err := s.boms.DistinctParentIDs()
	if err != nil {
		return nil, fmt.Errorf("list bom parents: %w", err)
	}
	items := make([]entity.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.items.GetByID(id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("list bom parents: %w", err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// ListRevisions 父物料的版本概要，版本号倒序
func (s *BOMService) ListRevisions(parentItemID string) ([]repository.RevisionInfo, error) {
	if _, err := s.items.GetByID(parentItemID); err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	return s.boms.RevisionInfos(parentItemID)
}

// CreateRevision 创建新版本（当前最大版本+1）。copyFromRevision大于0时
// 深拷贝该版本的行到新版本。旧版本全部停用，超出保留数的最老版本被软删除。
func (s *BOMService) CreateRevision(parentItemID string, copyFromRevision int, createdBy, remark string) (int, error) {
	if _, err := s.items.GetByID(parentItemID); err != nil {
		return 0, fmt.Errorf("create revision: %w", err)
	}

	var newRevision int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		boms := s.boms.WithTx(tx)

		maxRev, err := boms.MaxRevision(parentItemID)
		if err != nil {
			return err
		}
		newRevision = maxRev + 1
		now := time.Now()

		if copyFromRevision > 0 {
			source, err := boms.LinesByParentRevision(parentItemID, copyFromRevision)
			if err != nil {
				return err
			}
			if len(source) == 0 {
				return fmt.Errorf("%w: revision %d has no lines to copy", ErrValidation, copyFromRevision)
			}
			copies := make([]entity.BOMLine, 0, len(source))
			for _, src := range source {
				line := src
				line.ID = newID()
				line.Revision = newRevision
				line.RevisionDate = now
				line.Status = entity.BOMStatusActive
				line.ActiveDate = &now
				line.InactiveDate = nil
				line.CreatedBy = createdBy
				if remark != "" {
					line.Remark = remark
				}
				line.CreatedAt = time.Time{}
				line.UpdatedAt = time.Time{}
				copies = append(copies, line)
			}
			if err := boms.CreateLines(copies); err != nil {
				return err
			}
		}

		if err := boms.DeactivateRevisionsBelow(parentItemID, newRevision, now); err != nil {
			return err
		}
		return s.pruneRevisions(boms, parentItemID)
	})
	if err != nil {
		return 0, fmt.Errorf("create revision: %w", err)
	}
	return newRevision, nil
}

// pruneRevisions 软删除超出保留数的最老版本
func (s *BOMService) pruneRevisions(boms *repository.BOMRepository, parentItemID string) error {
	revisions, err := boms.DistinctRevisions(parentItemID)
	if err != nil {
		return err
	}
	if len(revisions) <= s.retention {
		return nil
	}
	// DistinctRevisions 倒序，尾部即最老版本
	return boms.SoftDeleteRevisions(parentItemID, revisions[s.retention:])
}

// SetRevisionStatus 切换版本状态。置为ACTIVE时先停用其它所有版本。
func (s *BOMService) SetRevisionStatus(parentItemID string, revision int, status string) error {
	if !slices.Contains(entity.ValidBOMStatuses, status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	lines, err := s.boms.LinesByParentRevision(parentItemID, revision)
	if err != nil {
		return fmt.Errorf("set revision status: %w", err)
	}
	if len(lines) == 0 {
		return fmt.Errorf("set revision status: revision %d: %w", revision, repository.ErrNotFound)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		boms := s.boms.WithTx(tx)
		now := time.Now()
		if status == entity.BOMStatusActive {
			if err := boms.DeactivateOtherRevisions(parentItemID, revision, now); err != nil {
				return err
			}
		}
		updates := map[string]interface{}{"status": status}
		if status == entity.BOMStatusActive {
			updates["active_date"] = now
		} else {
			updates["inactive_date"] = now
		}
		return tx.Model(&entity.BOMLine{}).
			Where("parent_item_id = ? AND revision = ? AND is_active = true", parentItemID, revision).
			Updates(updates).Error
	})
}

// CopyBOM 把源物料当前生效版本的BOM拷贝到目标物料的新版本
func (s *BOMService) CopyBOM(sourceItemID, targetItemID, createdBy string) (int, int, error) {
	if sourceItemID == targetItemID {
		return 0, 0, fmt.Errorf("%w: source and target are the same item", ErrValidation)
	}
	if _, err := s.items.GetByID(targetItemID); err != nil {
		return 0, 0, fmt.Errorf("copy bom: target item: %w", err)
	}
	sourceRev, err := s.boms.ResolveRevision(sourceItemID)
	if err != nil {
		return 0, 0, fmt.Errorf("copy bom: source: %w", err)
	}
	source, err := s.boms.LinesByParentRevision(sourceItemID, sourceRev)
	if err != nil {
		return 0, 0, fmt.Errorf("copy bom: %w", err)
	}
	if len(source) == 0 {
		return 0, 0, fmt.Errorf("copy bom: source revision %d: %w", sourceRev, repository.ErrNotFound)
	}

	var targetRev, copied int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		boms := s.boms.WithTx(tx)
		maxRev, err := boms.MaxRevision(targetItemID)
		if err != nil {
			return err
		}
		targetRev = maxRev + 1
		now := time.Now()
		copies := make([]entity.BOMLine, 0, len(source))
		for _, src := range source {
			if src.ChildItemID == targetItemID {
				continue
			}
			line := src
			line.ID = newID()
			line.ParentItemID = targetItemID
			line.Revision = targetRev
			line.RevisionDate = now
			line.Status = entity.BOMStatusActive
			line.ActiveDate = &now
			line.InactiveDate = nil
			line.CreatedBy = createdBy
			line.CreatedAt = time.Time{}
			line.UpdatedAt = time.Time{}
			copies = append(copies, line)
		}
		if len(copies) == 0 {
			return fmt.Errorf("%w: nothing to copy", ErrValidation)
		}
		copied = len(copies)
		if err := boms.CreateLines(copies); err != nil {
			return err
		}
		return boms.DeactivateRevisionsBelow(targetItemID, targetRev, now)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("copy bom: %w", err)
	}
	return targetRev, copied, nil
}
