package repository

import (
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *BOMRepository) WithTx(tx *gorm.DB) *BOMRepository {
	return &BOMRepository{db: tx}
}

// DB 返回底层db用于事务
func (r *BOMRepository) DB() *gorm.DB {
	return r.db
}

func (r *BOMRepository) CreateLine(line *entity.BOMLine) error {
	return r.db.Create(line).Error
}

func (r *BOMRepository) CreateLines(lines []entity.BOMLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.Create(&lines).Error
}

func (r *BOMRepository) UpdateLine(line *entity.BOMLine) error {
	return r.db.Save(line).Error
}

func (r *BOMRepository) GetLineByID(id string) (*entity.BOMLine, error) {
	var line entity.BOMLine
	err := r.db.Where("id = ?", id).First(&line).Error
	if err != nil {
		return nil, translate(err)
	}
	return &line, nil
}

// SoftDeleteLine 软删除单条BOM行
func (r *BOMRepository) SoftDeleteLine(id string) error {
	return r.db.Model(&entity.BOMLine{}).Where("id = ?", id).Update("is_active", false).Error
}

// SoftDeleteByParent 软删除父物料的全部BOM行，revision为0时不限版本，返回删除行数
func (r *BOMRepository) SoftDeleteByParent(parentItemID string, revision int) (int64, error) {
	query := r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND is_active = true", parentItemID)
	if revision > 0 {
		query = query.Where("revision = ?", revision)
	}
	res := query.Update("is_active", false)
	return res.RowsAffected, res.Error
}

// LinesByParentRevision 取某父物料指定版本的有效BOM行，按顺序号排序
func (r *BOMRepository) LinesByParentRevision(parentItemID string, revision int) ([]entity.BOMLine, error) {
	var lines []entity.BOMLine
	err := r.db.Where("parent_item_id = ? AND revision = ? AND is_active = true", parentItemID, revision).
		Order("sequence_order").Find(&lines).Error
	return lines, err
}

// ExplosionLines 展开用BOM行查询。revision>0 取指定版本，否则取状态为ACTIVE的版本。
func (r *BOMRepository) ExplosionLines(parentItemID string, revision int, includeOptional, includeByproducts bool) ([]entity.BOMLine, error) {
	query := r.db.Where("parent_item_id = ? AND is_active = true", parentItemID)
	if revision > 0 {
		query = query.Where("revision = ?", revision)
	} else {
		query = query.Where("status = ?", entity.BOMStatusActive)
	}
	if !includeOptional {
		query = query.Where("is_optional = false")
	}
	if !includeByproducts {
		query = query.Where("is_byproduct = false")
	}
	var lines []entity.BOMLine
	err := query.Order("sequence_order").Find(&lines).Error
	return lines, err
}

// HasActiveBOM 物料是否作为父件存在有效BOM行
func (r *BOMRepository) HasActiveBOM(parentItemID string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND is_active = true", parentItemID).
		Count(&count).Error
	return count > 0, err
}

// ResolveRevision 取状态为ACTIVE的版本号；没有时回退到最高版本号
func (r *BOMRepository) ResolveRevision(parentItemID string) (int, error) {
	var line entity.BOMLine
	err := r.db.Where("parent_item_id = ? AND is_active = true AND status = ?", parentItemID, entity.BOMStatusActive).
		Order("revision DESC").First(&line).Error
	if err == nil {
		return line.Revision, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}
	err = r.db.Where("parent_item_id = ? AND is_active = true", parentItemID).
		Order("revision DESC").First(&line).Error
	if err != nil {
		return 0, translate(err)
	}
	return line.Revision, nil
}

// MaxRevision 当前最大版本号，不存在时返回0
func (r *BOMRepository) MaxRevision(parentItemID string) (int, error) {
	var max *int
	err := r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND is_active = true", parentItemID).
		Select("MAX(revision)").Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// DistinctRevisions 按版本号倒序返回全部有效版本号
func (r *BOMRepository) DistinctRevisions(parentItemID string) ([]int, error) {
	var revisions []int
	err := r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND is_active = true", parentItemID).
		Distinct("revision").Order("revision DESC").Pluck("revision", &revisions).Error
	return revisions, err
}

// DuplicateExists 同版本下是否已存在该子物料
func (r *BOMRepository) DuplicateExists(parentItemID, childItemID string, revision int) (bool, error) {
	var count int64
	err := r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND child_item_id = ? AND revision = ? AND is_active = true",
			parentItemID, childItemID, revision).
		Count(&count).Error
	return count > 0, err
}

// DeactivateRevisionsBelow 把低于新版本的有效版本全部置为INACTIVE
func (r *BOMRepository) DeactivateRevisionsBelow(parentItemID string, newRevision int, inactiveDate time.Time) error {
	return r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND revision < ? AND is_active = true", parentItemID, newRevision).
		Updates(map[string]interface{}{
			"status":        entity.BOMStatusInactive,
			"inactive_date": inactiveDate,
		}).Error
}

// DeactivateOtherRevisions 激活某版本前先停用其它版本
func (r *BOMRepository) DeactivateOtherRevisions(parentItemID string, keepRevision int, inactiveDate time.Time) error {
	return r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND revision <> ? AND is_active = true", parentItemID, keepRevision).
		Updates(map[string]interface{}{
			"status":        entity.BOMStatusInactive,
			"inactive_date": inactiveDate,
		}).Error
}

// SoftDeleteRevisions 软删除给定版本（超出保留数的老版本）
func (r *BOMRepository) SoftDeleteRevisions(parentItemID string, revisions []int) error {
	if len(revisions) == 0 {
		return nil
	}
	return r.db.Model(&entity.BOMLine{}).
		Where("parent_item_id = ? AND revision IN ?", parentItemID, revisions).
		Update("is_active", false).Error
}

type BOMSearchParams struct {
	ParentItemIDs   []string
	ChildItemIDs    []string
	ParentItemID    string
	BOMType         string
	Status          string
	Revision        int
	IncludeInactive bool
	Page            int
	Size            int
}

// Search 组合条件查询BOM行
func (r *BOMRepository) Search(params BOMSearchParams) ([]entity.BOMLine, error) {
	query := r.db.Model(&entity.BOMLine{}).
		Preload("ParentItem").Preload("ChildItem")
	if !params.IncludeInactive {
		query = query.Where("is_active = true")
	}
	if len(params.ParentItemIDs) > 0 {
		query = query.Where("parent_item_id IN ?", params.ParentItemIDs)
	}
	if len(params.ChildItemIDs) > 0 {
		query = query.Where("child_item_id IN ?", params.ChildItemIDs)
	}
	if params.ParentItemID != "" {
		query = query.Where("parent_item_id = ?", params.ParentItemID)
	}
	if params.BOMType != "" {
		query = query.Where("bom_type = ?", params.BOMType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Revision > 0 {
		query = query.Where("revision = ?", params.Revision)
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 100
	}
	var lines []entity.BOMLine
	err := query.Order("parent_item_id, revision DESC, sequence_order").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&lines).Error
	return lines, err
}

// DistinctParentIDs 返回拥有有效BOM的父物料ID
func (r *BOMRepository) DistinctParentIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&entity.BOMLine{}).
		Where("is_active = true").
		Distinct("parent_item_id").Pluck("parent_item_id", &ids).Error
	return ids, err
}

// RevisionInfo 某父物料一个版本的概要
type RevisionInfo struct {
	Revision       int        `json:"revision"`
	Status         string     `json:"status"`
	RevisionDate   time.Time  `json:"revision_date"`
	ActiveDate     *time.Time `json:"active_date"`
	InactiveDate   *time.Time `json:"inactive_date"`
	ComponentCount int64      `json:"component_count"`
}

// RevisionInfos 版本概要列表，版本号倒序
func (r *BOMRepository) RevisionInfos(parentItemID string) ([]RevisionInfo, error) {
	revisions, err := r.DistinctRevisions(parentItemID)
	if err != nil {
		return nil, err
	}
	infos := make([]RevisionInfo, 0, len(revisions))
	for _, rev := range revisions {
		var line entity.BOMLine
		if err := r.db.Where("parent_item_id = ? AND revision = ? AND is_active = true", parentItemID, rev).
			First(&line).Error; err != nil {
			return nil, translate(err)
		}
		var count int64
		if err := r.db.Model(&entity.BOMLine{}).
			Where("parent_item_id = ? AND revision = ? AND is_active = true", parentItemID, rev).
			Count(&count).Error; err != nil {
			return nil, err
		}
		infos = append(infos, RevisionInfo{
			Revision:       rev,
			Status:         line.Status,
			RevisionDate:   line.RevisionDate,
			ActiveDate:     line.ActiveDate,
			InactiveDate:   line.InactiveDate,
			ComponentCount: count,
		})
	}
	return infos, nil
}
