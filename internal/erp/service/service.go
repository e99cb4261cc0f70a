package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:32]
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func parseDecimal(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s %q", ErrValidation, field, raw)
	}
	return d, nil
}

// applyDecimal 按字符串入参更新decimal字段，nil表示保持原值
func applyDecimal(dst *decimal.Decimal, raw *string, field string) error {
	if raw == nil {
		return nil
	}
	d, err := parseDecimal(*raw, field)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// 错误分类：NotFound 用 repository.ErrNotFound，其余见下。
// handler 层通过 errors.Is 映射HTTP状态码。
var (
	// ErrInvalidState 对象处于不允许该操作的生命周期状态
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation 入参校验失败，未发生任何写入
	ErrValidation = errors.New("validation failed")
)

// Services ERP 服务集合
type Services struct {
	Item          *ItemService
	Partner       *PartnerService
	BOM           *BOMService
	Explosion     *ExplosionService
	Inventory     *InventoryService
	Sales         *SalesService
	Planning      *PlanningService
	Manufacturing *ManufacturingService
}

// Options 服务层可调参数
type Options struct {
	// RevisionRetention 每个父物料保留的BOM版本数
	RevisionRetention int
	// DefaultMaxLevels 展开时未指定max_levels的默认层数
	DefaultMaxLevels int
}

func (o *Options) normalize() {
	if o.RevisionRetention <= 0 {
		o.RevisionRetention = 3
	}
	if o.DefaultMaxLevels <= 0 {
		o.DefaultMaxLevels = 10
	}
}

func NewServices(repos *repository.Repositories, db *gorm.DB, logger *zap.Logger, opts Options) *Services {
	opts.normalize()

	explosion := NewExplosionService(repos.BOM, repos.Item, logger, opts.DefaultMaxLevels)
	inventory := NewInventoryService(repos.Inventory, repos.Item, logger)
	return &Services{
		Item:          NewItemService(repos.Item),
		Partner:       NewPartnerService(repos.Partner),
		BOM:           NewBOMService(repos.BOM, repos.Item, db, opts.RevisionRetention),
		Explosion:     explosion,
		Inventory:     inventory,
		Sales:         NewSalesService(repos.Sales, repos.Item),
		Planning:      NewPlanningService(repos.Plan, repos.Sales, repos.Purchase, repos.Inventory, repos.BOM, repos.Item, repos.Partner, repos.WorkOrder, db, logger),
		Manufacturing: NewManufacturingService(repos.WorkOrder, inventory, repos.Item, repos.BOM, explosion, logger),
	}
}
