package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOMType BOM类型
const (
	BOMTypeAssembly   = "ASSEMBLY"
	BOMTypeFormula    = "FORMULA"
	BOMTypeModular    = "MODULAR"
	BOMTypeTailorMade = "TAILOR_MADE"
)

// BOMStatus 版本状态（与软删除标志 is_active 相互独立）
const (
	BOMStatusActive   = "ACTIVE"
	BOMStatusInactive = "INACTIVE"
)

// ValidBOMTypes 合法BOM类型集合
var ValidBOMTypes = []string{BOMTypeAssembly, BOMTypeFormula, BOMTypeModular, BOMTypeTailorMade}

// ValidBOMStatuses 合法版本状态集合
var ValidBOMStatuses = []string{BOMStatusActive, BOMStatusInactive}

// BOMLine 一条父子物料关系，归属于父物料的某个版本
type BOMLine struct {
	ID            string           `json:"id" gorm:"primaryKey;size:32"`
	ParentItemID  string           `json:"parent_item_id" gorm:"size:32;not null;index:idx_bom_parent_rev"`
	ChildItemID   string           `json:"child_item_id" gorm:"size:32;not null;index"`
	BOMType       string           `json:"bom_type" gorm:"size:20;not null;default:ASSEMBLY"`
	SequenceOrder int              `json:"sequence_order" gorm:"not null;default:0"`
	Quantity      decimal.Decimal  `json:"quantity" gorm:"type:decimal(15,6);not null"`
	Percentage    *decimal.Decimal `json:"percentage" gorm:"type:decimal(9,4)"`
	ScrapFactor   decimal.Decimal  `json:"scrap_factor" gorm:"type:decimal(9,4);default:0"`
	IsOptional    bool             `json:"is_optional" gorm:"default:false"`
	IsByproduct   bool             `json:"is_byproduct" gorm:"default:false"`

	ProductionLeadTimeDays decimal.Decimal `json:"production_lead_time_days" gorm:"type:decimal(9,2);default:0"`

	Revision     int        `json:"revision" gorm:"not null;default:1;index:idx_bom_parent_rev"`
	RevisionDate time.Time  `json:"revision_date"`
	Status       string     `json:"status" gorm:"size:16;not null;default:ACTIVE"`
	ActiveDate   *time.Time `json:"active_date"`
	InactiveDate *time.Time `json:"inactive_date"`
	IsActive     bool       `json:"is_active" gorm:"default:true;index"`

	Remark    string    `json:"remark" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ParentItem *Item `json:"parent_item,omitempty" gorm:"foreignKey:ParentItemID"`
	ChildItem  *Item `json:"child_item,omitempty" gorm:"foreignKey:ChildItemID"`
}

func (BOMLine) TableName() string {
	return "erp_bom_lines"
}
