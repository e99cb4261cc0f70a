package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType 物料类型
const (
	ItemTypeRawMaterial  = "RAW_MATERIAL"
	ItemTypeComponent    = "COMPONENT"
	ItemTypeWIP          = "WIP"
	ItemTypeFinishedGood = "FINISHED_GOOD"
	ItemTypePackage      = "PACKAGE"
)

// ValidItemTypes 合法物料类型集合
var ValidItemTypes = []string{
	ItemTypeRawMaterial,
	ItemTypeComponent,
	ItemTypeWIP,
	ItemTypeFinishedGood,
	ItemTypePackage,
}

// Item 物料主数据
type Item struct {
	ID            string          `json:"id" gorm:"primaryKey;size:32"`
	ItemCode      string          `json:"item_code" gorm:"size:64;not null;uniqueIndex"`
	ItemName      string          `json:"item_name" gorm:"size:128;not null"`
	ItemType      string          `json:"item_type" gorm:"size:20;not null"`
	UnitOfMeasure string          `json:"unit_of_measure" gorm:"size:16;not null;default:pcs"`
	StandardCost  decimal.Decimal `json:"standard_cost" gorm:"type:decimal(15,4);default:0"`
	LotControl    bool            `json:"lot_control" gorm:"default:false"`
	IsActive      bool            `json:"is_active" gorm:"default:true"`
	Remark        string          `json:"remark" gorm:"type:text"`
	CreatedBy     string          `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Item) TableName() string {
	return "erp_items"
}
