package entity

import (
	"time"
)

// PartnerType 往来单位类型
const (
	PartnerTypeVendor   = "VENDOR"
	PartnerTypeCustomer = "CUSTOMER"
	PartnerTypeBoth     = "BOTH"
)

// BusinessPartner 往来单位（供应商/客户）
type BusinessPartner struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	PartnerCode string `json:"partner_code" gorm:"size:32;not null;uniqueIndex"`
	PartnerName string `json:"partner_name" gorm:"size:128;not null"`
	PartnerType string `json:"partner_type" gorm:"size:16;not null"`

	// 供应商交期，MRP处理阶段用于倒推下单日期
	LeadTimeProductionDays int `json:"lead_time_production_days" gorm:"default:0"`
	LeadTimeTransitDays    int `json:"lead_time_transit_days" gorm:"default:0"`

	ContactName string    `json:"contact_name" gorm:"size:64"`
	ContactInfo string    `json:"contact_info" gorm:"size:128"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (BusinessPartner) TableName() string {
	return "erp_business_partners"
}
