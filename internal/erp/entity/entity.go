package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有ERP表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&Item{},
		&BusinessPartner{},
		&Warehouse{},

		// BOM
		&BOMLine{},

		// 库存
		&InventoryBalance{},
		&InventoryTransaction{},
		&InventoryCostLayer{},

		// 销售
		&SalesOrder{},
		&SOItem{},

		// 采购
		&PurchaseOrder{},
		&POItem{},

		// 计划/MRP
		&ProductionPlan{},
		&ProductionPlanItem{},
		&MRPResult{},
		&DraftPurchaseRequisition{},

		// 生产
		&WorkOrder{},
		&WorkOrderMaterial{},
	)
}
