package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) CreateTransaction(c *gin.Context) {
	var req struct {
		ItemID          string          `json:"item_id" binding:"required"`
		WarehouseID     string          `json:"warehouse_id" binding:"required"`
		LotNumber       string          `json:"lot_number"`
		TransactionType string          `json:"transaction_type" binding:"required"`
		Qty             decimal.Decimal `json:"qty" binding:"required"`
		UnitCost        decimal.Decimal `json:"unit_cost"`
		ReferenceNo     string          `json:"reference_no"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	txn, err := h.svc.CreateTransaction(service.TransactionRequest{
		ItemID:          req.ItemID,
		WarehouseID:     req.WarehouseID,
		LotNumber:       req.LotNumber,
		TransactionType: req.TransactionType,
		Qty:             req.Qty,
		UnitCost:        req.UnitCost,
		ReferenceNo:     req.ReferenceNo,
		CreatedBy:       currentUser(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": txn})
}

func (h *InventoryHandler) Balances(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	balances, total, err := h.svc.Balances(repository.BalanceListParams{
		ItemID:      c.Query("item_id"),
		WarehouseID: c.Query("warehouse_id"),
		Page:        page,
		Size:        size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": balances, "total": total, "page": page, "size": size}})
}

func (h *InventoryHandler) Transactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	txns, total, err := h.svc.Transactions(c.Query("item_id"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": txns, "total": total, "page": page, "size": size}})
}

func (h *InventoryHandler) CostLayers(c *gin.Context) {
	layers, err := h.svc.CostLayers(c.Query("item_id"), c.Query("warehouse_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": layers})
}

func (h *InventoryHandler) Valuation(c *gin.Context) {
	report, err := h.svc.Valuation(c.Query("warehouse_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": report})
}

func (h *InventoryHandler) CreateWarehouse(c *gin.Context) {
	var req struct {
		WarehouseCode string `json:"warehouse_code" binding:"required"`
		WarehouseName string `json:"warehouse_name" binding:"required"`
		WarehouseType string `json:"warehouse_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	wh, err := h.svc.CreateWarehouse(req.WarehouseCode, req.WarehouseName, req.WarehouseType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": wh})
}

func (h *InventoryHandler) ListWarehouses(c *gin.Context) {
	whs, err := h.svc.ListWarehouses()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": whs})
}
