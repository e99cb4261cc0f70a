package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ManufacturingHandler struct {
	svc *service.ManufacturingService
}

func NewManufacturingHandler(svc *service.ManufacturingService) *ManufacturingHandler {
	return &ManufacturingHandler{svc: svc}
}

func (h *ManufacturingHandler) Generate(c *gin.Context) {
	var req struct {
		ItemID            string          `json:"item_id" binding:"required"`
		Quantity          decimal.Decimal `json:"quantity" binding:"required"`
		WarehouseID       string          `json:"warehouse_id" binding:"required"`
		Revision          int             `json:"revision"`
		IncludeOptional   bool            `json:"include_optional"`
		AutoMaterialLines *bool           `json:"auto_material_lines"`
		StartDate         *time.Time      `json:"start_date"`
		EndDate           *time.Time      `json:"end_date"`
		LotNumber         string          `json:"lot_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	autoLines := true
	if req.AutoMaterialLines != nil {
		autoLines = *req.AutoMaterialLines
	}
	wo, err := h.svc.GenerateFromBOM(service.GenerateRequest{
		ItemID:            req.ItemID,
		Quantity:          req.Quantity,
		WarehouseID:       req.WarehouseID,
		Revision:          req.Revision,
		IncludeOptional:   req.IncludeOptional,
		AutoMaterialLines: autoLines,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		LotNumber:         req.LotNumber,
		CreatedBy:         currentUser(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": wo})
}

func (h *ManufacturingHandler) Get(c *gin.Context) {
	wo, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": wo})
}

func (h *ManufacturingHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	wos, total, err := h.svc.List(repository.WorkOrderListParams{
		Status:      c.Query("status"),
		ItemID:      c.Query("item_id"),
		WarehouseID: c.Query("warehouse_id"),
		PlanID:      c.Query("plan_id"),
		Page:        page,
		Size:        size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": wos, "total": total, "page": page, "size": size}})
}

func (h *ManufacturingHandler) Update(c *gin.Context) {
	var req service.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	wo, err := h.svc.Update(c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": wo})
}

func (h *ManufacturingHandler) Consume(c *gin.Context) {
	var req struct {
		ItemID string          `json:"item_id" binding:"required"`
		Qty    decimal.Decimal `json:"qty" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	material, err := h.svc.ConsumeMaterial(c.Param("id"), req.ItemID, req.Qty, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": material})
}

func (h *ManufacturingHandler) Issue(c *gin.Context) {
	issued, err := h.svc.IssueMaterials(c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"issued_lines": issued}})
}

func (h *ManufacturingHandler) Complete(c *gin.Context) {
	var req struct {
		QtyProduced decimal.Decimal `json:"qty_produced" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	wo, err := h.svc.Complete(c.Param("id"), req.QtyProduced, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": wo})
}

func (h *ManufacturingHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Statistics()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": stats})
}
