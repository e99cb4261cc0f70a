package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SalesHandler struct {
	svc *service.SalesService
}

func NewSalesHandler(svc *service.SalesService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

func (h *SalesHandler) Create(c *gin.Context) {
	var req struct {
		CustomerID   string     `json:"customer_id" binding:"required"`
		DeliveryDate *time.Time `json:"delivery_date"`
		Remark       string     `json:"remark"`
		Lines        []struct {
			ItemID    string          `json:"item_id" binding:"required"`
			Qty       decimal.Decimal `json:"qty" binding:"required"`
			UnitPrice decimal.Decimal `json:"unit_price"`
		} `json:"lines" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	lines := make([]service.SOLineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.SOLineRequest{ItemID: l.ItemID, Qty: l.Qty, UnitPrice: l.UnitPrice})
	}
	so, err := h.svc.CreateSO(service.CreateSORequest{
		CustomerID:   req.CustomerID,
		DeliveryDate: req.DeliveryDate,
		Remark:       req.Remark,
		CreatedBy:    currentUser(c),
		Lines:        lines,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": so})
}

func (h *SalesHandler) Get(c *gin.Context) {
	so, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": so})
}

func (h *SalesHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	sos, total, err := h.svc.List(c.Query("status"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": sos, "total": total, "page": page, "size": size}})
}

func (h *SalesHandler) SetStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	so, err := h.svc.SetStatus(c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": so})
}

func (h *SalesHandler) RecordDelivery(c *gin.Context) {
	var req struct {
		ItemID string          `json:"item_id" binding:"required"`
		Qty    decimal.Decimal `json:"qty" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	so, err := h.svc.RecordDelivery(c.Param("id"), req.ItemID, req.Qty)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": so})
}
