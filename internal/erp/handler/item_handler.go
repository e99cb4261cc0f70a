package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ItemHandler struct {
	svc *service.ItemService
}

func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

func (h *ItemHandler) Create(c *gin.Context) {
	var req struct {
		ItemCode      string          `json:"item_code" binding:"required"`
		ItemName      string          `json:"item_name" binding:"required"`
		ItemType      string          `json:"item_type" binding:"required"`
		UnitOfMeasure string          `json:"unit_of_measure"`
		StandardCost  decimal.Decimal `json:"standard_cost"`
		LotControl    bool            `json:"lot_control"`
		Remark        string          `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.svc.Create(&entity.Item{
		ItemCode:      req.ItemCode,
		ItemName:      req.ItemName,
		ItemType:      req.ItemType,
		UnitOfMeasure: req.UnitOfMeasure,
		StandardCost:  req.StandardCost,
		LotControl:    req.LotControl,
		Remark:        req.Remark,
		CreatedBy:     currentUser(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

func (h *ItemHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	items, total, err := h.svc.List(repository.ItemListParams{
		ItemType: c.Query("item_type"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": items, "total": total, "page": page, "size": size}})
}

func (h *ItemHandler) Update(c *gin.Context) {
	var req struct {
		ItemName      *string          `json:"item_name"`
		ItemType      *string          `json:"item_type"`
		UnitOfMeasure *string          `json:"unit_of_measure"`
		StandardCost  *decimal.Decimal `json:"standard_cost"`
		LotControl    *bool            `json:"lot_control"`
		Remark        *string          `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	item, err := h.svc.Update(c.Param("id"), func(item *entity.Item) error {
		if req.ItemName != nil {
			item.ItemName = *req.ItemName
		}
		if req.ItemType != nil {
			item.ItemType = *req.ItemType
		}
		if req.UnitOfMeasure != nil {
			item.UnitOfMeasure = *req.UnitOfMeasure
		}
		if req.StandardCost != nil {
			item.StandardCost = *req.StandardCost
		}
		if req.LotControl != nil {
			item.LotControl = *req.LotControl
		}
		if req.Remark != nil {
			item.Remark = *req.Remark
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": item})
}

func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.svc.Deactivate(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}
