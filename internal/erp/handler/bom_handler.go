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

type BOMHandler struct {
	svc       *service.BOMService
	explosion *service.ExplosionService
}

func NewBOMHandler(svc *service.BOMService, explosion *service.ExplosionService) *BOMHandler {
	return &BOMHandler{svc: svc, explosion: explosion}
}

func (h *BOMHandler) CreateLine(c *gin.Context) {
	var req struct {
		ParentItemID           string           `json:"parent_item_id" binding:"required"`
		ChildItemID            string           `json:"child_item_id" binding:"required"`
		BOMType                string           `json:"bom_type"`
		Revision               int              `json:"revision"`
		SequenceOrder          int              `json:"sequence_order"`
		Quantity               decimal.Decimal  `json:"quantity"`
		Percentage             *decimal.Decimal `json:"percentage"`
		ScrapFactor            decimal.Decimal  `json:"scrap_factor"`
		IsOptional             bool             `json:"is_optional"`
		IsByproduct            bool             `json:"is_byproduct"`
		ProductionLeadTimeDays decimal.Decimal  `json:"production_lead_time_days"`
		Remark                 string           `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	line, err := h.svc.CreateLine(service.CreateLineRequest{
		ParentItemID: req.ParentItemID,
		ChildItemID:  req.ChildItemID,
		BOMType:      req.BOMType,
		Revision:     req.Revision,
		CreatedBy:    currentUser(c),
		Line: entity.BOMLine{
			SequenceOrder:          req.SequenceOrder,
			Quantity:               req.Quantity,
			Percentage:             req.Percentage,
			ScrapFactor:            req.ScrapFactor,
			IsOptional:             req.IsOptional,
			IsByproduct:            req.IsByproduct,
			ProductionLeadTimeDays: req.ProductionLeadTimeDays,
			Remark:                 req.Remark,
		},
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": line})
}

func (h *BOMHandler) UpdateLine(c *gin.Context) {
	var req service.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	line, err := h.svc.UpdateLine(c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": line})
}

func (h *BOMHandler) DeleteLine(c *gin.Context) {
	if err := h.svc.DeleteLine(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *BOMHandler) DeleteBOM(c *gin.Context) {
	revision, _ := strconv.Atoi(c.DefaultQuery("revision", "0"))
	deleted, err := h.svc.DeleteBOM(c.Param("item_id"), revision)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"deleted": deleted}})
}

func (h *BOMHandler) GetBOM(c *gin.Context) {
	revision, _ := strconv.Atoi(c.DefaultQuery("revision", "0"))
	lines, resolved, err := h.svc.GetBOM(c.Param("item_id"), revision)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"revision": resolved, "lines": lines}})
}

func (h *BOMHandler) Search(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "100"))
	revision, _ := strconv.Atoi(c.DefaultQuery("revision", "0"))
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	lines, err := h.svc.Search(repository.BOMSearchParams{
		ParentItemID:    c.Query("parent_item_id"),
		BOMType:         c.Query("bom_type"),
		Status:          c.Query("status"),
		Revision:        revision,
		IncludeInactive: includeInactive,
		Page:            page,
		Size:            size,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": lines})
}

func (h *BOMHandler) ListParents(c *gin.Context) {
	items, err := h.svc.ListParents()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": items})
}

func (h *BOMHandler) ListRevisions(c *gin.Context) {
	infos, err := h.svc.ListRevisions(c.Param("item_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": infos})
}

func (h *BOMHandler) CreateRevision(c *gin.Context) {
	var req struct {
		CopyFromRevision int    `json:"copy_from_revision"`
		Remark           string `json:"remark"`
	}
	c.ShouldBindJSON(&req)
	revision, err := h.svc.CreateRevision(c.Param("item_id"), req.CopyFromRevision, currentUser(c), req.Remark)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"revision": revision}})
}

func (h *BOMHandler) SetRevisionStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	revision, err := strconv.Atoi(c.Param("revision"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "invalid revision"})
		return
	}
	if err := h.svc.SetRevisionStatus(c.Param("item_id"), revision, req.Status); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *BOMHandler) CopyBOM(c *gin.Context) {
	var req struct {
		SourceItemID string `json:"source_item_id" binding:"required"`
		TargetItemID string `json:"target_item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	revision, copied, err := h.svc.CopyBOM(req.SourceItemID, req.TargetItemID, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"revision": revision, "copied": copied}})
}

func (h *BOMHandler) Explode(c *gin.Context) {
	var req struct {
		Quantity          decimal.Decimal `json:"quantity" binding:"required"`
		Revision          int             `json:"revision"`
		IncludeOptional   bool            `json:"include_optional"`
		IncludeByproducts bool            `json:"include_byproducts"`
		MaxLevels         int             `json:"max_levels"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	result, err := h.explosion.Explode(service.ExplosionRequest{
		ParentItemID:      c.Param("item_id"),
		Quantity:          req.Quantity,
		Revision:          req.Revision,
		IncludeOptional:   req.IncludeOptional,
		IncludeByproducts: req.IncludeByproducts,
		MaxLevels:         req.MaxLevels,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": result})
}
