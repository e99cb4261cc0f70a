package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PlanningHandler struct {
	svc *service.PlanningService
}

func NewPlanningHandler(svc *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{svc: svc}
}

func (h *PlanningHandler) CreatePlan(c *gin.Context) {
	var req struct {
		PlanName     string `json:"plan_name" binding:"required"`
		SourceType   string `json:"source_type"`
		SalesOrderID string `json:"sales_order_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	plan, err := h.svc.CreatePlan(service.CreatePlanRequest{
		PlanName:     req.PlanName,
		SourceType:   req.SourceType,
		SalesOrderID: req.SalesOrderID,
		CreatedBy:    currentUser(c),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": plan})
}

func (h *PlanningHandler) AddItems(c *gin.Context) {
	var req struct {
		Items []struct {
			ItemID       string          `json:"item_id" binding:"required"`
			Quantity     decimal.Decimal `json:"quantity" binding:"required"`
			DeliveryDate *time.Time      `json:"delivery_date"`
		} `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	items := make([]service.PlanItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.PlanItemRequest{
			ItemID:       it.ItemID,
			Quantity:     it.Quantity,
			DeliveryDate: it.DeliveryDate,
		})
	}
	if err := h.svc.AddItems(c.Param("id"), items); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *PlanningHandler) Calculate(c *gin.Context) {
	plan, err := h.svc.Calculate(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": plan})
}

func (h *PlanningHandler) Process(c *gin.Context) {
	plan, err := h.svc.Process(c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": plan})
}

func (h *PlanningHandler) Get(c *gin.Context) {
	plan, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": plan})
}

func (h *PlanningHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	plans, total, err := h.svc.List(page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": plans, "total": total, "page": page, "size": size}})
}

func (h *PlanningHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
}

func (h *PlanningHandler) Results(c *gin.Context) {
	results, err := h.svc.Results(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": results})
}

func (h *PlanningHandler) ListPRs(c *gin.Context) {
	prs, err := h.svc.PRsByPlan(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": prs})
}

func (h *PlanningHandler) ApprovePR(c *gin.Context) {
	pr, err := h.svc.ApprovePR(c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": pr})
}

func (h *PlanningHandler) ConvertPR(c *gin.Context) {
	po, err := h.svc.ConvertPRToPO(c.Param("id"), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": po})
}

func (h *PlanningHandler) GetPO(c *gin.Context) {
	po, err := h.svc.GetPO(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": po})
}

func (h *PlanningHandler) ListPOs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	pos, total, err := h.svc.ListPOs(c.Query("status"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": pos, "total": total, "page": page, "size": size}})
}
