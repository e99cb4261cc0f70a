package handler

import (
	"errors"
	"net/http"

	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// Handlers ERP HTTP处理器集合
type Handlers struct {
	Item          *ItemHandler
	Partner       *PartnerHandler
	BOM           *BOMHandler
	Planning      *PlanningHandler
	Manufacturing *ManufacturingHandler
	Inventory     *InventoryHandler
	Sales         *SalesHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Item:          NewItemHandler(services.Item),
		Partner:       NewPartnerHandler(services.Partner),
		BOM:           NewBOMHandler(services.BOM, services.Explosion),
		Planning:      NewPlanningHandler(services.Planning),
		Manufacturing: NewManufacturingHandler(services.Manufacturing),
		Inventory:     NewInventoryHandler(services.Inventory),
		Sales:         NewSalesHandler(services.Sales),
	}
}

// fail 按错误类别映射HTTP状态码与业务码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"code": 10004, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func currentUser(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if s, ok := userID.(string); ok {
		return s
	}
	return ""
}
