package handler

import (
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/service"
	"github.com/gin-gonic/gin"
)

type PartnerHandler struct {
	svc *service.PartnerService
}

func NewPartnerHandler(svc *service.PartnerService) *PartnerHandler {
	return &PartnerHandler{svc: svc}
}

func (h *PartnerHandler) Create(c *gin.Context) {
	var req struct {
		PartnerCode            string `json:"partner_code" binding:"required"`
		PartnerName            string `json:"partner_name" binding:"required"`
		PartnerType            string `json:"partner_type" binding:"required"`
		LeadTimeProductionDays int    `json:"lead_time_production_days"`
		LeadTimeTransitDays    int    `json:"lead_time_transit_days"`
		ContactName            string `json:"contact_name"`
		ContactInfo            string `json:"contact_info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	partner, err := h.svc.Create(&entity.BusinessPartner{
		PartnerCode:            req.PartnerCode,
		PartnerName:            req.PartnerName,
		PartnerType:            req.PartnerType,
		LeadTimeProductionDays: req.LeadTimeProductionDays,
		LeadTimeTransitDays:    req.LeadTimeTransitDays,
		ContactName:            req.ContactName,
		ContactInfo:            req.ContactInfo,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": partner})
}

func (h *PartnerHandler) Get(c *gin.Context) {
	partner, err := h.svc.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": partner})
}

func (h *PartnerHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	partners, total, err := h.svc.List(c.Query("partner_type"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": partners, "total": total, "page": page, "size": size}})
}

func (h *PartnerHandler) Update(c *gin.Context) {
	var req struct {
		PartnerName            *string `json:"partner_name"`
		PartnerType            *string `json:"partner_type"`
		LeadTimeProductionDays *int    `json:"lead_time_production_days"`
		LeadTimeTransitDays    *int    `json:"lead_time_transit_days"`
		ContactName            *string `json:"contact_name"`
		ContactInfo            *string `json:"contact_info"`
		IsActive               *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	partner, err := h.svc.Update(c.Param("id"), func(p *entity.BusinessPartner) error {
		if req.PartnerName != nil {
			p.PartnerName = *req.PartnerName
		}
		if req.PartnerType != nil {
			p.PartnerType = *req.PartnerType
		}
		if req.LeadTimeProductionDays != nil {
			p.LeadTimeProductionDays = *req.LeadTimeProductionDays
		}
		if req.LeadTimeTransitDays != nil {
			p.LeadTimeTransitDays = *req.LeadTimeTransitDays
		}
		if req.ContactName != nil {
			p.ContactName = *req.ContactName
		}
		if req.ContactInfo != nil {
			p.ContactInfo = *req.ContactInfo
		}
		if req.IsActive != nil {
			p.IsActive = *req.IsActive
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": partner})
}
