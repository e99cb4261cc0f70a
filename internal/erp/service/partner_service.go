package service

import (
	"fmt"
	"slices"

	"github.com/bitfantasy/nimo-erp/internal/erp/entity"
	"github.com/bitfantasy/nimo-erp/internal/erp/repository"
)

var validPartnerTypes = []string{entity.PartnerTypeVendor, entity.PartnerTypeCustomer, entity.PartnerTypeBoth}

// PartnerService 往来单位维护
type PartnerService struct {
	partners *repository.PartnerRepository
}

func NewPartnerService(partners *repository.PartnerRepository) *PartnerService {
	return &PartnerService{partners: partners}
}

func (s *PartnerService) Create(partner *entity.BusinessPartner) (*entity.BusinessPartner, error) {
	if partner.PartnerCode == "" || partner.PartnerName == "" {
		return nil, fmt.Errorf("%w: partner_code and partner_name are required", ErrValidation)
	}
	if !slices.Contains(validPartnerTypes, partner.PartnerType) {
		return nil, fmt.Errorf("%w: unknown partner_type %q", ErrValidation, partner.PartnerType)
	}
	if partner.LeadTimeProductionDays < 0 || partner.LeadTimeTransitDays < 0 {
		return nil, fmt.Errorf("%w: lead times cannot be negative", ErrValidation)
	}
	partner.ID = newID()
	partner.IsActive = true
	if err := s.partners.Create(partner); err != nil {
		return nil, fmt.Errorf("create partner: %w", err)
	}
	return partner, nil
}

func (s *PartnerService) Update(id string, apply func(*entity.BusinessPartner) error) (*entity.BusinessPartner, error) {
	partner, err := s.partners.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("update partner: %w", err)
	}
	if err := apply(partner); err != nil {
		return nil, err
	}
	if !slices.Contains(validPartnerTypes, partner.PartnerType) {
		return nil, fmt.Errorf("%w: unknown partner_type %q", ErrValidation, partner.PartnerType)
	}
	if err := s.partners.Update(partner); err != nil {
		return nil, fmt.Errorf("update partner: %w", err)
	}
	return partner, nil
}

func (s *PartnerService) Get(id string) (*entity.BusinessPartner, error) {
	return s.partners.GetByID(id)
}

func (s *PartnerService) List(partnerType string, page, size int) ([]entity.BusinessPartner, int64, error) {
	return s.partners.List(partnerType, page, size)
}
