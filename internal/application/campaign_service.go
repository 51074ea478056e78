package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vostok-promo/service-voucher/internal/domain"
	campaignDomain "github.com/vostok-promo/service-voucher/internal/domain/campaign"
)

// CreateCampaignRequest holds data to create a campaign.
type CreateCampaignRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	StartAt     string `json:"startAt" binding:"required"`
	EndAt       string `json:"endAt" binding:"required"`
	SumPerUnit  int64  `json:"sumPerUnit"`
	MinVouchers int    `json:"minVouchers" binding:"required"`
	MinBrands   int    `json:"minBrands" binding:"required"`
}

// UpdateCampaignRequest holds administrative edits to a campaign.
type UpdateCampaignRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	StartAt     string `json:"startAt" binding:"required"`
	EndAt       string `json:"endAt" binding:"required"`
	SumPerUnit  int64  `json:"sumPerUnit"`
	MinVouchers int    `json:"minVouchers" binding:"required"`
	MinBrands   int    `json:"minBrands" binding:"required"`
	Active      bool   `json:"active"`
}

// CampaignDTO is the API representation of a campaign.
type CampaignDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	SumPerUnit  int64     `json:"sumPerUnit"`
	MinVouchers int       `json:"minVouchers"`
	MinBrands   int       `json:"minBrands"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CampaignService handles campaign administration.
type CampaignService struct {
	repo   campaignDomain.Repository
	logger *zap.Logger
}

// NewCampaignService creates a CampaignService.
func NewCampaignService(repo campaignDomain.Repository, logger *zap.Logger) *CampaignService {
	return &CampaignService{repo: repo, logger: logger}
}

// Create creates a new campaign.
func (s *CampaignService) Create(ctx context.Context, req CreateCampaignRequest) (*CampaignDTO, error) {
	startAt, endAt, err := parseWindow(req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}

	camp, err := campaignDomain.NewCampaign(req.Title, req.Description, startAt, endAt, req.SumPerUnit, req.MinVouchers, req.MinBrands)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, camp); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created", zap.String("title", camp.Title()))
	return toCampaignDTO(camp), nil
}

// Update applies administrative edits, including threshold and active-flag changes.
func (s *CampaignService) Update(ctx context.Context, id uuid.UUID, req UpdateCampaignRequest) (*CampaignDTO, error) {
	camp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	startAt, endAt, err := parseWindow(req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}
	if err := camp.Update(req.Title, req.Description, startAt, endAt, req.SumPerUnit, req.MinVouchers, req.MinBrands, req.Active); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, camp); err != nil {
		return nil, err
	}
	return toCampaignDTO(camp), nil
}

// Deactivate turns the campaign off instead of deleting it; vouchers keep
// referencing it.
func (s *CampaignService) Deactivate(ctx context.Context, id uuid.UUID) (*CampaignDTO, error) {
	camp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	camp.Deactivate()
	if err := s.repo.Update(ctx, camp); err != nil {
		return nil, err
	}
	s.logger.Info("campaign deactivated", zap.String("title", camp.Title()))
	return toCampaignDTO(camp), nil
}

// Get returns one campaign.
func (s *CampaignService) Get(ctx context.Context, id uuid.UUID) (*CampaignDTO, error) {
	camp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCampaignDTO(camp), nil
}

// GetActive returns the currently active campaign, or nil when none is.
func (s *CampaignService) GetActive(ctx context.Context) (*CampaignDTO, error) {
	camp, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if camp == nil {
		return nil, nil
	}
	return toCampaignDTO(camp), nil
}

// ListAll returns every campaign.
func (s *CampaignService) ListAll(ctx context.Context) ([]*CampaignDTO, error) {
	campaigns, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]*CampaignDTO, len(campaigns))
	for i, c := range campaigns {
		dtos[i] = toCampaignDTO(c)
	}
	return dtos, nil
}

func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	startAt, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, domain.New(domain.ReasonValidation, "invalid startAt format (use RFC3339)")
	}
	endAt, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, domain.New(domain.ReasonValidation, "invalid endAt format (use RFC3339)")
	}
	return startAt, endAt, nil
}

func toCampaignDTO(c *campaignDomain.Campaign) *CampaignDTO {
	return &CampaignDTO{
		ID:          c.ID(),
		Title:       c.Title(),
		Description: c.Description(),
		StartAt:     c.StartAt(),
		EndAt:       c.EndAt(),
		SumPerUnit:  c.SumPerUnit(),
		MinVouchers: c.MinVouchers(),
		MinBrands:   c.MinBrands(),
		Active:      c.Active(),
		CreatedAt:   c.CreatedAt(),
	}
}
