package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vostok-promo/service-voucher/internal/domain"
	campaignDomain "github.com/vostok-promo/service-voucher/internal/domain/campaign"
)

// CampaignModel is the GORM persistence model for the campaigns table.
type CampaignModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	StartAt     time.Time `gorm:"type:timestamptz;not null"`
	EndAt       time.Time `gorm:"type:timestamptz;not null"`
	SumPerUnit  int64     `gorm:"not null;default:0"`
	MinVouchers int       `gorm:"not null;default:1"`
	MinBrands   int       `gorm:"not null;default:1"`
	Active      bool      `gorm:"not null;default:true;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (CampaignModel) TableName() string { return "campaigns" }

// GormCampaignRepository implements campaign.Repository using GORM.
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GORM-based campaign repository.
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// Save persists a new campaign.
func (r *GormCampaignRepository) Save(ctx context.Context, c *campaignDomain.Campaign) error {
	model := toCampaignModel(c)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists administrative edits to a campaign.
func (r *GormCampaignRepository) Update(ctx context.Context, c *campaignDomain.Campaign) error {
	model := toCampaignModel(c)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID returns a campaign by ID.
func (r *GormCampaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*campaignDomain.Campaign, error) {
	var model CampaignModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(domain.ReasonCampaignNotFound, "campaign", id.String())
		}
		return nil, err
	}
	return toCampaignDomain(&model), nil
}

// FindActive returns the currently active campaign, or nil when none is.
func (r *GormCampaignRepository) FindActive(ctx context.Context) (*campaignDomain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toCampaignDomain(&model), nil
}

// FindAll returns every campaign, newest first.
func (r *GormCampaignRepository) FindAll(ctx context.Context) ([]*campaignDomain.Campaign, error) {
	var models []CampaignModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	campaigns := make([]*campaignDomain.Campaign, len(models))
	for i := range models {
		campaigns[i] = toCampaignDomain(&models[i])
	}
	return campaigns, nil
}

func toCampaignModel(c *campaignDomain.Campaign) CampaignModel {
	return CampaignModel{
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
		UpdatedAt:   c.UpdatedAt(),
	}
}

func toCampaignDomain(m *CampaignModel) *campaignDomain.Campaign {
	return campaignDomain.Reconstruct(
		m.ID, m.Title, m.Description, m.StartAt, m.EndAt,
		m.SumPerUnit, m.MinVouchers, m.MinBrands, m.Active,
		m.CreatedAt, m.UpdatedAt,
	)
}
