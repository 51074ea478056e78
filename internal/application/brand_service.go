package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	brandDomain "github.com/vostok-promo/service-voucher/internal/domain/brand"
)

// CreateBrandRequest holds data to create a brand.
type CreateBrandRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// UpdateBrandRequest holds edits to a brand.
type UpdateBrandRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// BrandDTO is the API representation of a brand.
type BrandDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// BrandService handles brand administration.
type BrandService struct {
	repo   brandDomain.Repository
	logger *zap.Logger
}

// NewBrandService creates a BrandService.
func NewBrandService(repo brandDomain.Repository, logger *zap.Logger) *BrandService {
	return &BrandService{repo: repo, logger: logger}
}

// Create creates a brand with a unique slug.
func (s *BrandService) Create(ctx context.Context, req CreateBrandRequest) (*BrandDTO, error) {
	b, err := brandDomain.NewBrand(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info("brand created", zap.String("slug", b.Slug()))
	return toBrandDTO(b), nil
}

// Update edits a brand's name and optionally its slug.
func (s *BrandService) Update(ctx context.Context, id uuid.UUID, req UpdateBrandRequest) (*BrandDTO, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Rename(req.Name, req.Slug); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return toBrandDTO(b), nil
}

// Delete removes a brand; refused while vouchers reference it.
func (s *BrandService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// ListAll returns every brand.
func (s *BrandService) ListAll(ctx context.Context) ([]*BrandDTO, error) {
	brands, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]*BrandDTO, len(brands))
	for i, b := range brands {
		dtos[i] = toBrandDTO(b)
	}
	return dtos, nil
}

func toBrandDTO(b *brandDomain.Brand) *BrandDTO {
	return &BrandDTO{
		ID:        b.ID(),
		Name:      b.Name(),
		Slug:      b.Slug(),
		CreatedAt: b.CreatedAt(),
	}
}
