package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vostok-promo/service-voucher/internal/domain"
	brandDomain "github.com/vostok-promo/service-voucher/internal/domain/brand"
)

// BrandModel is the GORM persistence model for the brands table.
type BrandModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (BrandModel) TableName() string { return "brands" }

// GormBrandRepository implements brand.Repository using GORM.
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GORM-based brand repository.
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// Save persists a new brand. A duplicate slug surfaces as a conflict.
func (r *GormBrandRepository) Save(ctx context.Context, b *brandDomain.Brand) error {
	model := toBrandModel(b)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Newf(domain.ReasonConflict, "brand slug %q already exists", b.Slug())
		}
		return err
	}
	return nil
}

// Update persists edits to a brand.
func (r *GormBrandRepository) Update(ctx context.Context, b *brandDomain.Brand) error {
	model := toBrandModel(b)
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Newf(domain.ReasonConflict, "brand slug %q already exists", b.Slug())
		}
		return err
	}
	return nil
}

// FindByID returns a brand by ID.
func (r *GormBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*brandDomain.Brand, error) {
	var model BrandModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(domain.ReasonBrandNotFound, "brand", id.String())
		}
		return nil, err
	}
	return toBrandDomain(&model), nil
}

// FindBySlug returns a brand by its unique slug.
func (r *GormBrandRepository) FindBySlug(ctx context.Context, slug string) (*brandDomain.Brand, error) {
	var model BrandModel
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(domain.ReasonBrandNotFound, "brand", slug)
		}
		return nil, err
	}
	return toBrandDomain(&model), nil
}

// FindAll returns every brand sorted by name.
func (r *GormBrandRepository) FindAll(ctx context.Context) ([]*brandDomain.Brand, error) {
	var models []BrandModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	brands := make([]*brandDomain.Brand, len(models))
	for i := range models {
		brands[i] = toBrandDomain(&models[i])
	}
	return brands, nil
}

// Delete removes a brand, refusing while vouchers still reference it so
// voucher source attribution is never silently orphaned.
func (r *GormBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var referenced int64
		if err := tx.Model(&VoucherModel{}).Where("brand_id = ?", id).Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return domain.Newf(domain.ReasonConflict, "brand has %d vouchers and cannot be deleted", referenced)
		}
		result := tx.Where("id = ?", id).Delete(&BrandModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError(domain.ReasonBrandNotFound, "brand", id.String())
		}
		return nil
	})
}

func toBrandModel(b *brandDomain.Brand) BrandModel {
	return BrandModel{
		ID:        b.ID(),
		Name:      b.Name(),
		Slug:      b.Slug(),
		CreatedAt: b.CreatedAt(),
		UpdatedAt: b.UpdatedAt(),
	}
}

func toBrandDomain(m *BrandModel) *brandDomain.Brand {
	return brandDomain.Reconstruct(m.ID, m.Name, m.Slug, m.CreatedAt, m.UpdatedAt)
}
