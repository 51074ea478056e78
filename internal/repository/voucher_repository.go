package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vostok-promo/service-voucher/internal/domain"
	voucherDomain "github.com/vostok-promo/service-voucher/internal/domain/voucher"
)

// VoucherModel is the GORM persistence model for the vouchers table.
type VoucherModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code        string     `gorm:"type:varchar(16);uniqueIndex;not null"`
	CampaignID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	BrandID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID      *uuid.UUID `gorm:"type:uuid;index"`
	Status      string     `gorm:"type:varchar(16);not null;default:'FREE';index"`
	ActivatedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (VoucherModel) TableName() string { return "vouchers" }

// WinnerModel is the GORM persistence model for the winners table. The unique
// index on VoucherID enforces at most one winner per voucher.
type WinnerModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	VoucherID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (WinnerModel) TableName() string { return "winners" }

// ActivationLogModel is the GORM persistence model for the append-only
// activation_logs table.
type ActivationLogModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatID    string    `gorm:"type:varchar(64);index"`
	Code      string    `gorm:"type:varchar(16);index"`
	Success   bool      `gorm:"not null"`
	Reason    string    `gorm:"type:varchar(32)"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (ActivationLogModel) TableName() string { return "activation_logs" }

// GormVoucherRepository implements voucher.Repository using GORM.
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GORM-based voucher repository.
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// Insert persists a new voucher. A unique-index violation on the code column
// surfaces as voucher.ErrDuplicateCode so the generator can redraw.
func (r *GormVoucherRepository) Insert(ctx context.Context, v *voucherDomain.Voucher) error {
	model := toVoucherModel(v)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return voucherDomain.ErrDuplicateCode
		}
		return err
	}
	return nil
}

// FindByCode resolves a voucher by its code.
func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*voucherDomain.Voucher, error) {
	var model VoucherModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, voucherDomain.ErrNotFound
		}
		return nil, err
	}
	return toVoucherDomain(&model), nil
}

// Transition persists the voucher's new state with a conditional UPDATE
// guarded on the state it was loaded in. Losing a race means zero rows
// changed; the caller gets the business error for that transition.
func (r *GormVoucherRepository) Transition(ctx context.Context, v *voucherDomain.Voucher, from voucherDomain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&VoucherModel{}).
		Where("id = ? AND status = ?", v.ID(), string(from)).
		Updates(map[string]any{
			"status":       string(v.Status()),
			"user_id":      v.UserID(),
			"activated_at": v.ActivatedAt(),
			"updated_at":   v.UpdatedAt(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if from == voucherDomain.StatusFree {
			return voucherDomain.ErrAlreadyActivated
		}
		return domain.NewInvalidStateError(string(from), string(v.Status()))
	}
	return nil
}

// ConfirmWinner applies ACTIVATED -> USED and inserts the winner row in one
// transaction. Either both commit or neither does.
func (r *GormVoucherRepository) ConfirmWinner(ctx context.Context, v *voucherDomain.Voucher, w *voucherDomain.Winner) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&VoucherModel{}).
			Where("id = ? AND status = ?", v.ID(), string(voucherDomain.StatusActivated)).
			Updates(map[string]any{
				"status":     string(voucherDomain.StatusUsed),
				"updated_at": v.UpdatedAt(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewInvalidStateError(string(voucherDomain.StatusActivated), string(voucherDomain.StatusUsed))
		}

		winner := WinnerModel{ID: w.ID, VoucherID: w.VoucherID, CreatedAt: w.CreatedAt}
		if err := tx.Create(&winner).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return voucherDomain.ErrWinnerExists
			}
			return err
		}
		return nil
	})
}

// FindActivatedByUser returns the user's ACTIVATED vouchers in a campaign.
func (r *GormVoucherRepository) FindActivatedByUser(ctx context.Context, userID, campaignID uuid.UUID) ([]*voucherDomain.Voucher, error) {
	var models []VoucherModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND campaign_id = ? AND status = ?", userID, campaignID, string(voucherDomain.StatusActivated)).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return toVoucherDomainSlice(models), nil
}

// ResetAllByUser voids every ACTIVATED voucher held by the user.
func (r *GormVoucherRepository) ResetAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&VoucherModel{}).
		Where("user_id = ? AND status = ?", userID, string(voucherDomain.StatusActivated)).
		Updates(map[string]any{
			"status":       string(voucherDomain.StatusDeleted),
			"user_id":      nil,
			"activated_at": nil,
			"updated_at":   time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// CountByBrand reports how many vouchers reference the brand.
func (r *GormVoucherRepository) CountByBrand(ctx context.Context, brandID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&VoucherModel{}).
		Where("brand_id = ?", brandID).
		Count(&count).Error
	return count, err
}

// List returns a filtered, paginated page of vouchers plus the total count.
func (r *GormVoucherRepository) List(ctx context.Context, filter voucherDomain.ListFilter) ([]*voucherDomain.Voucher, int64, error) {
	query := r.db.WithContext(ctx).Model(&VoucherModel{})
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Code != "" {
		query = query.Where("code ILIKE ?", "%"+filter.Code+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	var models []VoucherModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return toVoucherDomainSlice(models), total, nil
}

// GormActivationLogRepository implements the append-only audit log port.
type GormActivationLogRepository struct {
	db *gorm.DB
}

// NewGormActivationLogRepository creates a new GORM-based activation log repository.
func NewGormActivationLogRepository(db *gorm.DB) *GormActivationLogRepository {
	return &GormActivationLogRepository{db: db}
}

// Append inserts one log entry. Entries are never updated or deleted.
func (r *GormActivationLogRepository) Append(ctx context.Context, entry *voucherDomain.ActivationLog) error {
	model := ActivationLogModel{
		ID:        entry.ID,
		ChatID:    entry.ChatID,
		Code:      entry.Code,
		Success:   entry.Success,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func toVoucherModel(v *voucherDomain.Voucher) VoucherModel {
	return VoucherModel{
		ID:          v.ID(),
		Code:        v.Code(),
		CampaignID:  v.CampaignID(),
		BrandID:     v.BrandID(),
		UserID:      v.UserID(),
		Status:      string(v.Status()),
		ActivatedAt: v.ActivatedAt(),
		CreatedAt:   v.CreatedAt(),
		UpdatedAt:   v.UpdatedAt(),
	}
}

func toVoucherDomain(m *VoucherModel) *voucherDomain.Voucher {
	return voucherDomain.Reconstruct(
		m.ID, m.Code, m.CampaignID, m.BrandID, m.UserID,
		voucherDomain.Status(m.Status), m.ActivatedAt,
		m.CreatedAt, m.UpdatedAt,
	)
}

func toVoucherDomainSlice(models []VoucherModel) []*voucherDomain.Voucher {
	vouchers := make([]*voucherDomain.Voucher, len(models))
	for i := range models {
		vouchers[i] = toVoucherDomain(&models[i])
	}
	return vouchers
}
