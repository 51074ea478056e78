package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vostok-promo/service-voucher/internal/domain"
	userDomain "github.com/vostok-promo/service-voucher/internal/domain/user"
)

// UserModel is the GORM persistence model for the users table.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatID    string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name      string    `gorm:"type:varchar(255)"`
	Phone     string    `gorm:"type:varchar(32)"`
	Language  string    `gorm:"type:varchar(8);not null;default:'RU'"`
	BotStep   string    `gorm:"type:varchar(64)"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (UserModel) TableName() string { return "users" }

// GormUserRepository implements user.Repository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Save persists a new user.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Newf(domain.ReasonConflict, "user with chat id %q already exists", u.ChatID())
		}
		return err
	}
	return nil
}

// Update persists changes to an existing user.
func (r *GormUserRepository) Update(ctx context.Context, u *userDomain.User) error {
	model := toUserModel(u)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID returns a user by ID.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(domain.ReasonUserNotFound, "user", id.String())
		}
		return nil, err
	}
	return toUserDomain(&model), nil
}

// FindByChatID returns a user by external chat handle.
func (r *GormUserRepository) FindByChatID(ctx context.Context, chatID string) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError(domain.ReasonUserNotFound, "user", chatID)
		}
		return nil, err
	}
	return toUserDomain(&model), nil
}

// FindAll returns a filtered, paginated page of users plus the total count.
func (r *GormUserRepository) FindAll(ctx context.Context, filter userDomain.ListFilter) ([]*userDomain.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&UserModel{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR phone LIKE ?", pattern, pattern)
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

	var models []UserModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*userDomain.User, len(models))
	for i := range models {
		users[i] = toUserDomain(&models[i])
	}
	return users, total, nil
}

func toUserModel(u *userDomain.User) UserModel {
	return UserModel{
		ID:        u.ID(),
		ChatID:    u.ChatID(),
		Name:      u.Name(),
		Phone:     u.Phone(),
		Language:  u.Language(),
		BotStep:   u.BotStep(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

func toUserDomain(m *UserModel) *userDomain.User {
	return userDomain.Reconstruct(
		m.ID, m.ChatID, m.Name, m.Phone, m.Language, m.BotStep,
		m.CreatedAt, m.UpdatedAt,
	)
}
