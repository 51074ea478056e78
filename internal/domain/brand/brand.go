package brand

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vostok-promo/service-voucher/internal/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Brand is a merchant vouchers are issued by. Referenced by vouchers as the
// redemption source.
type Brand struct {
	id        uuid.UUID
	name      string
	slug      string
	createdAt time.Time
	updatedAt time.Time
}

// NewBrand creates a brand with a validated, unique slug.
func NewBrand(name, slug string) (*Brand, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" {
		return nil, domain.New(domain.ReasonValidation, "brand name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, domain.New(domain.ReasonValidation, "brand slug must be lowercase letters, digits and dashes")
	}

	now := time.Now().UTC()
	return &Brand{
		id:        uuid.New(),
		name:      name,
		slug:      slug,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Brand from persistence.
func Reconstruct(id uuid.UUID, name, slug string, createdAt, updatedAt time.Time) *Brand {
	return &Brand{id: id, name: name, slug: slug, createdAt: createdAt, updatedAt: updatedAt}
}

func (b *Brand) ID() uuid.UUID        { return b.id }
func (b *Brand) Name() string         { return b.name }
func (b *Brand) Slug() string         { return b.slug }
func (b *Brand) CreatedAt() time.Time { return b.createdAt }
func (b *Brand) UpdatedAt() time.Time { return b.updatedAt }

// Rename updates the display name and optionally the slug.
func (b *Brand) Rename(name, slug string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.New(domain.ReasonValidation, "brand name is required")
	}
	if slug != "" {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if !slugPattern.MatchString(slug) {
			return domain.New(domain.ReasonValidation, "brand slug must be lowercase letters, digits and dashes")
		}
		b.slug = slug
	}
	b.name = name
	b.updatedAt = time.Now().UTC()
	return nil
}
