package campaign

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vostok-promo/service-voucher/internal/domain"
)

// Campaign is the aggregate root for a time-boxed promotion. Vouchers
// reference it; it is never physically deleted, only deactivated.
type Campaign struct {
	id          uuid.UUID
	title       string
	description string
	startAt     time.Time
	endAt       time.Time
	sumPerUnit  int64
	minVouchers int
	minBrands   int
	active      bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewCampaign creates a campaign, validating its redemption window and thresholds.
func NewCampaign(title, description string, startAt, endAt time.Time, sumPerUnit int64, minVouchers, minBrands int) (*Campaign, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.New(domain.ReasonValidation, "campaign title is required")
	}
	if !startAt.Before(endAt) {
		return nil, domain.New(domain.ReasonValidation, "campaign start must be before end")
	}
	if minVouchers < 1 {
		return nil, domain.New(domain.ReasonValidation, "min vouchers must be at least 1")
	}
	if minBrands < 1 {
		return nil, domain.New(domain.ReasonValidation, "min brands must be at least 1")
	}

	now := time.Now().UTC()
	return &Campaign{
		id:          uuid.New(),
		title:       title,
		description: description,
		startAt:     startAt,
		endAt:       endAt,
		sumPerUnit:  sumPerUnit,
		minVouchers: minVouchers,
		minBrands:   minBrands,
		active:      true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Campaign from persistence.
func Reconstruct(id uuid.UUID, title, description string, startAt, endAt time.Time, sumPerUnit int64, minVouchers, minBrands int, active bool, createdAt, updatedAt time.Time) *Campaign {
	return &Campaign{
		id: id, title: title, description: description,
		startAt: startAt, endAt: endAt, sumPerUnit: sumPerUnit,
		minVouchers: minVouchers, minBrands: minBrands, active: active,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (c *Campaign) ID() uuid.UUID       { return c.id }
func (c *Campaign) Title() string       { return c.title }
func (c *Campaign) Description() string { return c.description }
func (c *Campaign) StartAt() time.Time  { return c.startAt }
func (c *Campaign) EndAt() time.Time    { return c.endAt }
func (c *Campaign) SumPerUnit() int64   { return c.sumPerUnit }
func (c *Campaign) MinVouchers() int    { return c.minVouchers }
func (c *Campaign) MinBrands() int      { return c.minBrands }
func (c *Campaign) Active() bool        { return c.active }
func (c *Campaign) CreatedAt() time.Time { return c.createdAt }
func (c *Campaign) UpdatedAt() time.Time { return c.updatedAt }

// AcceptsRedemptions reports whether the campaign accepts redemptions at the
// given instant: it must be active and `now` must fall inside its window.
// Re-evaluated on every redemption; campaigns can be deactivated between
// requests.
func (c *Campaign) AcceptsRedemptions(now time.Time) bool {
	return c.active && !now.Before(c.startAt) && !now.After(c.endAt)
}

// Update applies administrative edits. The window invariant is re-checked.
func (c *Campaign) Update(title, description string, startAt, endAt time.Time, sumPerUnit int64, minVouchers, minBrands int, active bool) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.New(domain.ReasonValidation, "campaign title is required")
	}
	if !startAt.Before(endAt) {
		return domain.New(domain.ReasonValidation, "campaign start must be before end")
	}
	if minVouchers < 1 || minBrands < 1 {
		return domain.New(domain.ReasonValidation, "thresholds must be at least 1")
	}
	c.title = title
	c.description = description
	c.startAt = startAt
	c.endAt = endAt
	c.sumPerUnit = sumPerUnit
	c.minVouchers = minVouchers
	c.minBrands = minBrands
	c.active = active
	c.updatedAt = time.Now().UTC()
	return nil
}

// Deactivate turns the campaign off. Campaigns are never deleted.
func (c *Campaign) Deactivate() {
	c.active = false
	c.updatedAt = time.Now().UTC()
}
