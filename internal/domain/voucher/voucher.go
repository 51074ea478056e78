package voucher

import (
	"time"

	"github.com/google/uuid"

	"github.com/vostok-promo/service-voucher/internal/domain"
)

// Status is the lifecycle state of a voucher code.
type Status string

const (
	// StatusFree is the initial state of a generated code.
	StatusFree Status = "FREE"
	// StatusActivated means a user has redeemed the code.
	StatusActivated Status = "ACTIVATED"
	// StatusUsed means the code was confirmed as a prize winner. Terminal.
	StatusUsed Status = "USED"
	// StatusDeleted means an administrator voided the redemption. Terminal.
	StatusDeleted Status = "DELETED"
)

// Sentinel business errors for the voucher lifecycle.
var (
	ErrInvalidCode      = domain.New(domain.ReasonInvalidCode, "code not found")
	ErrAlreadyActivated = domain.New(domain.ReasonAlreadyActivated, "code already activated")
	ErrCampaignInactive = domain.New(domain.ReasonCampaignInactive, "campaign is not active")
	ErrCampaignExpired  = domain.New(domain.ReasonCampaignExpired, "campaign window is closed")
	ErrNotFound         = domain.New(domain.ReasonVoucherNotFound, "voucher not found")
	ErrDuplicateCode    = domain.New(domain.ReasonConflict, "voucher code already exists")
	ErrWinnerExists     = domain.New(domain.ReasonConflict, "winner already recorded for voucher")
)

// Voucher is the aggregate root for a single-use code. The code string never
// changes after creation; only the state machine advances the status.
type Voucher struct {
	id          uuid.UUID
	code        string
	campaignID  uuid.UUID
	brandID     uuid.UUID
	userID      *uuid.UUID
	status      Status
	activatedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewVoucher creates a voucher in the FREE state for the given campaign and brand.
func NewVoucher(code string, campaignID, brandID uuid.UUID) *Voucher {
	now := time.Now().UTC()
	return &Voucher{
		id:         uuid.New(),
		code:       code,
		campaignID: campaignID,
		brandID:    brandID,
		status:     StatusFree,
		createdAt:  now,
		updatedAt:  now,
	}
}

// Reconstruct rebuilds a Voucher from persistence.
func Reconstruct(id uuid.UUID, code string, campaignID, brandID uuid.UUID, userID *uuid.UUID, status Status, activatedAt *time.Time, createdAt, updatedAt time.Time) *Voucher {
	return &Voucher{
		id: id, code: code, campaignID: campaignID, brandID: brandID,
		userID: userID, status: status, activatedAt: activatedAt,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (v *Voucher) ID() uuid.UUID          { return v.id }
func (v *Voucher) Code() string           { return v.code }
func (v *Voucher) CampaignID() uuid.UUID  { return v.campaignID }
func (v *Voucher) BrandID() uuid.UUID     { return v.brandID }
func (v *Voucher) UserID() *uuid.UUID     { return v.userID }
func (v *Voucher) Status() Status         { return v.status }
func (v *Voucher) ActivatedAt() *time.Time { return v.activatedAt }
func (v *Voucher) CreatedAt() time.Time   { return v.createdAt }
func (v *Voucher) UpdatedAt() time.Time   { return v.updatedAt }

// Activate applies FREE -> ACTIVATED, binding the voucher to a user.
func (v *Voucher) Activate(userID uuid.UUID, now time.Time) error {
	if v.status != StatusFree {
		return ErrAlreadyActivated
	}
	now = now.UTC()
	v.status = StatusActivated
	v.userID = &userID
	v.activatedAt = &now
	v.updatedAt = now
	return nil
}

// MarkUsed applies ACTIVATED -> USED. Only winner confirmation calls this.
func (v *Voucher) MarkUsed() error {
	if v.status != StatusActivated {
		return domain.NewInvalidStateError(string(v.status), string(StatusUsed))
	}
	now := time.Now().UTC()
	v.status = StatusUsed
	v.updatedAt = now
	return nil
}

// Reset applies ACTIVATED -> DELETED, voiding the redemption. The row keeps
// its code, campaign and brand; user attribution and activation time are
// cleared so the voucher contributes nothing to eligibility.
func (v *Voucher) Reset() error {
	if v.status != StatusActivated {
		return domain.NewInvalidStateError(string(v.status), string(StatusDeleted))
	}
	v.status = StatusDeleted
	v.userID = nil
	v.activatedAt = nil
	v.updatedAt = time.Now().UTC()
	return nil
}
