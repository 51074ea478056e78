package voucher

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows voucher listings for the admin surface.
type ListFilter struct {
	CampaignID *uuid.UUID
	BrandID    *uuid.UUID
	Status     *Status
	Code       string // substring match, case-insensitive
	Page       int
	Limit      int
}

// Repository is the storage port for vouchers. Implementations must enforce a
// uniqueness constraint on the code column and serialize conflicting
// transitions on the same voucher so a code redeems at most once.
type Repository interface {
	// Insert persists a new voucher. Returns ErrDuplicateCode when the code
	// already exists, so generators can redraw.
	Insert(ctx context.Context, v *Voucher) error

	// FindByCode resolves a voucher by its code. Returns ErrNotFound when absent.
	FindByCode(ctx context.Context, code string) (*Voucher, error)

	// Transition persists the voucher's current state, guarded on the state it
	// was loaded in. If a concurrent writer moved the voucher out of `from`
	// first, no row is touched and ErrAlreadyActivated (from FREE) or an
	// invalid-state error is returned.
	Transition(ctx context.Context, v *Voucher, from Status) error

	// ConfirmWinner atomically applies ACTIVATED -> USED and inserts the
	// winner record. Both effects commit together or neither does.
	ConfirmWinner(ctx context.Context, v *Voucher, w *Winner) error

	// FindActivatedByUser returns the user's ACTIVATED vouchers in a campaign.
	FindActivatedByUser(ctx context.Context, userID, campaignID uuid.UUID) ([]*Voucher, error)

	// ResetAllByUser voids every ACTIVATED voucher held by the user,
	// returning how many were reset.
	ResetAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// CountByBrand reports how many vouchers reference the brand. Used to
	// block brand deletion that would orphan attribution.
	CountByBrand(ctx context.Context, brandID uuid.UUID) (int64, error)

	List(ctx context.Context, filter ListFilter) ([]*Voucher, int64, error)
}

// ActivationLogRepository is the append-only audit log port.
type ActivationLogRepository interface {
	Append(ctx context.Context, entry *ActivationLog) error
}
