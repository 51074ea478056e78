package voucher

import (
	"time"

	"github.com/google/uuid"
)

// Winner is the permanent record created when a redeemed voucher is confirmed
// as a prize winner. At most one winner exists per voucher, enforced by a
// uniqueness constraint on the voucher reference.
type Winner struct {
	ID        uuid.UUID
	VoucherID uuid.UUID
	CreatedAt time.Time
}

// NewWinner creates a winner record for the given voucher.
func NewWinner(voucherID uuid.UUID) *Winner {
	return &Winner{
		ID:        uuid.New(),
		VoucherID: voucherID,
		CreatedAt: time.Now().UTC(),
	}
}
