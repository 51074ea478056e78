package campaign

import "github.com/google/uuid"

// Participation is a user's standing in a campaign, recomputed from current
// state on every call and never stored.
type Participation struct {
	TotalVouchers     int
	BrandCount        int
	Eligible          bool
	RemainingVouchers int
	RemainingBrands   int
}

// EvaluateParticipation computes a participation verdict from the brand of
// each of the user's activated vouchers in this campaign (one element per
// voucher, duplicates expected).
func (c *Campaign) EvaluateParticipation(voucherBrands []uuid.UUID) Participation {
	distinct := make(map[uuid.UUID]struct{}, len(voucherBrands))
	for _, b := range voucherBrands {
		distinct[b] = struct{}{}
	}

	total := len(voucherBrands)
	brands := len(distinct)

	remainingVouchers := c.minVouchers - total
	if remainingVouchers < 0 {
		remainingVouchers = 0
	}
	remainingBrands := c.minBrands - brands
	if remainingBrands < 0 {
		remainingBrands = 0
	}

	return Participation{
		TotalVouchers:     total,
		BrandCount:        brands,
		Eligible:          total >= c.minVouchers && brands >= c.minBrands,
		RemainingVouchers: remainingVouchers,
		RemainingBrands:   remainingBrands,
	}
}

// NoParticipation is the zeroed verdict returned when there is no campaign to
// evaluate against.
func NoParticipation() Participation {
	return Participation{}
}
