package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	brandDomain "github.com/vostok-promo/service-voucher/internal/domain/brand"
	campaignDomain "github.com/vostok-promo/service-voucher/internal/domain/campaign"
	userDomain "github.com/vostok-promo/service-voucher/internal/domain/user"
	voucherDomain "github.com/vostok-promo/service-voucher/internal/domain/voucher"
)

// UserStatsDTO is a user's standing in the currently active campaign.
type UserStatsDTO struct {
	Found         bool            `json:"found"`
	TotalVouchers int             `json:"totalVouchers"`
	BrandCount    int             `json:"brandCount"`
	Brands        []BrandCountDTO `json:"brands"`
	Eligible      bool            `json:"eligible"`
	CampaignTitle string          `json:"campaignTitle,omitempty"`
}

// UserDTO is the admin-surface representation of a user with computed stats.
type UserDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	ChatID        string    `json:"chatId"`
	Language      string    `json:"language"`
	CreatedAt     time.Time `json:"createdAt"`
	TotalVouchers int       `json:"totalVouchers"`
	BrandCount    int       `json:"brandCount"`
	Eligible      bool      `json:"eligible"`
}

// ListUsersRequest narrows the admin user listing.
type ListUsersRequest struct {
	Search     string
	Eligible   *bool
	CampaignID *uuid.UUID
	Page       int
	Limit      int
}

// TargetFilter selects broadcast recipients by threshold distance.
type TargetFilter struct {
	Eligible     *bool
	MinVouchers  *int
	MaxRemaining *int
}

// TargetUserDTO is one broadcast recipient with remaining-threshold info.
type TargetUserDTO struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	ChatID            string    `json:"chatId"`
	Language          string    `json:"lang"`
	TotalVouchers     int       `json:"totalVouchers"`
	BrandCount        int       `json:"brandCount"`
	RemainingVouchers int       `json:"remainingVouchers"`
	RemainingBrands   int       `json:"remainingBrands"`
	Eligible          bool      `json:"eligible"`
}

// DashboardStatsDTO is the admin dashboard summary, recomputed on every call.
type DashboardStatsDTO struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalVouchers     int64 `json:"totalVouchers"`
	ActivatedVouchers int64 `json:"activatedVouchers"`
	ActiveCampaigns   int   `json:"activeCampaigns"`
	TotalBrands       int   `json:"totalBrands"`
}

// UserService serves eligibility stats, the admin user listing and broadcast
// targeting. All stats are recomputed from current state on every call.
type UserService struct {
	users     userDomain.Repository
	vouchers  voucherDomain.Repository
	campaigns campaignDomain.Repository
	brands    brandDomain.Repository
	logger    *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	users userDomain.Repository,
	vouchers voucherDomain.Repository,
	campaigns campaignDomain.Repository,
	brands brandDomain.Repository,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:     users,
		vouchers:  vouchers,
		campaigns: campaigns,
		brands:    brands,
		logger:    logger,
	}
}

// GetStats returns the user's participation in the active campaign. When no
// campaign is active there is nothing to evaluate against: stats are zeroed
// and eligibility is false.
func (s *UserService) GetStats(ctx context.Context, chatID string) (*UserStatsDTO, error) {
	usr, err := s.users.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	camp, err := s.campaigns.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if camp == nil {
		return &UserStatsDTO{Found: true, Brands: []BrandCountDTO{}}, nil
	}

	participation, brands, err := s.participation(ctx, usr.ID(), camp)
	if err != nil {
		return nil, err
	}
	return &UserStatsDTO{
		Found:         true,
		TotalVouchers: participation.TotalVouchers,
		BrandCount:    participation.BrandCount,
		Brands:        brands,
		Eligible:      participation.Eligible,
		CampaignTitle: camp.Title(),
	}, nil
}

// List returns a page of users enriched with their stats in the given (or
// active) campaign, optionally filtered by eligibility.
func (s *UserService) List(ctx context.Context, req ListUsersRequest) ([]*UserDTO, int64, error) {
	users, total, err := s.users.FindAll(ctx, userDomain.ListFilter{
		Search: req.Search,
		Page:   req.Page,
		Limit:  req.Limit,
	})
	if err != nil {
		return nil, 0, err
	}

	var camp *campaignDomain.Campaign
	if req.CampaignID != nil {
		camp, err = s.campaigns.FindByID(ctx, *req.CampaignID)
	} else {
		camp, err = s.campaigns.FindActive(ctx)
	}
	if err != nil {
		return nil, 0, err
	}

	dtos := make([]*UserDTO, 0, len(users))
	for _, u := range users {
		dto := &UserDTO{
			ID:        u.ID(),
			Name:      u.Name(),
			Phone:     u.Phone(),
			ChatID:    u.ChatID(),
			Language:  u.Language(),
			CreatedAt: u.CreatedAt(),
		}
		if camp != nil {
			participation, _, err := s.participation(ctx, u.ID(), camp)
			if err != nil {
				return nil, 0, err
			}
			dto.TotalVouchers = participation.TotalVouchers
			dto.BrandCount = participation.BrandCount
			dto.Eligible = participation.Eligible
		}
		if req.Eligible != nil && dto.Eligible != *req.Eligible {
			continue
		}
		dtos = append(dtos, dto)
	}
	return dtos, total, nil
}

// TargetUsers returns broadcast recipients for the active campaign, filtered
// by threshold distance. Read-only; mutates no eligibility state.
func (s *UserService) TargetUsers(ctx context.Context, filter TargetFilter) ([]*TargetUserDTO, error) {
	camp, err := s.campaigns.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if camp == nil {
		return []*TargetUserDTO{}, nil
	}

	users, _, err := s.users.FindAll(ctx, userDomain.ListFilter{Page: 1, Limit: 1000000})
	if err != nil {
		return nil, err
	}

	targets := make([]*TargetUserDTO, 0)
	for _, u := range users {
		participation, _, err := s.participation(ctx, u.ID(), camp)
		if err != nil {
			return nil, err
		}
		// Users with no redemptions yet are not broadcast targets.
		if participation.TotalVouchers == 0 {
			continue
		}
		if filter.Eligible != nil && participation.Eligible != *filter.Eligible {
			continue
		}
		if filter.MinVouchers != nil && participation.TotalVouchers < *filter.MinVouchers {
			continue
		}
		if filter.MaxRemaining != nil && participation.RemainingVouchers > *filter.MaxRemaining {
			continue
		}
		targets = append(targets, &TargetUserDTO{
			ID:                u.ID(),
			Name:              u.Name(),
			Phone:             u.Phone(),
			ChatID:            u.ChatID(),
			Language:          u.Language(),
			TotalVouchers:     participation.TotalVouchers,
			BrandCount:        participation.BrandCount,
			RemainingVouchers: participation.RemainingVouchers,
			RemainingBrands:   participation.RemainingBrands,
			Eligible:          participation.Eligible,
		})
	}
	return targets, nil
}

// DashboardStats returns the headline counts for the admin dashboard.
func (s *UserService) DashboardStats(ctx context.Context) (*DashboardStatsDTO, error) {
	_, totalUsers, err := s.users.FindAll(ctx, userDomain.ListFilter{Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}
	_, totalVouchers, err := s.vouchers.List(ctx, voucherDomain.ListFilter{Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}
	activated := voucherDomain.StatusActivated
	_, activatedVouchers, err := s.vouchers.List(ctx, voucherDomain.ListFilter{Status: &activated, Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}
	campaigns, err := s.campaigns.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	activeCampaigns := 0
	for _, c := range campaigns {
		if c.Active() {
			activeCampaigns++
		}
	}
	brands, err := s.brands.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStatsDTO{
		TotalUsers:        totalUsers,
		TotalVouchers:     totalVouchers,
		ActivatedVouchers: activatedVouchers,
		ActiveCampaigns:   activeCampaigns,
		TotalBrands:       len(brands),
	}, nil
}

// UpdateLanguage records the bot front-end's language preference for a user.
func (s *UserService) UpdateLanguage(ctx context.Context, chatID, language string) error {
	usr, err := s.users.FindByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	usr.SetLanguage(language)
	return s.users.Update(ctx, usr)
}

// UpdateBotStep records the bot front-end's conversation-step marker.
func (s *UserService) UpdateBotStep(ctx context.Context, chatID, step string) error {
	usr, err := s.users.FindByChatID(ctx, chatID)
	if err != nil {
		return err
	}
	usr.SetBotStep(step)
	return s.users.Update(ctx, usr)
}

func (s *UserService) participation(ctx context.Context, userID uuid.UUID, camp *campaignDomain.Campaign) (campaignDomain.Participation, []BrandCountDTO, error) {
	activated, err := s.vouchers.FindActivatedByUser(ctx, userID, camp.ID())
	if err != nil {
		return campaignDomain.Participation{}, nil, err
	}

	brandIDs := make([]uuid.UUID, len(activated))
	perBrand := make(map[uuid.UUID]int)
	for i, v := range activated {
		brandIDs[i] = v.BrandID()
		perBrand[v.BrandID()]++
	}

	brands := make([]BrandCountDTO, 0, len(perBrand))
	if len(perBrand) > 0 {
		all, err := s.brands.FindAll(ctx)
		if err != nil {
			return campaignDomain.Participation{}, nil, err
		}
		names := make(map[uuid.UUID]string, len(all))
		for _, b := range all {
			names[b.ID()] = b.Name()
		}
		for id, count := range perBrand {
			brands = append(brands, BrandCountDTO{Brand: names[id], Count: count})
		}
	}

	return camp.EvaluateParticipation(brandIDs), brands, nil
}
