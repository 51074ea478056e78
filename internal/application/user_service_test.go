package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vostok-promo/service-voucher/internal/domain"
	userDomain "github.com/vostok-promo/service-voucher/internal/domain/user"
	voucherDomain "github.com/vostok-promo/service-voucher/internal/domain/voucher"
)

type userFixture struct {
	*voucherFixture
	svc *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	vf := newVoucherFixture(t)
	return &userFixture{
		voucherFixture: vf,
		svc:            NewUserService(vf.users, vf.vouchers, vf.campaigns, vf.brands, zap.NewNop()),
	}
}

// activateFor seeds a FREE voucher and redeems it for the chat handle.
func (f *userFixture) activateFor(t *testing.T, chatID, code string, brandID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	vsvc := f.voucherFixture.svc
	v := voucherDomain.NewVoucher(code, f.campaign.ID(), brandID)
	require.NoError(t, f.vouchers.Insert(ctx, v))
	_, err := vsvc.Activate(ctx, ActivateCodeRequest{ChatID: chatID, Code: code})
	require.NoError(t, err)
}

func TestGetStats(t *testing.T) {
	f := newUserFixture(t)
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())
	f.activateFor(t, "chat-1", "BBBBBBB", f.brandB.ID())

	stats, err := f.svc.GetStats(context.Background(), "chat-1")
	require.NoError(t, err)

	assert.True(t, stats.Found)
	assert.Equal(t, 2, stats.TotalVouchers)
	assert.Equal(t, 2, stats.BrandCount)
	assert.True(t, stats.Eligible)
	assert.Equal(t, "Autumn promo", stats.CampaignTitle)
	assert.Len(t, stats.Brands, 2)
}

func TestGetStats_UnknownUser(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.GetStats(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, domain.HasReason(err, domain.ReasonUserNotFound))
}

func TestGetStats_NoActiveCampaign(t *testing.T) {
	f := newUserFixture(t)
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())
	f.campaign.Deactivate()
	require.NoError(t, f.campaigns.Update(context.Background(), f.campaign))

	stats, err := f.svc.GetStats(context.Background(), "chat-1")
	require.NoError(t, err)

	assert.True(t, stats.Found)
	assert.Zero(t, stats.TotalVouchers)
	assert.Zero(t, stats.BrandCount)
	assert.False(t, stats.Eligible)
	assert.Empty(t, stats.CampaignTitle)
}

func TestListUsers_EligibleFilter(t *testing.T) {
	f := newUserFixture(t)
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())
	f.activateFor(t, "chat-1", "BBBBBBB", f.brandB.ID())
	f.activateFor(t, "chat-2", "CCCCCCC", f.brandA.ID())

	eligible := true
	dtos, _, err := f.svc.List(context.Background(), ListUsersRequest{Eligible: &eligible, Page: 1, Limit: 50})
	require.NoError(t, err)

	require.Len(t, dtos, 1)
	assert.Equal(t, "chat-1", dtos[0].ChatID)
	assert.True(t, dtos[0].Eligible)
	assert.Equal(t, 2, dtos[0].TotalVouchers)
}

func TestTargetUsers_SkipsUsersWithoutRedemptions(t *testing.T) {
	f := newUserFixture(t)
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())

	idle, err := userDomain.NewUser("chat-idle", "", "")
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), idle))

	targets, err := f.svc.TargetUsers(context.Background(), TargetFilter{})
	require.NoError(t, err)

	require.Len(t, targets, 1)
	assert.Equal(t, "chat-1", targets[0].ChatID)
	assert.Equal(t, 1, targets[0].TotalVouchers)
	assert.Equal(t, 1, targets[0].RemainingVouchers)
	assert.Equal(t, 1, targets[0].RemainingBrands)
	assert.False(t, targets[0].Eligible)
}

func TestTargetUsers_ThresholdDistanceFilters(t *testing.T) {
	f := newUserFixture(t)
	// chat-1 qualifies; chat-2 holds a single redemption.
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())
	f.activateFor(t, "chat-1", "BBBBBBB", f.brandB.ID())
	f.activateFor(t, "chat-2", "CCCCCCC", f.brandA.ID())

	notEligible := false
	targets, err := f.svc.TargetUsers(context.Background(), TargetFilter{Eligible: &notEligible})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "chat-2", targets[0].ChatID)

	minVouchers := 2
	targets, err = f.svc.TargetUsers(context.Background(), TargetFilter{MinVouchers: &minVouchers})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "chat-1", targets[0].ChatID)

	maxRemaining := 0
	targets, err = f.svc.TargetUsers(context.Background(), TargetFilter{MaxRemaining: &maxRemaining})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "chat-1", targets[0].ChatID)
}

func TestTargetUsers_NoActiveCampaign(t *testing.T) {
	f := newUserFixture(t)
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())
	f.campaign.Deactivate()
	require.NoError(t, f.campaigns.Update(context.Background(), f.campaign))

	targets, err := f.svc.TargetUsers(context.Background(), TargetFilter{})
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestDashboardStats(t *testing.T) {
	f := newUserFixture(t)
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())

	// One more code still waiting for redemption.
	free := voucherDomain.NewVoucher("BBBBBBB", f.campaign.ID(), f.brandB.ID())
	require.NoError(t, f.vouchers.Insert(context.Background(), free))

	stats, err := f.svc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.TotalVouchers)
	assert.Equal(t, int64(1), stats.ActivatedVouchers)
	assert.Equal(t, 1, stats.ActiveCampaigns)
	assert.Equal(t, 2, stats.TotalBrands)
}

func TestDashboardStats_CountsOnlyActiveCampaigns(t *testing.T) {
	f := newUserFixture(t)
	f.campaign.Deactivate()
	require.NoError(t, f.campaigns.Update(context.Background(), f.campaign))

	stats, err := f.svc.DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.ActiveCampaigns)
	assert.Equal(t, 2, stats.TotalBrands)
}

func TestUpdateLanguageAndStep(t *testing.T) {
	f := newUserFixture(t)
	f.activateFor(t, "chat-1", "AAAAAAA", f.brandA.ID())

	require.NoError(t, f.svc.UpdateLanguage(context.Background(), "chat-1", "EN"))
	require.NoError(t, f.svc.UpdateBotStep(context.Background(), "chat-1", "awaiting_phone"))

	usr, err := f.users.FindByChatID(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "EN", usr.Language())
	assert.Equal(t, "awaiting_phone", usr.BotStep())
}
