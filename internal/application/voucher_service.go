package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vostok-promo/service-voucher/internal/domain"
	brandDomain "github.com/vostok-promo/service-voucher/internal/domain/brand"
	campaignDomain "github.com/vostok-promo/service-voucher/internal/domain/campaign"
	userDomain "github.com/vostok-promo/service-voucher/internal/domain/user"
	voucherDomain "github.com/vostok-promo/service-voucher/internal/domain/voucher"
	"github.com/vostok-promo/service-voucher/internal/events"
	"github.com/vostok-promo/service-voucher/internal/metrics"
)

// maxCodeRedraws bounds collision retries for a single code. With a 32^7 code
// space this is never reached in practice.
const maxCodeRedraws = 100

// ActivateCodeRequest is the bot-surface payload for redeeming a code.
type ActivateCodeRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Code   string `json:"code" binding:"required"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

// GenerateVouchersRequest triggers batch code generation.
type GenerateVouchersRequest struct {
	CampaignID uuid.UUID `json:"campaignId" binding:"required"`
	BrandID    uuid.UUID `json:"brandId" binding:"required"`
	Count      int       `json:"count" binding:"required"`
}

// BrandCountDTO is one brand's share of a user's activated vouchers.
type BrandCountDTO struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

// ActivationResultDTO is returned after a successful redemption, carrying the
// freshly recomputed eligibility verdict.
type ActivationResultDTO struct {
	OK            bool            `json:"ok"`
	Code          string          `json:"code"`
	TotalVouchers int             `json:"totalVouchers"`
	BrandCount    int             `json:"brandCount"`
	Brands        []BrandCountDTO `json:"brands"`
	Eligible      bool            `json:"eligible"`
}

// GeneratedVoucherDTO describes one freshly generated code.
type GeneratedVoucherDTO struct {
	Code          string `json:"code"`
	BrandName     string `json:"brandName"`
	CampaignTitle string `json:"campaignTitle"`
}

// VoucherDTO is the admin-surface representation of a voucher.
type VoucherDTO struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	Campaign    string     `json:"campaign"`
	Brand       string     `json:"brand"`
	UserID      *uuid.UUID `json:"userId,omitempty"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CodeSnapshotDTO is the read-only lookup result for a code.
type CodeSnapshotDTO struct {
	Found   bool              `json:"found"`
	Voucher *SnapshotVoucher  `json:"voucher,omitempty"`
	User    *SnapshotUser     `json:"user,omitempty"`
	Stats   *SnapshotStats    `json:"stats,omitempty"`
}

// SnapshotVoucher is the voucher part of a code snapshot.
type SnapshotVoucher struct {
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	Brand       string     `json:"brand"`
	Campaign    string     `json:"campaign"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
}

// SnapshotUser is the owning-user part of a code snapshot.
type SnapshotUser struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name,omitempty"`
	Phone  string    `json:"phone,omitempty"`
	ChatID string    `json:"chatId"`
}

// SnapshotStats is the eligibility part of a code snapshot, evaluated against
// the voucher's own campaign.
type SnapshotStats struct {
	TotalVouchers int  `json:"totalVouchers"`
	BrandCount    int  `json:"brandCount"`
	Eligible      bool `json:"eligible"`
}

// WinnerDTO is returned after a winner confirmation.
type WinnerDTO struct {
	OK     bool      `json:"ok"`
	Code   string    `json:"code"`
	UserID uuid.UUID `json:"userId"`
}

// VoucherService owns the voucher lifecycle: generation, activation, lookup,
// winner confirmation and administrative resets.
type VoucherService struct {
	vouchers     voucherDomain.Repository
	activations  voucherDomain.ActivationLogRepository
	campaigns    campaignDomain.Repository
	brands       brandDomain.Repository
	users        userDomain.Repository
	publisher    events.Publisher
	maxBatchSize int
	codeLength   int
	logger       *zap.Logger
}

// NewVoucherService creates a VoucherService.
func NewVoucherService(
	vouchers voucherDomain.Repository,
	activations voucherDomain.ActivationLogRepository,
	campaigns campaignDomain.Repository,
	brands brandDomain.Repository,
	users userDomain.Repository,
	publisher events.Publisher,
	maxBatchSize int,
	codeLength int,
	logger *zap.Logger,
) *VoucherService {
	if maxBatchSize <= 0 {
		maxBatchSize = 10000
	}
	if codeLength <= 0 {
		codeLength = voucherDomain.DefaultCodeLength
	}
	return &VoucherService{
		vouchers:     vouchers,
		activations:  activations,
		campaigns:    campaigns,
		brands:       brands,
		users:        users,
		publisher:    publisher,
		maxBatchSize: maxBatchSize,
		codeLength:   codeLength,
		logger:       logger,
	}
}

// Generate creates a batch of FREE vouchers for a campaign and brand. Code
// collisions, including ones lost to a concurrent generator, are retried with
// a fresh draw.
func (s *VoucherService) Generate(ctx context.Context, req GenerateVouchersRequest) ([]GeneratedVoucherDTO, error) {
	if req.Count < 1 || req.Count > s.maxBatchSize {
		return nil, domain.Newf(domain.ReasonValidation, "count must be between 1 and %d", s.maxBatchSize)
	}

	camp, err := s.campaigns.FindByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	br, err := s.brands.FindByID(ctx, req.BrandID)
	if err != nil {
		return nil, err
	}

	generated := make([]GeneratedVoucherDTO, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		v, err := s.insertWithFreshCode(ctx, camp.ID(), br.ID())
		if err != nil {
			return nil, err
		}
		generated = append(generated, GeneratedVoucherDTO{
			Code:          v.Code(),
			BrandName:     br.Name(),
			CampaignTitle: camp.Title(),
		})
	}

	metrics.VouchersGenerated.Add(float64(len(generated)))
	s.publishEvent(events.VoucherBatchGenerated, events.VoucherBatchGeneratedEvent{
		CampaignID: camp.ID(),
		BrandID:    br.ID(),
		Count:      len(generated),
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info("voucher batch generated",
		zap.String("campaign", camp.Title()),
		zap.String("brand", br.Slug()),
		zap.Int("count", len(generated)),
	)
	return generated, nil
}

// insertWithFreshCode draws codes until one inserts cleanly. The uniqueness
// constraint on the code column is the arbiter under concurrent generation.
func (s *VoucherService) insertWithFreshCode(ctx context.Context, campaignID, brandID uuid.UUID) (*voucherDomain.Voucher, error) {
	for attempt := 0; attempt < maxCodeRedraws; attempt++ {
		code, err := voucherDomain.GenerateCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		v := voucherDomain.NewVoucher(code, campaignID, brandID)
		err = s.vouchers.Insert(ctx, v)
		if err == nil {
			return v, nil
		}
		if errors.Is(err, voucherDomain.ErrDuplicateCode) {
			metrics.CodeCollisions.Inc()
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("exhausted %d code draws without a unique code", maxCodeRedraws)
}

// Activate redeems a code for the user identified by chat handle. Every
// attempt, successful or not, is recorded in the activation log with its
// outcome before the caller gets a response.
func (s *VoucherService) Activate(ctx context.Context, req ActivateCodeRequest) (*ActivationResultDTO, error) {
	start := time.Now()
	result := "success"
	defer func() {
		metrics.RecordActivationDuration(result, time.Since(start).Seconds())
	}()

	fail := func(reason domain.Reason, err error) (*ActivationResultDTO, error) {
		result = string(reason)
		s.logActivation(ctx, req.ChatID, req.Code, false, string(reason))
		return nil, err
	}

	usr, err := s.findOrCreateUser(ctx, req.ChatID, req.Name, req.Phone)
	if err != nil {
		result = "error"
		return nil, err
	}

	v, err := s.vouchers.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, voucherDomain.ErrNotFound) {
			return fail(domain.ReasonInvalidCode, voucherDomain.ErrInvalidCode)
		}
		result = "error"
		return nil, err
	}

	if v.Status() != voucherDomain.StatusFree {
		return fail(domain.ReasonAlreadyActivated, voucherDomain.ErrAlreadyActivated)
	}

	camp, err := s.campaigns.FindByID(ctx, v.CampaignID())
	if err != nil {
		result = "error"
		return nil, err
	}
	if !camp.Active() {
		return fail(domain.ReasonCampaignInactive, voucherDomain.ErrCampaignInactive)
	}

	now := time.Now().UTC()
	if !camp.AcceptsRedemptions(now) {
		return fail(domain.ReasonCampaignExpired, voucherDomain.ErrCampaignExpired)
	}

	if err := v.Activate(usr.ID(), now); err != nil {
		return fail(domain.ReasonAlreadyActivated, err)
	}
	if err := s.vouchers.Transition(ctx, v, voucherDomain.StatusFree); err != nil {
		// A concurrent request won the FREE -> ACTIVATED race.
		if errors.Is(err, voucherDomain.ErrAlreadyActivated) {
			return fail(domain.ReasonAlreadyActivated, err)
		}
		result = "error"
		return nil, err
	}

	s.logActivation(ctx, req.ChatID, req.Code, true, "")

	participation, brands, err := s.participationFor(ctx, usr.ID(), camp)
	if err != nil {
		result = "error"
		return nil, err
	}

	s.publishEvent(events.VoucherActivated, events.VoucherActivatedEvent{
		Code:       v.Code(),
		CampaignID: camp.ID(),
		BrandID:    v.BrandID(),
		UserID:     usr.ID(),
		ChatID:     usr.ChatID(),
		Eligible:   participation.Eligible,
		OccurredAt: now,
	})

	return &ActivationResultDTO{
		OK:            true,
		Code:          v.Code(),
		TotalVouchers: participation.TotalVouchers,
		BrandCount:    participation.BrandCount,
		Brands:        brands,
		Eligible:      participation.Eligible,
	}, nil
}

// CheckCode is the read-only snapshot query. Eligibility is evaluated against
// the voucher's own campaign, so historical codes stay inspectable after a
// campaign ends.
func (s *VoucherService) CheckCode(ctx context.Context, code string) (*CodeSnapshotDTO, error) {
	v, err := s.vouchers.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, voucherDomain.ErrNotFound) {
			return &CodeSnapshotDTO{Found: false}, nil
		}
		return nil, err
	}

	camp, err := s.campaigns.FindByID(ctx, v.CampaignID())
	if err != nil {
		return nil, err
	}
	br, err := s.brands.FindByID(ctx, v.BrandID())
	if err != nil {
		return nil, err
	}

	snapshot := &CodeSnapshotDTO{
		Found: true,
		Voucher: &SnapshotVoucher{
			Code:        v.Code(),
			Status:      string(v.Status()),
			Brand:       br.Name(),
			Campaign:    camp.Title(),
			ActivatedAt: v.ActivatedAt(),
		},
	}

	if v.UserID() != nil {
		usr, err := s.users.FindByID(ctx, *v.UserID())
		if err != nil {
			return nil, err
		}
		snapshot.User = &SnapshotUser{
			ID:     usr.ID(),
			Name:   usr.Name(),
			Phone:  usr.Phone(),
			ChatID: usr.ChatID(),
		}

		participation, _, err := s.participationFor(ctx, usr.ID(), camp)
		if err != nil {
			return nil, err
		}
		snapshot.Stats = &SnapshotStats{
			TotalVouchers: participation.TotalVouchers,
			BrandCount:    participation.BrandCount,
			Eligible:      participation.Eligible,
		}
	}
	return snapshot, nil
}

// ConfirmWinner promotes an ACTIVATED voucher to USED and records the winner,
// atomically. A second confirmation of the same code is rejected, never
// duplicated.
func (s *VoucherService) ConfirmWinner(ctx context.Context, code string) (*WinnerDTO, error) {
	v, err := s.vouchers.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, voucherDomain.ErrNotFound) {
			return nil, voucherDomain.ErrNotFound
		}
		return nil, err
	}

	// An ACTIVATED voucher always carries attribution; a row without it
	// cannot produce a winner.
	userID := v.UserID()
	if userID == nil {
		return nil, domain.NewInvalidStateError(string(v.Status()), string(voucherDomain.StatusUsed))
	}
	if err := v.MarkUsed(); err != nil {
		return nil, err
	}

	winner := voucherDomain.NewWinner(v.ID())
	if err := s.vouchers.ConfirmWinner(ctx, v, winner); err != nil {
		return nil, err
	}

	metrics.WinnersConfirmed.Inc()
	s.publishEvent(events.WinnerConfirmed, events.WinnerConfirmedEvent{
		Code:       v.Code(),
		VoucherID:  v.ID(),
		UserID:     *userID,
		OccurredAt: time.Now().UTC(),
	})

	s.logger.Info("winner confirmed",
		zap.String("code", v.Code()),
		zap.String("user_id", userID.String()),
	)
	return &WinnerDTO{OK: true, Code: v.Code(), UserID: *userID}, nil
}

// ResetVoucher voids a single redemption (ACTIVATED -> DELETED).
func (s *VoucherService) ResetVoucher(ctx context.Context, code string) error {
	v, err := s.vouchers.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if err := v.Reset(); err != nil {
		return err
	}
	return s.vouchers.Transition(ctx, v, voucherDomain.StatusActivated)
}

// ResetUserVouchers voids every ACTIVATED voucher held by the user, returning
// how many were reset.
func (s *VoucherService) ResetUserVouchers(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.vouchers.ResetAllByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("user vouchers reset",
		zap.String("user_id", userID.String()),
		zap.Int64("count", count),
	)
	return count, nil
}

// List returns a filtered page of vouchers for the admin surface.
func (s *VoucherService) List(ctx context.Context, filter voucherDomain.ListFilter) ([]*VoucherDTO, int64, error) {
	vouchers, total, err := s.vouchers.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos, err := s.toVoucherDTOs(ctx, vouchers)
	if err != nil {
		return nil, 0, err
	}
	return dtos, total, nil
}

// Export returns every voucher matching the filter, unpaginated, for CSV export.
func (s *VoucherService) Export(ctx context.Context, campaignID, brandID *uuid.UUID) ([]*VoucherDTO, error) {
	filter := voucherDomain.ListFilter{
		CampaignID: campaignID,
		BrandID:    brandID,
		Page:       1,
		Limit:      1000000,
	}
	vouchers, _, err := s.vouchers.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.toVoucherDTOs(ctx, vouchers)
}

// participationFor recomputes the user's eligibility against the given
// campaign from current voucher state. Never cached.
func (s *VoucherService) participationFor(ctx context.Context, userID uuid.UUID, camp *campaignDomain.Campaign) (campaignDomain.Participation, []BrandCountDTO, error) {
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

	names, err := s.brandNames(ctx)
	if err != nil {
		return campaignDomain.Participation{}, nil, err
	}
	brands := make([]BrandCountDTO, 0, len(perBrand))
	for id, count := range perBrand {
		brands = append(brands, BrandCountDTO{Brand: names[id], Count: count})
	}

	return camp.EvaluateParticipation(brandIDs), brands, nil
}

func (s *VoucherService) brandNames(ctx context.Context) (map[uuid.UUID]string, error) {
	all, err := s.brands.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(all))
	for _, b := range all {
		names[b.ID()] = b.Name()
	}
	return names, nil
}

func (s *VoucherService) toVoucherDTOs(ctx context.Context, vouchers []*voucherDomain.Voucher) ([]*VoucherDTO, error) {
	brandNames, err := s.brandNames(ctx)
	if err != nil {
		return nil, err
	}
	allCampaigns, err := s.campaigns.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	campaignTitles := make(map[uuid.UUID]string, len(allCampaigns))
	for _, c := range allCampaigns {
		campaignTitles[c.ID()] = c.Title()
	}

	dtos := make([]*VoucherDTO, len(vouchers))
	for i, v := range vouchers {
		dtos[i] = &VoucherDTO{
			ID:          v.ID(),
			Code:        v.Code(),
			Status:      string(v.Status()),
			Campaign:    campaignTitles[v.CampaignID()],
			Brand:       brandNames[v.BrandID()],
			UserID:      v.UserID(),
			ActivatedAt: v.ActivatedAt(),
			CreatedAt:   v.CreatedAt(),
		}
	}
	return dtos, nil
}

// findOrCreateUser resolves the user by chat handle, creating them on first
// contact. Name and phone merge first-write-wins.
func (s *VoucherService) findOrCreateUser(ctx context.Context, chatID, name, phone string) (*userDomain.User, error) {
	usr, err := s.users.FindByChatID(ctx, chatID)
	if err == nil {
		if usr.MergeContact(name, phone) {
			if err := s.users.Update(ctx, usr); err != nil {
				return nil, err
			}
		}
		return usr, nil
	}

	if !domain.HasReason(err, domain.ReasonUserNotFound) {
		return nil, err
	}

	usr, err = userDomain.NewUser(chatID, name, phone)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, usr); err != nil {
		// A concurrent first contact created the row; use theirs.
		if domain.HasReason(err, domain.ReasonConflict) {
			return s.users.FindByChatID(ctx, chatID)
		}
		return nil, err
	}
	return usr, nil
}

// logActivation appends an audit entry. Failures are logged, not propagated;
// the log write must never mask the business outcome.
func (s *VoucherService) logActivation(ctx context.Context, chatID, code string, success bool, reason string) {
	entry := voucherDomain.NewActivationLog(chatID, code, success, reason)
	if err := s.activations.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append activation log",
			zap.String("code", code),
			zap.Bool("success", success),
			zap.Error(err),
		)
	}
}

func (s *VoucherService) publishEvent(eventType string, data any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.TopicVoucherEvents, eventType, data); err != nil {
		s.logger.Warn("failed to publish engine event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
