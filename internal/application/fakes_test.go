package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vostok-promo/service-voucher/internal/domain"
	brandDomain "github.com/vostok-promo/service-voucher/internal/domain/brand"
	campaignDomain "github.com/vostok-promo/service-voucher/internal/domain/campaign"
	userDomain "github.com/vostok-promo/service-voucher/internal/domain/user"
	voucherDomain "github.com/vostok-promo/service-voucher/internal/domain/voucher"
)

// voucherRow is the fake's persisted snapshot of a voucher. Aggregates handed
// out by FindByCode are reconstructed copies, so the snapshot plays the role
// of the database row and Transition arbitrates races the way the conditional
// UPDATE does in production.
type voucherRow struct {
	id          uuid.UUID
	code        string
	campaignID  uuid.UUID
	brandID     uuid.UUID
	userID      *uuid.UUID
	status      voucherDomain.Status
	activatedAt *time.Time
	createdAt   time.Time
}

type fakeVoucherRepo struct {
	mu      sync.Mutex
	rows    map[string]*voucherRow
	winners map[uuid.UUID]*voucherDomain.Winner
}

func newFakeVoucherRepo() *fakeVoucherRepo {
	return &fakeVoucherRepo{
		rows:    make(map[string]*voucherRow),
		winners: make(map[uuid.UUID]*voucherDomain.Winner),
	}
}

func snapshotOf(v *voucherDomain.Voucher) *voucherRow {
	row := &voucherRow{
		id:         v.ID(),
		code:       v.Code(),
		campaignID: v.CampaignID(),
		brandID:    v.BrandID(),
		status:     v.Status(),
		createdAt:  v.CreatedAt(),
	}
	if v.UserID() != nil {
		id := *v.UserID()
		row.userID = &id
	}
	if v.ActivatedAt() != nil {
		at := *v.ActivatedAt()
		row.activatedAt = &at
	}
	return row
}

func (r *voucherRow) aggregate() *voucherDomain.Voucher {
	var userID *uuid.UUID
	if r.userID != nil {
		id := *r.userID
		userID = &id
	}
	var activatedAt *time.Time
	if r.activatedAt != nil {
		at := *r.activatedAt
		activatedAt = &at
	}
	return voucherDomain.Reconstruct(r.id, r.code, r.campaignID, r.brandID, userID, r.status, activatedAt, r.createdAt, r.createdAt)
}

func (f *fakeVoucherRepo) Insert(_ context.Context, v *voucherDomain.Voucher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rows[v.Code()]; exists {
		return voucherDomain.ErrDuplicateCode
	}
	f.rows[v.Code()] = snapshotOf(v)
	return nil
}

func (f *fakeVoucherRepo) FindByCode(_ context.Context, code string) (*voucherDomain.Voucher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[code]
	if !ok {
		return nil, voucherDomain.ErrNotFound
	}
	return row.aggregate(), nil
}

func (f *fakeVoucherRepo) Transition(_ context.Context, v *voucherDomain.Voucher, from voucherDomain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[v.Code()]
	if !ok {
		return voucherDomain.ErrNotFound
	}
	if row.status != from {
		if from == voucherDomain.StatusFree {
			return voucherDomain.ErrAlreadyActivated
		}
		return domain.NewInvalidStateError(string(row.status), string(v.Status()))
	}
	f.rows[v.Code()] = snapshotOf(v)
	return nil
}

func (f *fakeVoucherRepo) ConfirmWinner(_ context.Context, v *voucherDomain.Voucher, w *voucherDomain.Winner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[v.Code()]
	if !ok {
		return voucherDomain.ErrNotFound
	}
	if _, exists := f.winners[v.ID()]; exists {
		return voucherDomain.ErrWinnerExists
	}
	if row.status != voucherDomain.StatusActivated {
		return domain.NewInvalidStateError(string(row.status), string(voucherDomain.StatusUsed))
	}
	f.rows[v.Code()] = snapshotOf(v)
	f.winners[v.ID()] = w
	return nil
}

func (f *fakeVoucherRepo) FindActivatedByUser(_ context.Context, userID, campaignID uuid.UUID) ([]*voucherDomain.Voucher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*voucherDomain.Voucher
	for _, row := range f.rows {
		if row.status == voucherDomain.StatusActivated && row.campaignID == campaignID &&
			row.userID != nil && *row.userID == userID {
			out = append(out, row.aggregate())
		}
	}
	return out, nil
}

func (f *fakeVoucherRepo) ResetAllByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, row := range f.rows {
		if row.status == voucherDomain.StatusActivated && row.userID != nil && *row.userID == userID {
			row.status = voucherDomain.StatusDeleted
			row.userID = nil
			row.activatedAt = nil
			count++
		}
	}
	return count, nil
}

func (f *fakeVoucherRepo) CountByBrand(_ context.Context, brandID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, row := range f.rows {
		if row.brandID == brandID {
			count++
		}
	}
	return count, nil
}

func (f *fakeVoucherRepo) List(_ context.Context, filter voucherDomain.ListFilter) ([]*voucherDomain.Voucher, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*voucherDomain.Voucher
	for _, row := range f.rows {
		if filter.CampaignID != nil && row.campaignID != *filter.CampaignID {
			continue
		}
		if filter.BrandID != nil && row.brandID != *filter.BrandID {
			continue
		}
		if filter.Status != nil && row.status != *filter.Status {
			continue
		}
		if filter.Code != "" && !strings.Contains(strings.ToLower(row.code), strings.ToLower(filter.Code)) {
			continue
		}
		out = append(out, row.aggregate())
	}
	return out, int64(len(out)), nil
}

func (f *fakeVoucherRepo) statusOf(code string) voucherDomain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[code].status
}

func (f *fakeVoucherRepo) winnerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.winners)
}

type fakeActivationLog struct {
	mu      sync.Mutex
	entries []*voucherDomain.ActivationLog
}

func (f *fakeActivationLog) Append(_ context.Context, entry *voucherDomain.ActivationLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeActivationLog) all() []*voucherDomain.ActivationLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*voucherDomain.ActivationLog, len(f.entries))
	copy(out, f.entries)
	return out
}

func (f *fakeActivationLog) last() *voucherDomain.ActivationLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return nil
	}
	return f.entries[len(f.entries)-1]
}

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*campaignDomain.Campaign
	activeID  *uuid.UUID
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[uuid.UUID]*campaignDomain.Campaign)}
}

func (f *fakeCampaignRepo) Save(_ context.Context, c *campaignDomain.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaigns[c.ID()] = c
	if c.Active() {
		id := c.ID()
		f.activeID = &id
	}
	return nil
}

func (f *fakeCampaignRepo) Update(_ context.Context, c *campaignDomain.Campaign) error {
	return f.Save(context.Background(), c)
}

func (f *fakeCampaignRepo) FindByID(_ context.Context, id uuid.UUID) (*campaignDomain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, domain.NewNotFoundError(domain.ReasonCampaignNotFound, "campaign", id.String())
	}
	return c, nil
}

func (f *fakeCampaignRepo) FindActive(_ context.Context) (*campaignDomain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activeID == nil {
		return nil, nil
	}
	c := f.campaigns[*f.activeID]
	if c == nil || !c.Active() {
		return nil, nil
	}
	return c, nil
}

func (f *fakeCampaignRepo) FindAll(_ context.Context) ([]*campaignDomain.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*campaignDomain.Campaign, 0, len(f.campaigns))
	for _, c := range f.campaigns {
		out = append(out, c)
	}
	return out, nil
}

type fakeBrandRepo struct {
	mu     sync.Mutex
	brands map[uuid.UUID]*brandDomain.Brand
}

func newFakeBrandRepo() *fakeBrandRepo {
	return &fakeBrandRepo{brands: make(map[uuid.UUID]*brandDomain.Brand)}
}

func (f *fakeBrandRepo) Save(_ context.Context, b *brandDomain.Brand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brands[b.ID()] = b
	return nil
}

func (f *fakeBrandRepo) Update(_ context.Context, b *brandDomain.Brand) error {
	return f.Save(context.Background(), b)
}

func (f *fakeBrandRepo) FindByID(_ context.Context, id uuid.UUID) (*brandDomain.Brand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.brands[id]
	if !ok {
		return nil, domain.NewNotFoundError(domain.ReasonBrandNotFound, "brand", id.String())
	}
	return b, nil
}

func (f *fakeBrandRepo) FindBySlug(_ context.Context, slug string) (*brandDomain.Brand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.brands {
		if b.Slug() == slug {
			return b, nil
		}
	}
	return nil, domain.NewNotFoundError(domain.ReasonBrandNotFound, "brand", slug)
}

func (f *fakeBrandRepo) FindAll(_ context.Context) ([]*brandDomain.Brand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*brandDomain.Brand, 0, len(f.brands))
	for _, b := range f.brands {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBrandRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.brands, id)
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	byChat map[string]*userDomain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byChat: make(map[string]*userDomain.User)}
}

func (f *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byChat[u.ChatID()]; exists {
		return domain.New(domain.ReasonConflict, "chat id already registered")
	}
	f.byChat[u.ChatID()] = u
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, u *userDomain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byChat[u.ChatID()] = u
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byChat {
		if u.ID() == id {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError(domain.ReasonUserNotFound, "user", id.String())
}

func (f *fakeUserRepo) FindByChatID(_ context.Context, chatID string) (*userDomain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byChat[chatID]
	if !ok {
		return nil, domain.NewNotFoundError(domain.ReasonUserNotFound, "user", chatID)
	}
	return u, nil
}

func (f *fakeUserRepo) FindAll(_ context.Context, filter userDomain.ListFilter) ([]*userDomain.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*userDomain.User
	for _, u := range f.byChat {
		if filter.Search != "" && !strings.Contains(u.Name(), filter.Search) && !strings.Contains(u.ChatID(), filter.Search) {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

type publishedEvent struct {
	topic     string
	eventType string
	data      any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, topic, eventType string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{topic: topic, eventType: eventType, data: data})
	return nil
}

func (f *fakePublisher) byType(eventType string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedEvent
	for _, e := range f.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
