package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Topic and event type constants for the voucher engine's outbound stream.
const (
	TopicVoucherEvents = "voucher.events"

	VoucherActivated      = "voucher.activated"
	WinnerConfirmed       = "voucher.winner_confirmed"
	VoucherBatchGenerated = "voucher.batch_generated"
)

// CloudEvent is the lightweight envelope all engine events travel in.
type CloudEvent struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

// NewCloudEvent wraps a payload in a CloudEvent envelope.
func NewCloudEvent(source, eventType string, data any) (CloudEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return CloudEvent{}, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return CloudEvent{
		ID:     uuid.NewString(),
		Source: source,
		Type:   eventType,
		Time:   time.Now().UTC(),
		Data:   raw,
	}, nil
}

// ParseData unmarshals the event payload into the given value.
func (e CloudEvent) ParseData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// VoucherActivatedEvent is published after a successful redemption commits.
type VoucherActivatedEvent struct {
	Code       string    `json:"code"`
	CampaignID uuid.UUID `json:"campaign_id"`
	BrandID    uuid.UUID `json:"brand_id"`
	UserID     uuid.UUID `json:"user_id"`
	ChatID     string    `json:"chat_id"`
	Eligible   bool      `json:"eligible"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WinnerConfirmedEvent is published after a winner confirmation commits.
type WinnerConfirmedEvent struct {
	Code       string    `json:"code"`
	VoucherID  uuid.UUID `json:"voucher_id"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// VoucherBatchGeneratedEvent is published after a generation batch completes.
type VoucherBatchGeneratedEvent struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	BrandID    uuid.UUID `json:"brand_id"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}
