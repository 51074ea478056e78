package voucher

import (
	"time"

	"github.com/google/uuid"
)

// ActivationLog is an append-only record of one redemption attempt. Entries
// are never updated or deleted.
type ActivationLog struct {
	ID        uuid.UUID
	ChatID    string
	Code      string
	Success   bool
	Reason    string // empty on success, otherwise the domain reason code
	CreatedAt time.Time
}

// NewActivationLog creates a log entry for a redemption attempt.
func NewActivationLog(chatID, code string, success bool, reason string) *ActivationLog {
	return &ActivationLog{
		ID:        uuid.New(),
		ChatID:    chatID,
		Code:      code,
		Success:   success,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}
