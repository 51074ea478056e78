package domain

import (
	"errors"
	"fmt"
)

// Reason is a machine-readable code for a business rule violation. Reasons are
// part of the engine's contract: callers (the bot front-end, the admin UI)
// branch on them to pick user-facing copy.
type Reason string

const (
	ReasonInvalidCode      Reason = "INVALID_CODE"
	ReasonAlreadyActivated Reason = "ALREADY_ACTIVATED"
	ReasonCampaignInactive Reason = "CAMPAIGN_INACTIVE"
	ReasonCampaignExpired  Reason = "CAMPAIGN_EXPIRED"
	ReasonCampaignNotFound Reason = "CAMPAIGN_NOT_FOUND"
	ReasonBrandNotFound    Reason = "BRAND_NOT_FOUND"
	ReasonVoucherNotFound  Reason = "VOUCHER_NOT_FOUND"
	ReasonUserNotFound     Reason = "USER_NOT_FOUND"
	ReasonInvalidState     Reason = "INVALID_STATE"
	ReasonConflict         Reason = "CONFLICT"
	ReasonValidation       Reason = "VALIDATION"
	ReasonUnauthorized     Reason = "UNAUTHORIZED"
)

// Error is a recoverable business error. It is never used for infrastructure
// failures; those propagate as plain wrapped errors.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is matches two domain errors by reason, so sentinel values like
// voucher.ErrAlreadyActivated work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

// New creates a business error with the given reason code.
func New(reason Reason, message string) *Error {
	return &Error{Reason: reason, Message: message}
}

// Newf creates a business error with a formatted message.
func Newf(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// HasReason reports whether err is a business error with the given reason.
func HasReason(err error, reason Reason) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.Reason == reason
}

// NewNotFoundError creates a not-found error for the given entity kind.
func NewNotFoundError(reason Reason, entity, key string) *Error {
	return Newf(reason, "%s %q not found", entity, key)
}

// NewInvalidStateError reports an illegal state transition.
func NewInvalidStateError(from, to string) *Error {
	return Newf(ReasonInvalidState, "cannot transition from %s to %s", from, to)
}
