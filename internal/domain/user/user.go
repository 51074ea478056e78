package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vostok-promo/service-voucher/internal/domain"
)

// User is a participant, created lazily on first contact. The chat ID is the
// natural key used by the bot front-end; language and step belong to the
// front-end's conversation state and the engine never interprets them.
type User struct {
	id        uuid.UUID
	chatID    string
	name      string
	phone     string
	language  string
	botStep   string
	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a user keyed by external chat handle.
func NewUser(chatID, name, phone string) (*User, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, domain.New(domain.ReasonValidation, "chat id is required")
	}

	now := time.Now().UTC()
	return &User{
		id:        uuid.New(),
		chatID:    chatID,
		name:      strings.TrimSpace(name),
		phone:     strings.TrimSpace(phone),
		language:  "RU",
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a User from persistence.
func Reconstruct(id uuid.UUID, chatID, name, phone, language, botStep string, createdAt, updatedAt time.Time) *User {
	return &User{
		id: id, chatID: chatID, name: name, phone: phone,
		language: language, botStep: botStep,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) ChatID() string       { return u.chatID }
func (u *User) Name() string         { return u.name }
func (u *User) Phone() string        { return u.phone }
func (u *User) Language() string     { return u.language }
func (u *User) BotStep() string      { return u.botStep }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// MergeContact fills in name and phone first-write-wins: a field that is
// already populated is never overwritten by a later value. Returns true when
// anything changed.
func (u *User) MergeContact(name, phone string) bool {
	changed := false
	if name = strings.TrimSpace(name); name != "" && u.name == "" {
		u.name = name
		changed = true
	}
	if phone = strings.TrimSpace(phone); phone != "" && u.phone == "" {
		u.phone = phone
		changed = true
	}
	if changed {
		u.updatedAt = time.Now().UTC()
	}
	return changed
}

// SetLanguage records the bot front-end's language preference.
func (u *User) SetLanguage(language string) {
	u.language = language
	u.updatedAt = time.Now().UTC()
}

// SetBotStep records the bot front-end's conversation-step marker.
func (u *User) SetBotStep(step string) {
	u.botStep = step
	u.updatedAt = time.Now().UTC()
}
