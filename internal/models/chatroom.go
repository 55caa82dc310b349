package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom is the durable channel between exactly two users.
// User1ID < User2ID always holds, so one row exists per unordered pair.
type ChatRoom struct {
	ID      string `gorm:"primaryKey" json:"id"`
	User1ID string `gorm:"not null;uniqueIndex:idx_room_pair;index:idx_room_user1" json:"user1_id"`
	User2ID string `gorm:"not null;uniqueIndex:idx_room_pair;index:idx_room_user2" json:"user2_id"`

	LastMessage     string     `gorm:"type:text" json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`

	UnreadCountUser1 int `gorm:"not null;default:0" json:"unread_count_user1"`
	UnreadCountUser2 int `gorm:"not null;default:0" json:"unread_count_user2"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID to rooms created without one.
func (r *ChatRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// CanonicalPair orders two participant ids so that lookups and inserts
// agree regardless of which user initiated the chat.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// NewChatRoom builds an unsaved room for the given pair.
func NewChatRoom(a, b string) *ChatRoom {
	u1, u2 := CanonicalPair(a, b)
	return &ChatRoom{User1ID: u1, User2ID: u2}
}

// HasParticipant reports whether userID is one of the two room members.
func (r *ChatRoom) HasParticipant(userID string) bool {
	return userID != "" && (userID == r.User1ID || userID == r.User2ID)
}

// OtherParticipant returns the member that is not userID.
// The second result is false when userID is not a member.
func (r *ChatRoom) OtherParticipant(userID string) (string, bool) {
	switch userID {
	case r.User1ID:
		return r.User2ID, true
	case r.User2ID:
		return r.User1ID, true
	}
	return "", false
}

// UnreadFor returns the unread counter of a participant, 0 for strangers.
func (r *ChatRoom) UnreadFor(userID string) int {
	switch userID {
	case r.User1ID:
		return r.UnreadCountUser1
	case r.User2ID:
		return r.UnreadCountUser2
	}
	return 0
}

// RecordMessage applies a freshly persisted message to the room summary:
// preview, last message time and the receiver's unread counter.
func (r *ChatRoom) RecordMessage(msg *Message, previewLen int) {
	r.LastMessage = Truncate(msg.Content, previewLen)
	created := msg.CreatedAt
	r.LastMessageTime = &created

	switch msg.ReceiverID {
	case r.User1ID:
		r.UnreadCountUser1++
	case r.User2ID:
		r.UnreadCountUser2++
	}
}

// RecordRead decrements the reader's unread counter, never below zero.
func (r *ChatRoom) RecordRead(readerID string) {
	switch readerID {
	case r.User1ID:
		r.UnreadCountUser1 = max(0, r.UnreadCountUser1-1)
	case r.User2ID:
		r.UnreadCountUser2 = max(0, r.UnreadCountUser2-1)
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
