package models

import "time"

// Message types accepted on the wire.
const (
	MessageTypeText    = "text"
	MessageTypeImage   = "image"
	MessageTypeFile    = "file"
	MessageTypeBooking = "booking"
)

// Message is one persisted chat message.
// ID is assigned by the database and grows with insertion order, so
// (CreatedAt, ID) is the render order inside a room.
type Message struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	RoomID     string `gorm:"not null;index:idx_msg_room_created,priority:1" json:"room_id"`
	SenderID   string `gorm:"not null;index:idx_msg_pair" json:"sender_id"`
	ReceiverID string `gorm:"not null;index:idx_msg_pair" json:"receiver_id"`

	Content     string `gorm:"type:text;not null" json:"content"`
	MessageType string `gorm:"size:20;not null;default:text" json:"message_type"`

	IsRead bool       `gorm:"not null;default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `gorm:"index:idx_msg_room_created,priority:2" json:"created_at"`
}
