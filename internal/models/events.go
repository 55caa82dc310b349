package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Inbound event kinds.
const (
	InboundMessage     = "message"
	InboundTyping      = "typing"
	InboundReadReceipt = "read_receipt"
)

// Outbound event kinds.
const (
	EventMessage = "message"
	EventTyping  = "typing"
	EventRead    = "read"
	EventSystem  = "system"
)

// InboundEvent is a client frame. Only the fields of its kind are meaningful.
type InboundEvent struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	IsTyping    bool   `json:"is_typing,omitempty"`
	MessageID   uint   `json:"message_id,omitempty"`
}

// DecodeInbound parses a client frame. A frame without a type is a message.
func DecodeInbound(data []byte) (InboundEvent, error) {
	var ev InboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return InboundEvent{}, fmt.Errorf("decode inbound event: %w", err)
	}
	if ev.Type == "" {
		ev.Type = InboundMessage
	}
	return ev, nil
}

// OutboundEvent is what the server fans out to every session of a room.
// It is encoded per kind so each kind carries exactly its own fields.
type OutboundEvent struct {
	Type string

	MessageID   uint
	SenderID    string
	SenderName  string
	Content     string
	MessageType string
	Timestamp   time.Time

	UserID   string
	UserName string
	IsTyping bool

	Text string
}

// NewMessageEvent builds the delivery event from the persisted message.
func NewMessageEvent(msg *Message, senderName string) OutboundEvent {
	return OutboundEvent{
		Type:        EventMessage,
		MessageID:   msg.ID,
		SenderID:    msg.SenderID,
		SenderName:  senderName,
		Content:     msg.Content,
		MessageType: msg.MessageType,
		Timestamp:   msg.CreatedAt,
	}
}

func NewTypingEvent(userID, userName string, isTyping bool) OutboundEvent {
	return OutboundEvent{Type: EventTyping, UserID: userID, UserName: userName, IsTyping: isTyping}
}

func NewReadEvent(userID, userName string, messageID uint) OutboundEvent {
	return OutboundEvent{Type: EventRead, UserID: userID, UserName: userName, MessageID: messageID}
}

func NewSystemEvent(text string) OutboundEvent {
	return OutboundEvent{Type: EventSystem, Text: text}
}

type messagePayload struct {
	Type        string    `json:"type"`
	MessageID   uint      `json:"message_id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	Timestamp   time.Time `json:"timestamp"`
}

type typingPayload struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

type readPayload struct {
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	MessageID uint   `json:"message_id"`
}

type systemPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// MarshalJSON implements json.Marshaler.
func (e OutboundEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventMessage:
		return json.Marshal(messagePayload{
			Type:        e.Type,
			MessageID:   e.MessageID,
			SenderID:    e.SenderID,
			SenderName:  e.SenderName,
			Content:     e.Content,
			MessageType: e.MessageType,
			Timestamp:   e.Timestamp,
		})
	case EventTyping:
		return json.Marshal(typingPayload{Type: e.Type, UserID: e.UserID, UserName: e.UserName, IsTyping: e.IsTyping})
	case EventRead:
		return json.Marshal(readPayload{Type: e.Type, UserID: e.UserID, UserName: e.UserName, MessageID: e.MessageID})
	case EventSystem:
		return json.Marshal(systemPayload{Type: e.Type, Text: e.Text})
	}
	return nil, fmt.Errorf("unknown outbound event type %q", e.Type)
}

// UnmarshalJSON implements json.Unmarshaler so clients written in Go (and
// tests) can read events back.
func (e *OutboundEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string    `json:"type"`
		MessageID   uint      `json:"message_id"`
		SenderID    string    `json:"sender_id"`
		SenderName  string    `json:"sender_name"`
		Content     string    `json:"content"`
		MessageType string    `json:"message_type"`
		Timestamp   time.Time `json:"timestamp"`
		UserID      string    `json:"user_id"`
		UserName    string    `json:"user_name"`
		IsTyping    bool      `json:"is_typing"`
		Text        string    `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = OutboundEvent{
		Type:        raw.Type,
		MessageID:   raw.MessageID,
		SenderID:    raw.SenderID,
		SenderName:  raw.SenderName,
		Content:     raw.Content,
		MessageType: raw.MessageType,
		Timestamp:   raw.Timestamp,
		UserID:      raw.UserID,
		UserName:    raw.UserName,
		IsTyping:    raw.IsTyping,
		Text:        raw.Text,
	}
	return nil
}
