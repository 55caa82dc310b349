package chathub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"
)

// handleMessage validates, persists and broadcasts one chat message.
// The broadcast carries the id and timestamp assigned by the gateway.
func (m *ManagerService) handleMessage(ctx context.Context, c Client, ev models.InboundEvent) error {
	msgType := ev.MessageType
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !config.MessageTypes[msgType] {
		return fmt.Errorf("%w: unknown message type %q", ErrValidation, msgType)
	}
	if msgType == models.MessageTypeText && strings.TrimSpace(ev.Content) == "" {
		return fmt.Errorf("%w: empty message", ErrValidation)
	}

	roomID := c.GetRoomID()
	var err error
	m.Registry.Serialize(roomID, func() {
		var msg *models.Message
		msg, err = m.Storage.CreateMessage(ctx, roomID, c.GetUserID(), ev.Content, msgType)
		if err != nil {
			return
		}
		m.Registry.Broadcast(roomID, models.NewMessageEvent(msg, c.GetUserName()))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (m *ManagerService) handleTyping(c Client, ev models.InboundEvent) {
	roomID := c.GetRoomID()
	m.Registry.Serialize(roomID, func() {
		m.Registry.Broadcast(roomID, models.NewTypingEvent(c.GetUserID(), c.GetUserName(), ev.IsTyping))
	})
}

// handleReadReceipt marks a message read for its receiver. Receipts for
// unknown, foreign or already read messages change nothing and are not
// broadcast.
func (m *ManagerService) handleReadReceipt(ctx context.Context, c Client, ev models.InboundEvent) error {
	if ev.MessageID == 0 {
		return nil
	}

	roomID := c.GetRoomID()
	var err error
	m.Registry.Serialize(roomID, func() {
		_, err = m.Storage.MarkMessageRead(ctx, roomID, ev.MessageID, c.GetUserID())
		if err != nil {
			return
		}
		m.Registry.Broadcast(roomID, models.NewReadEvent(c.GetUserID(), c.GetUserName(), ev.MessageID))
	})
	switch {
	case err == nil, errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrAlreadyRead):
		return nil
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}
