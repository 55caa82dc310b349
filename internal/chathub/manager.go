package chathub

import (
	"context"
	"errors"
	"fmt"
	"log"

	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"
)

var (
	// ErrValidation marks an inbound event that was dropped as malformed.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence marks an inbound event that was dropped because the
	// gateway could not store it.
	ErrPersistence = errors.New("persistence failure")
	// ErrChatNotAllowed is returned by StartChat for users in different areas.
	ErrChatNotAllowed = errors.New("users cannot start a chat")
)

// ManagerService is the hub: it admits sessions into rooms, runs their
// inbound events through the message pipeline and fans the results out.
type ManagerService struct {
	Storage  storage.Storage
	Registry *RoomRegistry
	Access   *AccessController
}

func NewManagerService(s storage.Storage) *ManagerService {
	return &ManagerService{
		Storage:  s,
		Registry: NewRoomRegistry(),
		Access:   &AccessController{Storage: s},
	}
}

// Admit checks that userID may join roomID and resolves the display name
// used for the session. Nothing is registered.
func (m *ManagerService) Admit(ctx context.Context, userID, roomID string) (*models.User, error) {
	if _, err := m.Access.CanJoin(ctx, userID, roomID); err != nil {
		return nil, err
	}
	user, err := m.Storage.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return user, nil
}

// Join registers an admitted client and announces it to the room,
// the joiner included.
func (m *ManagerService) Join(c Client) error {
	roomID := c.GetRoomID()
	if err := m.Registry.Register(roomID, c); err != nil {
		return err
	}
	log.Printf("INFO: User %s joined room %s", c.GetUserID(), roomID)
	m.Registry.Broadcast(roomID, models.NewSystemEvent(fmt.Sprintf("%s joined the chat", c.GetUserName())))
	return nil
}

// Leave deregisters the client. The rest of the room is told only when the
// client was still registered, so evicted or shut down sessions leave quietly.
func (m *ManagerService) Leave(c Client) {
	roomID := c.GetRoomID()
	if !m.Registry.Deregister(roomID, c) {
		return
	}
	log.Printf("INFO: User %s left room %s", c.GetUserID(), roomID)
	m.Registry.Broadcast(roomID, models.NewSystemEvent(fmt.Sprintf("%s left the chat", c.GetUserName())))
}

// HandleEvent routes one inbound event of a joined client. Unknown kinds
// are ignored. A returned error means the event was dropped; it never
// affects the session.
func (m *ManagerService) HandleEvent(ctx context.Context, c Client, ev models.InboundEvent) error {
	switch ev.Type {
	case models.InboundMessage:
		return m.handleMessage(ctx, c, ev)
	case models.InboundTyping:
		m.handleTyping(c, ev)
		return nil
	case models.InboundReadReceipt:
		return m.handleReadReceipt(ctx, c, ev)
	default:
		return nil
	}
}

// StartChat returns the room of the pair, creating it on first use.
// Users whose pincodes are both known and differ may not chat.
func (m *ManagerService) StartChat(ctx context.Context, initiatorID, otherID string) (*models.ChatRoom, error) {
	if initiatorID == "" || otherID == "" {
		return nil, fmt.Errorf("%w: both users are required", ErrValidation)
	}
	if initiatorID == otherID {
		return nil, fmt.Errorf("%w: cannot start a chat with yourself", ErrValidation)
	}

	initiator, err := m.Storage.GetUserByID(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	other, err := m.Storage.GetUserByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if initiator.CurrentPincode != "" && other.CurrentPincode != "" && initiator.CurrentPincode != other.CurrentPincode {
		return nil, ErrChatNotAllowed
	}

	return m.Storage.GetOrCreateRoom(ctx, initiator.ID, other.ID)
}

// Shutdown closes every session. Their pumps finish on their own.
func (m *ManagerService) Shutdown() {
	m.Registry.CloseAll()
}
