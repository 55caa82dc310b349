package chathub_test

import (
	"context"
	"sync"

	"roomchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetOrCreateRoom(ctx context.Context, userA, userB string) (*models.ChatRoom, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) CreateMessage(ctx context.Context, roomID, senderID, content, messageType string) (*models.Message, error) {
	args := m.Called(ctx, roomID, senderID, content, messageType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) MarkMessageRead(ctx context.Context, roomID string, messageID uint, readerID string) (*models.Message, error) {
	args := m.Called(ctx, roomID, messageID, readerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) IsUserBanned(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockClient is a Client backed by a buffered channel.
type MockClient struct {
	userID   string
	userName string
	roomID   string
	send     chan models.OutboundEvent

	mu     sync.Mutex
	closes int
}

func newMockClient(userID, roomID string) *MockClient {
	return newMockClientWithBuffer(userID, roomID, 32)
}

func newMockClientWithBuffer(userID, roomID string, size int) *MockClient {
	return &MockClient{
		userID:   userID,
		userName: userID + "_name",
		roomID:   roomID,
		send:     make(chan models.OutboundEvent, size),
	}
}

func (c *MockClient) GetUserID() string                           { return c.userID }
func (c *MockClient) GetUserName() string                         { return c.userName }
func (c *MockClient) GetRoomID() string                           { return c.roomID }
func (c *MockClient) GetSendChannel() chan<- models.OutboundEvent { return c.send }
func (c *MockClient) Run()                                        {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	close(c.send)
}

func (c *MockClient) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// Drain returns every event buffered so far.
func (c *MockClient) Drain() []models.OutboundEvent {
	var events []models.OutboundEvent
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}
