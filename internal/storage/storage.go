package storage

import (
	"context"
	"errors"
	"time"

	"roomchat/backend/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a room, message or user does not exist
	// (or is not visible to the caller).
	ErrNotFound = errors.New("record not found")
	// ErrNotParticipant is returned when a user writes into a room they are not part of.
	ErrNotParticipant = errors.New("user is not a participant of the room")
	// ErrAlreadyRead is returned by MarkMessageRead for a message that was read before.
	ErrAlreadyRead = errors.New("message already read")
)

// Storage is the persistence gateway the chat core talks to.
// CreateMessage and MarkMessageRead are atomic per room.
type Storage interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error)
	GetOrCreateRoom(ctx context.Context, userA, userB string) (*models.ChatRoom, error)

	CreateMessage(ctx context.Context, roomID, senderID, content, messageType string) (*models.Message, error)
	MarkMessageRead(ctx context.Context, roomID string, messageID uint, readerID string) (*models.Message, error)

	IsUserBanned(ctx context.Context, userID string) (bool, error)
}

// Service implements Storage on PostgreSQL (via gorm) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
	}
}

// Ping checks both backends.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Ping(ctx).Err()
}

// nowFunc matches the microsecond precision PostgreSQL stores, so the
// timestamp broadcast to clients is the one a later read returns.
func nowFunc() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
