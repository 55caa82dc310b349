package storage

import (
	"context"
	"errors"
	"log"

	"roomchat/backend/internal/models"

	"gorm.io/gorm"
)

// GetRoomByID loads a room by its identifier.
func (s *Service) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// GetOrCreateRoom returns the single room of an unordered pair, creating it
// on first use. Two concurrent first calls converge on the same row through
// the unique (user1_id, user2_id) index.
func (s *Service) GetOrCreateRoom(ctx context.Context, userA, userB string) (*models.ChatRoom, error) {
	u1, u2 := models.CanonicalPair(userA, userB)
	db := s.DB.WithContext(ctx)

	room, err := s.findRoomByPair(db, u1, u2)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	room = models.NewChatRoom(u1, u2)
	if err := db.Create(room).Error; err != nil {
		if isUniqueViolation(err) {
			return s.findRoomByPair(db, u1, u2)
		}
		log.Printf("ERROR: Failed to create room for %s and %s: %v", u1, u2, err)
		return nil, err
	}
	log.Printf("INFO: Created room %s between %s and %s", room.ID, u1, u2)
	return room, nil
}

func (s *Service) findRoomByPair(db *gorm.DB, u1, u2 string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := db.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}
