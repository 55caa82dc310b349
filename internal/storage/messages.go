package storage

import (
	"context"
	"errors"

	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var summaryColumns = []string{"last_message", "last_message_time", "unread_count_user1", "unread_count_user2"}

// CreateMessage persists a message and, in the same transaction, updates
// the room preview, last message time and the receiver's unread counter.
// The room row is locked for the duration, which serialises concurrent
// writers of one room without blocking other rooms.
func (s *Service) CreateMessage(ctx context.Context, roomID, senderID, content, messageType string) (*models.Message, error) {
	var created *models.Message

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(tx, roomID)
		if err != nil {
			return err
		}

		receiverID, ok := room.OtherParticipant(senderID)
		if !ok {
			return ErrNotParticipant
		}

		msg := models.Message{
			RoomID:      room.ID,
			SenderID:    senderID,
			ReceiverID:  receiverID,
			Content:     content,
			MessageType: messageType,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		room.RecordMessage(&msg, config.PreviewMaxLength)
		if err := tx.Model(room).Select(summaryColumns).Updates(room).Error; err != nil {
			return err
		}

		created = &msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// MarkMessageRead flips a message of roomID to read when readerID is its
// receiver and it was unread, then decrements the reader's counter (never
// below zero). ErrNotFound covers a missing message, a message of another
// room and a reader who is not the receiver; ErrAlreadyRead makes repeated
// receipts a no-op.
func (s *Service) MarkMessageRead(ctx context.Context, roomID string, messageID uint, readerID string) (*models.Message, error) {
	var marked *models.Message

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		err := tx.Where("id = ? AND room_id = ? AND receiver_id = ?", messageID, roomID, readerID).First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		room, err := lockRoom(tx, msg.RoomID)
		if err != nil {
			return err
		}

		readAt := nowFunc()
		res := tx.Model(&models.Message{}).
			Where("id = ? AND is_read = ?", msg.ID, false).
			Updates(map[string]interface{}{"is_read": true, "read_at": readAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyRead
		}

		room.RecordRead(readerID)
		if err := tx.Model(room).Select("unread_count_user1", "unread_count_user2").Updates(room).Error; err != nil {
			return err
		}

		msg.IsRead = true
		msg.ReadAt = &readAt
		marked = &msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

func lockRoom(tx *gorm.DB, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}
