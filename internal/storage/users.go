package storage

import (
	"context"
	"errors"
	"log"

	"roomchat/backend/internal/models"

	"gorm.io/gorm"
)

// GetUserByID loads a user record.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get user %s: %v", userID, err)
		return nil, err
	}
	return &user, nil
}

// SaveUser inserts or updates a user. Accounts normally come from the
// identity provider; this is used for seeding by the admin CLI.
func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Save(user).Error; err != nil {
		log.Printf("ERROR: Failed to save user %s: %v", user.Username, err)
		return err
	}
	return nil
}
