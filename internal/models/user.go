package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the slice of the identity provider's account the chat core reads.
// Username doubles as the display name carried on outbound events.
type User struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Username       string `gorm:"uniqueIndex;not null" json:"username"`
	CurrentPincode string `gorm:"size:10" json:"current_pincode"`
	CreatedAt      time.Time
}

// BeforeCreate generates a UUID for the user if ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
