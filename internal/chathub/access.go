package chathub

import (
	"context"
	"errors"
	"fmt"

	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"
)

// ErrAccessDenied is returned when a user may not join a room. A missing
// room is reported the same way so room ids cannot be probed.
var ErrAccessDenied = errors.New("access denied")

// AccessController decides at connect time whether a user may join a room.
type AccessController struct {
	Storage storage.Storage
}

// CanJoin returns the room when userID is one of its participants and is
// not suspended. Infrastructure failures are returned as-is and also
// refuse the connection.
func (a *AccessController) CanJoin(ctx context.Context, userID, roomID string) (*models.ChatRoom, error) {
	if userID == "" || roomID == "" {
		return nil, ErrAccessDenied
	}

	room, err := a.Storage.GetRoomByID(ctx, roomID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccessDenied
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}
	if !room.HasParticipant(userID) {
		return nil, ErrAccessDenied
	}

	banned, err := a.Storage.IsUserBanned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check suspension of %s: %w", userID, err)
	}
	if banned {
		return nil, ErrAccessDenied
	}
	return room, nil
}
