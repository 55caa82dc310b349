package chathub

import (
	"context"
	"errors"
	"log"
	"time"

	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"

	"github.com/gorilla/websocket"
)

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	UserID   string
	UserName string
	RoomID   string
	Conn     *websocket.Conn
	Hub      *ManagerService
	Send     chan models.OutboundEvent
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, user *models.User, roomID string) *WebSocketClient {
	return &WebSocketClient{
		UserID:   user.ID,
		UserName: user.Username,
		RoomID:   roomID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan models.OutboundEvent, config.SendBufferSize),
	}
}

func (c *WebSocketClient) GetUserID() string                           { return c.UserID }
func (c *WebSocketClient) GetUserName() string                         { return c.UserName }
func (c *WebSocketClient) GetRoomID() string                           { return c.RoomID }
func (c *WebSocketClient) GetSendChannel() chan<- models.OutboundEvent { return c.Send }

func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops the writePump, which then closes the connection.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

// readPump feeds inbound frames to the hub until the connection fails.
// Events are handled with a context that outlives the connection, so an
// operation already started still completes after the peer goes away.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	// A frame over the limit ends the session with close code 1009.
	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	ctx := context.Background()
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) || websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARNING: Read error for user %s in room %s: %v", c.UserID, c.RoomID, err)
			}
			return
		}

		ev, err := models.DecodeInbound(data)
		if err != nil {
			log.Printf("WARNING: Dropping frame from user %s in room %s: %v", c.UserID, c.RoomID, err)
			continue
		}

		if err := c.Hub.HandleEvent(ctx, c, ev); err != nil {
			if errors.Is(err, ErrPersistence) {
				log.Printf("ERROR: Dropping %s event from user %s in room %s: %v", ev.Type, c.UserID, c.RoomID, err)
			} else {
				log.Printf("WARNING: Dropping %s event from user %s in room %s: %v", ev.Type, c.UserID, c.RoomID, err)
			}
		}
	}
}

// writePump writes one frame per event and keeps the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				// Removed from the room by the registry.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(ev); err != nil {
				log.Printf("WARNING: Write to user %s in room %s failed: %v", c.UserID, c.RoomID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
