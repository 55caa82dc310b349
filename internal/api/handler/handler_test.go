package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roomchat/backend/internal/api/handler"
	"roomchat/backend/internal/auth"
	"roomchat/backend/internal/chathub"
	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	storage *MockStorage
	hub     *chathub.ManagerService
	tokens  *auth.TokenService
	server  *httptest.Server
}

func newTestEnv(t *testing.T, ping error) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storageMock := new(MockStorage)
	hub := chathub.NewManagerService(storageMock)
	tokens := auth.NewTokenService("test-secret", "roomchat-test", time.Hour)
	h := handler.NewHandler(hub, tokens, stubPinger{err: ping}, nil)

	r := gin.New()
	h.Register(r)
	server := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Shutdown()
		server.Close()
	})
	return &testEnv{storage: storageMock, hub: hub, tokens: tokens, server: server}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.tokens.Issue(userID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) dial(t *testing.T, roomID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/chat/" + roomID
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func (e *testEnv) allowRoom() {
	room := &models.ChatRoom{ID: "room1", User1ID: "user_A", User2ID: "user_B"}
	e.storage.On("GetRoomByID", mock.Anything, "room1").Return(room, nil)
	e.storage.On("IsUserBanned", mock.Anything, mock.Anything).Return(false, nil)
	e.storage.On("GetUserByID", mock.Anything, "user_A").Return(&models.User{ID: "user_A", Username: "alice"}, nil)
	e.storage.On("GetUserByID", mock.Anything, "user_B").Return(&models.User{ID: "user_B", Username: "bob"}, nil)
}

func readEvent(t *testing.T, conn *websocket.Conn) models.OutboundEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.OutboundEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestServeWebSocket_Conversation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.allowRoom()
	created := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	env.storage.On("CreateMessage", mock.Anything, "room1", "user_A", "hi", models.MessageTypeText).
		Return(&models.Message{ID: 11, RoomID: "room1", SenderID: "user_A", ReceiverID: "user_B", Content: "hi", MessageType: models.MessageTypeText, CreatedAt: created}, nil)
	env.storage.On("MarkMessageRead", mock.Anything, "room1", uint(11), "user_B").
		Return(&models.Message{ID: 11, IsRead: true}, nil)

	connA, _, err := env.dial(t, "room1", env.token(t, "user_A"))
	require.NoError(t, err)
	defer connA.Close()
	assert.Equal(t, "alice joined the chat", readEvent(t, connA).Text)

	connB, _, err := env.dial(t, "room1", env.token(t, "user_B"))
	require.NoError(t, err)
	defer connB.Close()
	assert.Equal(t, "bob joined the chat", readEvent(t, connB).Text)
	assert.Equal(t, "bob joined the chat", readEvent(t, connA).Text)

	// A frame without a type is a message.
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte(`{"content":"hi"}`)))
	for _, conn := range []*websocket.Conn{connA, connB} {
		ev := readEvent(t, conn)
		assert.Equal(t, models.EventMessage, ev.Type)
		assert.Equal(t, uint(11), ev.MessageID)
		assert.Equal(t, "alice", ev.SenderName)
		assert.True(t, created.Equal(ev.Timestamp))
	}

	require.NoError(t, connB.WriteJSON(map[string]any{"type": "read_receipt", "message_id": 11}))
	for _, conn := range []*websocket.Conn{connA, connB} {
		ev := readEvent(t, conn)
		assert.Equal(t, models.EventRead, ev.Type)
		assert.Equal(t, "user_B", ev.UserID)
		assert.Equal(t, "bob", ev.UserName)
	}

	require.NoError(t, connA.Close())
	ev := readEvent(t, connB)
	assert.Equal(t, models.EventSystem, ev.Type)
	assert.Equal(t, "alice left the chat", ev.Text)
}

func TestServeWebSocket_Refusals(t *testing.T) {
	env := newTestEnv(t, nil)
	env.allowRoom()
	env.storage.On("GetRoomByID", mock.Anything, "room404").Return(nil, storage.ErrNotFound)
	env.storage.On("GetRoomByID", mock.Anything, "room-broken").Return(nil, errors.New("db down"))

	tests := []struct {
		name   string
		roomID string
		token  string
		status int
	}{
		{name: "no token", roomID: "room1", token: "", status: http.StatusUnauthorized},
		{name: "bad token", roomID: "room1", token: "not-a-jwt", status: http.StatusUnauthorized},
		{name: "not a participant", roomID: "room1", token: env.token(t, "user_C"), status: http.StatusForbidden},
		{name: "unknown room", roomID: "room404", token: env.token(t, "user_A"), status: http.StatusForbidden},
		{name: "storage failure", roomID: "room-broken", token: env.token(t, "user_A"), status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := env.dial(t, tt.roomID, tt.token)
			if conn != nil {
				conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
	assert.Equal(t, 0, env.hub.Registry.Sessions("room1"))
}

func TestServeWebSocket_OversizedFrameEndsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.allowRoom()

	connA, _, err := env.dial(t, "room1", env.token(t, "user_A"))
	require.NoError(t, err)
	defer connA.Close()
	readEvent(t, connA)

	connB, _, err := env.dial(t, "room1", env.token(t, "user_B"))
	require.NoError(t, err)
	defer connB.Close()
	readEvent(t, connB)
	readEvent(t, connA)

	frame := `{"content":"` + strings.Repeat("x", config.MaxMessageSize) + `"}`
	require.NoError(t, connA.WriteMessage(websocket.TextMessage, []byte(frame)))

	require.NoError(t, connA.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = connA.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "unexpected error %v", err)

	ev := readEvent(t, connB)
	assert.Equal(t, "alice left the chat", ev.Text)
	env.storage.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestServeWebSocket_ShutdownClosesSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.allowRoom()

	conn, _, err := env.dial(t, "room1", env.token(t, "user_A"))
	require.NoError(t, err)
	defer conn.Close()
	readEvent(t, conn)

	env.hub.Shutdown()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure), "unexpected error %v", err)
}

func TestStartChat(t *testing.T) {
	env := newTestEnv(t, nil)
	env.storage.On("GetUserByID", mock.Anything, "user_A").Return(&models.User{ID: "user_A", CurrentPincode: "110001"}, nil)
	env.storage.On("GetUserByID", mock.Anything, "user_B").Return(&models.User{ID: "user_B", CurrentPincode: "110001"}, nil)
	env.storage.On("GetUserByID", mock.Anything, "user_C").Return(&models.User{ID: "user_C", CurrentPincode: "400001"}, nil)
	env.storage.On("GetUserByID", mock.Anything, "ghost").Return(nil, storage.ErrNotFound)
	env.storage.On("GetOrCreateRoom", mock.Anything, "user_A", "user_B").
		Return(&models.ChatRoom{ID: "room1", User1ID: "user_A", User2ID: "user_B"}, nil)

	tests := []struct {
		name   string
		token  string
		body   string
		status int
	}{
		{name: "creates room", token: env.token(t, "user_A"), body: `{"user_id":"user_B"}`, status: http.StatusOK},
		{name: "missing user", token: env.token(t, "user_A"), body: `{}`, status: http.StatusBadRequest},
		{name: "self chat", token: env.token(t, "user_A"), body: `{"user_id":"user_A"}`, status: http.StatusBadRequest},
		{name: "unknown user", token: env.token(t, "user_A"), body: `{"user_id":"ghost"}`, status: http.StatusNotFound},
		{name: "other area", token: env.token(t, "user_A"), body: `{"user_id":"user_C"}`, status: http.StatusForbidden},
		{name: "unauthenticated", token: "", body: `{"user_id":"user_B"}`, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/chats/start", bytes.NewBufferString(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == http.StatusOK {
				var body struct {
					RoomID string `json:"room_id"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "room1", body.RoomID)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		ping   error
		status int
	}{
		{name: "healthy", status: http.StatusOK},
		{name: "backend down", ping: errors.New("redis: connection refused"), status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHandler(nil, nil, stubPinger{err: tt.ping}, nil)
			r := gin.New()
			h.Register(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCheckOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	storageMock := new(MockStorage)
	storageMock.On("GetRoomByID", mock.Anything, "room1").
		Return(&models.ChatRoom{ID: "room1", User1ID: "user_A", User2ID: "user_B"}, nil)
	storageMock.On("IsUserBanned", mock.Anything, "user_A").Return(false, nil)
	storageMock.On("GetUserByID", mock.Anything, "user_A").Return(&models.User{ID: "user_A", Username: "alice"}, nil)
	hub := chathub.NewManagerService(storageMock)
	tokens := auth.NewTokenService("test-secret", "roomchat-test", time.Hour)
	h := handler.NewHandler(hub, tokens, stubPinger{}, []string{"https://app.example.com"})
	r := gin.New()
	h.Register(r)
	server := httptest.NewServer(r)
	defer server.Close()
	defer hub.Shutdown()

	tok, err := tokens.Issue("user_A")
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat/room1?token=" + tok

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://app.example.com"}})
	require.NoError(t, err)
	conn.Close()
}
