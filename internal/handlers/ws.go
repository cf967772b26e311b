package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/feastly-dev/feastly/db"
	"github.com/feastly-dev/feastly/internal/apperr"
	"github.com/feastly-dev/feastly/internal/chat"
	"github.com/feastly-dev/feastly/internal/httpx"
	"github.com/feastly-dev/feastly/internal/models"
	"github.com/feastly-dev/feastly/internal/types"
	"github.com/feastly-dev/feastly/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// wsClient serializes writes to one socket. gorilla/websocket supports
// a single concurrent writer, and the hub's broadcast path shares the
// connection with the handler's ping loop.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsClient) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.SetWriteDeadline(t)
}

func (c *wsClient) Close() error { return c.conn.Close() }

func (c *wsClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, allowed := range types.AllowedOrigins() {
			if origin == allowed {
				return true
			}
		}
		return false
	},
}

// ChatWebSocket attaches the customer to their own conversation's
// real-time channel.
func ChatWebSocket(hub *chat.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.Unauthorized, "User not authenticated", err))
			return
		}

		conversation, err := getOrCreateConversation(userID)

		if err != nil {
			httpx.Error(ctx, err)
			return
		}

		serveConversation(ctx, hub, conversation.ID)
	}
}

// AdminChatWebSocket attaches a support agent to any conversation.
func AdminChatWebSocket(hub *chat.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		conversationID, err := utils.ParamID(ctx, "conversation_id")

		if err != nil {
			httpx.Error(ctx, apperr.Wrap(apperr.BadRequest, "Invalid conversation ID", err))
			return
		}

		var conversation models.Conversation

		if err := db.DB.First(&conversation, conversationID).Error; err != nil {
			httpx.Error(ctx, apperr.FromStore(err, "Conversation not found"))
			return
		}

		serveConversation(ctx, hub, conversation.ID)
	}
}

func serveConversation(ctx *gin.Context, hub *chat.Hub, conversationID uint) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logrus.WithError(err).Warn("failed to set initial read deadline")
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	client := &wsClient{conn: conn}

	hub.Register(conversationID, client)

	defer func() {
		hub.Unregister(conversationID, client)
		conn.Close()
		logrus.Debugf("websocket closed for conversation %d", conversationID)
	}()

	if err := client.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}

	if err := client.WriteJSON(gin.H{
		"type":            "connected",
		"conversation_id": conversationID,
	}); err != nil {
		logrus.WithError(err).Warn("failed to send welcome message")
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	// Stopping the ticker does not close its channel; the done channel
	// releases the ping goroutine when the read loop exits.
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := client.ping(); err != nil {
					return
				}
			}
		}
	}()

	// Messages are sent over the REST endpoints; the socket is a push
	// channel, so the read loop only services keepalives and close.
	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warnf("websocket error for conversation %d", conversationID)
			}
			break
		}
	}
}
