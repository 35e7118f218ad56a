package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/Baaaki/storefront/internal/broker"
	"github.com/Baaaki/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// OrderStreamHandler pushes the caller's order events over a websocket.
type OrderStreamHandler struct {
	subscriber broker.Subscriber
	upgrader   websocket.Upgrader
}

func NewOrderStreamHandler(subscriber broker.Subscriber, allowedOrigins []string) *OrderStreamHandler {
	return &OrderStreamHandler{
		subscriber: subscriber,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *OrderStreamHandler) Stream(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}

	sub, err := h.subscriber.Subscribe(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade connection", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	defer conn.Close()

	connectedAt := time.Now()
	logger.Log.Info("Order stream connected", zap.Int64("user_id", userID))

	done := make(chan struct{})
	go readLoop(conn, done)

	writeLoop(conn, sub, userID, done)

	logger.Log.Info("Order stream disconnected",
		zap.Int64("user_id", userID),
		zap.Duration("session_duration", time.Since(connectedAt).Round(time.Second)),
	)
}

// readLoop only consumes control frames; clients have nothing to send.
func readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debug("Order stream read error", zap.Error(err))
			}
			return
		}
	}
}

// writeLoop is the only writer on conn.
func writeLoop(conn *websocket.Conn, sub *broker.Subscription, userID int64, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.C:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "event stream closed"))
				return
			}
			if event.UserID != userID {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				logger.Log.Debug("Order stream write failed", zap.Int64("user_id", userID), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
