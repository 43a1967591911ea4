package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/intervoice/backend/internal/events"
	"github.com/intervoice/backend/internal/services"
	"github.com/intervoice/backend/internal/utils"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// ProgressHandler streams orchestration events for one session over a
// websocket. Events arrive via redis pub/sub; when redis is not configured
// the endpoint reports unavailable rather than hanging silently.
type ProgressHandler struct {
	interviews services.InterviewService
	rdb        *redis.Client
	logger     *logrus.Logger
	upgrader   websocket.Upgrader
}

func NewProgressHandler(interviews services.InterviewService, rdb *redis.Client, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{
		interviews: interviews,
		rdb:        rdb,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// wsConn serializes writes; gorilla allows only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) writeRaw(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (h *ProgressHandler) Stream(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	sessionID := c.Param("session_id")

	// Authorize before upgrading; a failed ownership check must stay a
	// plain HTTP error.
	if _, err := h.interviews.Get(c.Request.Context(), userID, sessionID); err != nil {
		writeError(c, err)
		return
	}

	if h.rdb == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "ProgressHandler.Stream", "live progress is not available", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	ws := &wsConn{conn: conn}
	defer conn.Close()

	ctx := c.Request.Context()
	sub := h.rdb.Subscribe(ctx, events.Channel(sessionID))
	defer sub.Close()

	_ = ws.writeJSON(gin.H{"type": "subscribed", "session_id": sessionID})

	// Drain the read side so close frames and pongs are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			if err := ws.ping(); err != nil {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := ws.writeRaw([]byte(msg.Payload)); err != nil {
				h.logger.WithError(err).WithField("session_id", sessionID).Debug("websocket write failed")
				return
			}
		}
	}
}
