package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"anoa.com/jobportal/internal/modules/notification/service"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/dto"
	"anoa.com/jobportal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type NotificationHandler struct {
	service     service.NotificationService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

// NewNotificationHandler builds the handler. checkOrigin decides which
// browser origins may open the live socket; nil accepts any.
func NewNotificationHandler(service service.NotificationService, redisClient *redis.Client, checkOrigin func(r *http.Request) bool) *NotificationHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &NotificationHandler{
		service:     service,
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// currentUser writes the error response itself when the request carries no user.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return uuid.Nil, false
	}
	return userID, true
}

// GetNotifications lists the user's notifications newest first, ?page=&limit=.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "page and limit must be numbers", apperror.ErrBadRequest))
		return
	}

	items, meta, err := h.service.GetNotifications(c.Request.Context(), userID, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "meta": meta})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusNotFound, "Notification not found", apperror.ErrNotFound))
		return
	}
	if err := h.service.MarkAsRead(c.Request.Context(), notificationID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": notificationID, "is_read": true})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated, "unread_count": 0})
}

// UnreadCount feeds the navbar badge.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	unread, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": unread})
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

// socketFrame is what the live socket sends: the unread count on connect, then
// one frame per new notification.
type socketFrame struct {
	Type         string          `json:"type"`
	UnreadCount  *int64          `json:"unread_count,omitempty"`
	Notification json.RawMessage `json:"notification,omitempty"`
}

// HandleWebSocket streams the user's notifications from Redis pub/sub. Browsers
// pass the session as ?token= when cookies are not sent.
func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live notifications are not available"})
		return
	}

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, service.Channel(userID.String()))
	defer pubsub.Close()

	// confirm the subscription before upgrading so a Redis failure is still a plain HTTP error
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("Failed to subscribe to notifications for %s: %v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live notifications are not available"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	unread, err := h.service.UnreadCount(ctx, userID)
	if err == nil {
		if err := writeFrame(conn, socketFrame{Type: "unread_count", UnreadCount: &unread}); err != nil {
			return
		}
	}

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// the client never sends anything useful; reading only notices the close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	notifications := pubsub.Channel()
	for {
		select {
		case msg, ok := <-notifications:
			if !ok {
				return
			}
			frame := socketFrame{Type: "notification", Notification: json.RawMessage(msg.Payload)}
			if err := writeFrame(conn, frame); err != nil {
				log.Printf("Dropping notification socket for %s: %v", userID, err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, frame socketFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}
