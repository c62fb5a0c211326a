package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/internal/session"
)

const (
	readLimit    = 65536
	writeTimeout = 10 * time.Second
)

var (
	errEmptyPayload = errors.New("empty payload")
	errUnknownEvent = errors.New("unknown event")
)

const (
	msgBadPollRequest   = "Invalid poll request."
	msgBadAnswerRequest = "Invalid answer request."
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Coordinator is the classroom state machine that client events are dispatched to.
type Coordinator interface {
	Join(connID, name string) error
	Leave(connID string)
	CreatePoll(connID string, req session.CreatePollRequest) (*models.Poll, error)
	SubmitAnswer(connID string, req session.SubmitAnswerRequest) error
	Kick(connID, name string) error
	Chat(connID string, msg session.ChatMessage) error
}

// Client represents a single WebSocket connection in the classroom.
type Client struct {
	ID       string
	JoinedAt time.Time
	hub      *Hub
	coord    Coordinator
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// NewUpgrader returns an upgrader accepting the given origins. An empty list or "*"
// accepts any origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, coord Coordinator, upgrader *websocket.Upgrader, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			JoinedAt: time.Now(),
			hub:      hub,
			coord:    coord,
			conn:     conn,
			send:     make(chan WSMessage, sendBuffer),
			logger:   logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.coord.Leave(c.ID)
		_ = c.conn.Close()
		c.logger.Debug("connection closed",
			zap.String("conn_id", c.ID),
			zap.Duration("duration", time.Since(c.JoinedAt)))
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.String("conn_id", c.ID), zap.Error(err))
			}
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		if err := c.dispatch(msg); err != nil {
			c.logger.Debug("event rejected",
				zap.String("conn_id", c.ID),
				zap.String("event", msg.Event),
				zap.Error(err))
		}
	}
}

// dispatch hands one inbound event to the coordinator.
func (c *Client) dispatch(msg WSMessage) error {
	switch msg.Event {
	case session.EventJoin:
		var req session.JoinRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return c.coord.Join(c.ID, req.Name)
	case session.EventCreatePoll:
		var req session.CreatePollRequest
		if err := decode(msg.Data, &req); err != nil {
			return c.reject(session.EventPollCreationError, msgBadPollRequest, err)
		}
		_, err := c.coord.CreatePoll(c.ID, req)
		return err
	case session.EventSubmitAnswer:
		var req session.SubmitAnswerRequest
		if err := decode(msg.Data, &req); err != nil {
			return c.reject(session.EventAnswerError, msgBadAnswerRequest, err)
		}
		return c.coord.SubmitAnswer(c.ID, req)
	case session.EventKickOut:
		var req session.KickRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return c.coord.Kick(c.ID, req.Name)
	case session.EventChatMessage:
		var req session.ChatMessage
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return c.coord.Chat(c.ID, req)
	case session.EventStudentLogin:
		var req session.JoinRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return session.ErrInvalidName
		}
		c.hub.ToOne(c.ID, session.EventLoginSuccess, session.LoginSuccess{Message: "Login successful", Name: name})
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownEvent, msg.Event)
	}
}

// reject tells this connection its request could not be read.
func (c *Client) reject(event, message string, err error) error {
	c.hub.ToOne(c.ID, event, session.ErrorPayload{Message: message})
	return err
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return errEmptyPayload
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
