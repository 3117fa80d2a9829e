package relay

import (
	"context"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
	"sync"
	"time"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second
	sendBuffer  = 256
	maxFrameLen = 16 << 10
)

// SignalFrame wraps a frame received from one peer before it is fanned out
// to the rest of the room. Signals are never stored.
type SignalFrame struct {
	Type     string          `json:"type"`
	SenderID int             `json:"sender_id"`
	Payload  json.RawMessage `json:"payload"`
}

// Conn is a Peer backed by a websocket connection.
type Conn struct {
	id     string
	userID int
	ws     *websocket.Conn
	send   chan []byte

	once sync.Once
	done chan struct{}
}

func NewConn(ws *websocket.Conn, userID int) *Conn {
	return &Conn{
		id:     uuid.New().String(),
		userID: userID,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Conn) ID() string  { return c.id }
func (c *Conn) UserID() int { return c.userID }

func (c *Conn) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		log.Warnf("relay peer %s send buffer full, dropping frame", c.id)
		return false
	}
}

func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Serve registers the connection in the room and pumps frames until either
// side closes. It blocks for the lifetime of the connection.
func Serve(ctx context.Context, hub *Hub, presence Presence, roomID int, c *Conn) error {
	if err := hub.Join(roomID, c); err != nil {
		_ = c.ws.Close()
		return err
	}
	if presence != nil {
		if err := presence.Join(ctx, roomID, c.userID); err != nil {
			log.Warnf("failed to mark user %d online in room %d: %v", c.userID, roomID, err)
		}
	}

	defer func() {
		hub.Leave(roomID, c)
		if presence != nil {
			if err := presence.Leave(context.WithoutCancel(ctx), roomID, c.userID); err != nil {
				log.Warnf("failed to mark user %d offline in room %d: %v", c.userID, roomID, err)
			}
		}
		c.Close()
	}()

	go c.writePump()
	c.readPump(hub, roomID)
	return nil
}

func (c *Conn) readPump(hub *Hub, roomID int) {
	defer c.Close()

	c.ws.SetReadLimit(maxFrameLen)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("relay peer %s read error: %v", c.id, err)
			}
			return
		}

		if !json.Valid(data) {
			continue
		}

		frame, err := json.Marshal(&SignalFrame{Type: "signal", SenderID: c.userID, Payload: data})
		if err != nil {
			continue
		}
		hub.BroadcastFrom(roomID, c.id, frame)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warnf("relay peer %s write error: %v", c.id, err)
				c.Close()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
