package viewer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 16 * 1024
	sendBuffer = 64
)

// Client is one websocket connection attached to a session. Only controllers may drive
// the book; everyone else receives frames.
type Client struct {
	conn       *websocket.Conn
	send       chan []byte
	ID         string
	SessionID  string
	Controller bool
}

func NewClient(conn *websocket.Conn, id, sessionID string, controller bool) *Client {
	return &Client{
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		ID:         id,
		SessionID:  sessionID,
		Controller: controller,
	}
}

// ReadPump forwards decoded messages to s until the connection closes or the session
// stops, then detaches the client.
func (c *Client) ReadPump(ctx context.Context, s *Session) {
	log := s.log.With("client", c.ID)
	defer func() {
		s.Leave(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Debug("read message", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("decode message", "error", err, "bytes", len(data))
			continue
		}
		msg.ClientID = c.ID
		msg.SessionID = c.SessionID

		if !s.Submit(ctx, c, &msg) {
			return
		}
	}
}

// WritePump drains the send queue onto the connection and keeps it alive with pings.
// It returns when the session closes the queue.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, data); err != nil {
				slog.Debug("write message", "error", err, "client", c.ID)
				return
			}
		case <-ticker.C:
			if err := c.ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *Client) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Ping(ctx)
}

// Send queues msg without blocking. When the queue is full, frames are skipped quietly
// since the next one replaces them; other messages are dropped with a warning.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err, "type", msg.Type)
		return
	}

	select {
	case c.send <- data:
	default:
		if msg.Type == TypeFrame {
			slog.Debug("skip frame for slow client", "client", c.ID)
			return
		}
		slog.Warn("client send buffer full, dropping message", "client", c.ID, "type", msg.Type)
	}
}
