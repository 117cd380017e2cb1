package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB

	// Send buffer size per client.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
	Subprotocols:    []string{ProtocolJSON, ProtocolProtobuf},
}

// Client represents a WebSocket client connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	connID  string
	codec   Codec
	session *Session
	queue   *requestQueue
	logger  *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// HandleWhatIf upgrades the request to a what-if session.
func (h *Hub) HandleWhatIf(w http.ResponseWriter, r *http.Request) {
	codec, proto := h.codecFor(websocket.Subprotocols(r))

	var responseHeader http.Header
	if proto != "" {
		responseHeader = http.Header{"Sec-WebSocket-Protocol": {proto}}
	}

	h.logger.Debug("websocket subprotocol negotiated",
		zap.String("protocol", codec.Protocol()),
		zap.Strings("requested", websocket.Subprotocols(r)),
	)

	conn, err := upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	// The request context ends when this handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		connID:  uuid.New().String(),
		codec:   codec,
		session: NewSession(h.limits),
		queue:   newRequestQueue(),
		logger:  h.logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	select {
	case h.register <- client:
	case <-h.done:
		client.close()
		conn.Close()
		return
	}

	client.push(ServerMessage{Type: TypeConnected, ConnectionID: client.connID, Protocol: codec.Protocol()})

	limiter := rate.NewLimiter(rate.Limit(h.limits.RatePerSecond), h.limits.Burst)
	go client.queue.process(ctx, client.session, limiter, client.push)
	go client.writePump()
	go client.readPump()
}

// close stops the session; the write pump sends a close frame.
func (c *Client) close() {
	c.closeOnce.Do(c.cancel)
}

// push encodes and queues a message. Messages for a closed client are dropped.
func (c *Client) push(m ServerMessage) {
	payload, err := c.codec.Encode(m)
	if err != nil {
		c.logger.Warn("failed to encode message",
			zap.String("connID", c.connID),
			zap.String("type", m.Type),
			zap.Error(err),
		)
		payload, err = c.codec.Encode(errorMessage(err))
		if err != nil {
			return
		}
	}

	select {
	case c.send <- payload:
	case <-c.ctx.Done():
	}
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.ctx.Done():
		case <-c.hub.done:
			c.close()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	msgType := c.codec.MessageType()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes an incoming request and queues it.
func (c *Client) handleMessage(data []byte) {
	msg, err := c.codec.Decode(data)
	if err != nil {
		c.logger.Debug("failed to parse client message",
			zap.String("connID", c.connID),
			zap.String("protocol", c.codec.Protocol()),
			zap.Error(err),
		)
		c.push(errorMessage(err))
		return
	}

	if err := c.queue.push(msg); err != nil {
		c.push(errorMessage(err))
	}
}
