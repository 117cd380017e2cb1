package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dgnsrekt/greekslab/internal/config"
)

// Hub tracks what-if sessions and tears them down on shutdown.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	limits     config.WhatIfConfig
	protobuf   *ProtobufCodec
	logger     *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(limits config.WhatIfConfig, logger *zap.Logger) (*Hub, error) {
	pb, err := NewProtobufCodec()
	if err != nil {
		return nil, err
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		limits:     limits,
		protobuf:   pb,
		logger:     logger,
	}, nil
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("what-if hub shutting down")
			close(h.done)
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered",
				zap.String("connID", client.connID),
				zap.String("protocol", client.codec.Protocol()),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", client.connID))
		}
	}
}

// shutdown gracefully closes all client connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
		delete(h.clients, client)
	}
}

// Close releases codec resources. Call after the HTTP server has stopped.
func (h *Hub) Close() {
	h.protobuf.Close()
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// codecFor picks the first supported subprotocol the client offered.
// Clients that offer none get JSON.
func (h *Hub) codecFor(requested []string) (Codec, string) {
	for _, p := range requested {
		switch p {
		case ProtocolJSON:
			return jsonCodec{}, p
		case ProtocolProtobuf:
			return h.protobuf, p
		}
	}
	return jsonCodec{}, ""
}
