/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Live board updates
//
// Every open controller and display page holds a websocket to /ws.
// - On connect the page gets a "summary" with the full roster and counts
// - Whenever the store reports a change (a toggle or reset made here, or a
//   write by another greenlight instance sharing the storage), every page
//   gets a fresh "summary" and re-renders
// - Controller pages may send "toggle" and "reset" over the same socket
// - Pages that fall behind are dropped and reconnect on their own

package main

import (
	"context"
	"log"
	"net/http"

	"github.com/Seednode/greenlight/roster"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Messages coming from clients
type ClientMessage struct {
	Type string `json:"type"`         // "toggle", "reset"
	ID   int    `json:"id,omitempty"` // toggle
}

// SummaryMessage carries the whole board.
type SummaryMessage struct {
	Type   string `json:"type"`   // "summary"
	Source string `json:"source"` // "connect", "local" or "external"
	roster.Summary
}

// SimpleMessage is for generic notifications ("error").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type command struct {
	client *Client
	msg    ClientMessage
}

// Hub owns the set of connected pages. Only run touches clients.
type Hub struct {
	store   *roster.Store
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	commands chan command
	done     chan struct{}
}

func newHub(store *roster.Store) *Hub {
	return &Hub{
		store:    store,
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		commands: make(chan command),
		done:     make(chan struct{}),
	}
}

func (h *Hub) run(ctx context.Context, cfg *Config) {
	events, unsubscribe := h.store.Subscribe(16)
	defer unsubscribe()
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			logf(cfg, "BOARD: Page connected (%d open)", len(h.clients))

			summary, err := h.store.Summary()
			if err != nil {
				h.sendTo(c, SimpleMessage{Type: "error", Message: "Unable to load the roster."})
				logf(cfg, "ERROR: %v", err)

				continue
			}
			h.sendTo(c, SummaryMessage{Type: "summary", Source: "connect", Summary: summary})

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case cmd := <-h.commands:
			h.handleCommand(cfg, cmd)

		case ev, ok := <-events:
			if !ok {
				return
			}
			h.broadcastSummary(cfg, ev.Source.String())
		}
	}
}

// handleCommand applies a controller request. The resulting store event
// drives the broadcast.
func (h *Hub) handleCommand(cfg *Config, cmd command) {
	var err error

	switch cmd.msg.Type {
	case "toggle":
		err = h.store.Toggle(cmd.msg.ID)
	case "reset":
		err = h.store.Reset()
	default:
		return
	}

	if err != nil {
		logf(cfg, "ERROR: %s failed: %v", cmd.msg.Type, err)
		h.sendTo(cmd.client, SimpleMessage{
			Type:    "error",
			Message: "The roster could not be saved. Please try again.",
		})
	}
}

func (h *Hub) broadcastSummary(cfg *Config, source string) {
	summary, err := h.store.Summary()
	if err != nil {
		logf(cfg, "ERROR: %v", err)

		return
	}

	msg := SummaryMessage{
		Type:    "summary",
		Source:  source,
		Summary: summary,
	}

	for c := range h.clients {
		h.sendTo(c, msg)
	}
}

func (h *Hub) sendTo(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
		}

		select {
		case h.register <- client:
		case <-h.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "SERVE: Websocket to %s", realIP(r))

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "toggle", "reset":
			select {
			case h.commands <- command{client: c, msg: msg}:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
