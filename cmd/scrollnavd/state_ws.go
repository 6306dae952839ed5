package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ============================================================================
// Navigation WebSocket: hub + per-client pumps + broadcaster
// ============================================================================
//
// This file implements:
//   - A Hub that tracks connected page renderers
//   - Per-client write pumps so one slow page doesn't block others
//   - Per-client read pumps that decode page input into Events
//   - A broadcaster loop that turns Broadcasts into typed JSON frames
//
// Design constraints:
//   - NavState remains daemon-owned; pages only ever see snapshots and broadcasts.
//   - The initial snapshot on connect goes through the reducer/event loop.
//   - Slow clients are disconnected when their send buffer fills.
//
// Wire format: JSON text frames with an envelope {type, ts, data}. Inbound
// frames use the EventEnvelope {type, data}.
//
// ============================================================================

// wsViewChangedData is the JSON `data` payload for "view_changed".
type wsViewChangedData struct {
	From  View   `json:"from"`
	To    View   `json:"to"`
	Cause string `json:"cause"`
}

type wsScrollToData struct {
	Y          float64 `json:"y"`
	DurationMS int64   `json:"duration_ms"`
}

type wsSetScrollData struct {
	Y float64 `json:"y"`
}

type wsEffectData struct {
	Effect Effect `json:"effect"`
}

type wsChromeData struct {
	Part ChromePart `json:"part"`
	On   bool       `json:"on"`
}

type wsScrollHintData struct {
	Visible bool `json:"visible"`
}

type wsInputOutcomeData struct {
	PreventDefault bool `json:"prevent_default"`
}

type wsTransitionDoneData struct {
	ID   uint64 `json:"id"`
	View View   `json:"view"`
}

// wsOutboundEvent is a pre-typed, externally-consumable navigation event.
type wsOutboundEvent struct {
	Type string
	Data any
	At   time.Time // optional timestamp; zero means use now
}

// envelope is the wire format envelope for outbound WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	// Buffered broadcast channel for already-serialized JSON frames.
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size. Zero means 64.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size. Zero means 256.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 64
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 256
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled.
// It disconnects all clients on shutdown.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "client", c.id, "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.stop != nil {
			c.stop()
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
		safeCloseChan(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	if c.stop != nil {
		c.stop()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	// Closing send signals writePump to exit.
	safeCloseChan(c.send)

	h.logger.Info("ws client disconnected", "client", c.id, "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
}

func safeCloseChan(ch chan []byte) {
	defer func() {
		_ = recover() // ignore "close of closed channel"
	}()
	close(ch)
}

// BroadcastBytes enqueues a pre-serialized JSON WS frame for broadcast.
// It never blocks; if the hub queue is full it drops the message.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	id   string
	conn *websocket.Conn
	send chan []byte

	// events receives decoded page input; nil makes the client receive-only.
	events chan<- Event

	// stop ends the pumps' context; the hub calls it on removal.
	stop context.CancelFunc

	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel and a fresh ID.
func NewClient(hub *Hub, conn *websocket.Conn, events chan<- Event, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 64
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	id := uuid.NewString()
	return &Client{
		hub:        hub,
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		events:     events,
		remoteAddr: remoteAddr,
		logger:     logger.With("client", id),
	}
}

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// maxInboundBytes bounds a single page message (layout reports are the largest).
	maxInboundBytes = 64 << 10
)

// wsSetScrollCoalesceWindow rate-limits set_scroll clamps while the page keeps
// pushing against a lock (latest-wins).
const wsSetScrollCoalesceWindow = defaultSetScrollCoalesceMS * time.Millisecond

// closeStatus extracts a human-readable websocket close code / text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes messages from the send queue to the websocket.
// It exits on write error or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", "write error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", "ping error", err)
				return
			}
		}
	}
}

// readPump decodes page input frames into Events and forwards them to the
// daemon. It exits on read error, then unregisters the client.
func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("readPump", "read error", err)
			if c.hub != nil {
				select {
				case c.hub.unregister <- c:
				case <-ctx.Done():
				}
			}
			return
		}
		// Any frame proves liveness.
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if mt != websocket.TextMessage || c.events == nil {
			continue
		}
		c.forward(ctx, data)
	}
}

// forward decodes one inbound frame and hands it to the daemon. Wheel and
// touch-move samples are dropped when the daemon is busy; everything else
// (layout, modal, settings, scroll position, intents) waits until ctx ends.
func (c *Client) forward(ctx context.Context, data []byte) {
	ev, err := UnmarshalEvent(data)
	if err != nil {
		c.logger.Warn("ws inbound message rejected", "error", err)
		return
	}

	if droppableInput(ev) {
		select {
		case c.events <- ev:
		default:
			c.logger.Warn("events channel full, dropping page input", "event", eventName(ev))
		}
		return
	}

	select {
	case c.events <- ev:
	case <-ctx.Done():
		c.logger.Warn("page input discarded on shutdown", "event", eventName(ev))
	}
}

// droppableInput reports whether ev is a high-frequency sample whose loss the
// next sample makes up for.
func droppableInput(ev Event) bool {
	switch ev.(type) {
	case WheelInput, TouchMove:
		return true
	default:
		return false
	}
}

func (c *Client) logExit(pump, what string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Info("ws "+pump+" exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
		return
	}
	c.logger.Info("ws "+pump+" exiting ("+what+")", "remote_addr", c.remoteAddr, "error", err)
}

// ============================================================================
// HTTP Handler + server wiring helpers
// ============================================================================

type Server struct {
	logger *slog.Logger

	hub *Hub

	// Page input and the initial snapshot request both go through the daemon loop.
	events chan<- Event

	upgrader websocket.Upgrader
}

type ServerConfig struct {
	Hub HubConfig

	// AllowedOrigins restricts the Origin header on upgrade. Empty allows any.
	AllowedOrigins []string
}

// NewServer constructs the WS navigation server components. Call Register on a
// mux, start hub.Run(ctx), and start the broadcaster loop.
func NewServer(logger *slog.Logger, events chan<- Event, cfg ServerConfig) *Server {
	hub := NewHub(logger, cfg.Hub)
	s := &Server{
		logger: logger,
		hub:    hub,
		events: events,
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: originChecker(cfg.AllowedOrigins),
	}
	return s
}

func (s *Server) Hub() *Hub { return s.hub }

// Register registers the WS handler on the provided mux.
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleNavWS)
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// handleNavWS upgrades and registers a client, then sends state_init.
func (s *Server) handleNavWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, s.events, r.RemoteAddr, s.logger)

	// Pumps outlive the handler: net/http cancels r.Context() on return.
	pumpCtx, stop := context.WithCancel(context.Background())
	client.stop = stop

	// Register client first so broadcasts can reach it.
	s.hub.register <- client

	go client.writePump(pumpCtx)
	go client.readPump(pumpCtx)

	if s.events == nil {
		return
	}

	reply := make(chan StateSnapshot, 1)
	select {
	case <-r.Context().Done():
		return
	case s.events <- RequestStateSnapshot{Reply: reply}:
	}

	waitCtx := r.Context()
	if _, has := r.Context().Deadline(); !has {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
	}

	select {
	case <-waitCtx.Done():
		if !errors.Is(waitCtx.Err(), context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", waitCtx.Err())
		}
		return

	case snap := <-reply:
		now := time.Now().UTC()
		initMsg, mErr := json.Marshal(envelope{
			Type: "state_init",
			Ts:   &now,
			Data: snap,
		})
		if mErr != nil {
			s.logger.Warn("ws snapshot marshal failed", "error", mErr)
			return
		}
		// Enqueue init message; if client is already slow, disconnect.
		select {
		case client.send <- initMsg:
		default:
			s.hub.unregister <- client
		}
	}
}

// ============================================================================
// Broadcaster
// ============================================================================

// RunBroadcaster reads Broadcasts (from the reducer and the sequencer),
// marshals them, and fans them out to all hub clients. Intended to run as a
// single goroutine so frame order matches emission order.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan Broadcast, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	// Clamp frames are flushed at most once per window; everything else goes
	// out immediately after any pending clamp.
	var pendingClamp *wsOutboundEvent
	var clampTimer *time.Timer
	var clampTimerCh <-chan time.Time

	send := func(ev wsOutboundEvent) {
		ts := ev.At
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		msg, err := json.Marshal(envelope{Type: ev.Type, Ts: &ts, Data: ev.Data})
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err, "type", ev.Type)
			return
		}
		hub.BroadcastBytes(msg)
	}

	flushPendingClamp := func() {
		if pendingClamp == nil {
			return
		}
		send(*pendingClamp)
		pendingClamp = nil
	}

	stopClampTimer := func() {
		if clampTimer != nil && !clampTimer.Stop() {
			select {
			case <-clampTimer.C:
			default:
			}
		}
		clampTimer = nil
		clampTimerCh = nil
	}

	for {
		select {
		case <-ctx.Done():
			flushPendingClamp()
			stopClampTimer()
			return

		case <-clampTimerCh:
			flushPendingClamp()
			clampTimer = nil
			clampTimerCh = nil

		case b, ok := <-src:
			if !ok {
				flushPendingClamp()
				stopClampTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			ev, ok := convertBroadcast(b)
			if !ok {
				logger.Debug("ws broadcaster dropping unknown broadcast", "msg", describeBroadcast(b))
				continue
			}

			if ev.Type == "set_scroll" {
				copyEv := ev
				pendingClamp = &copyEv
				if clampTimer == nil {
					clampTimer = time.NewTimer(wsSetScrollCoalesceWindow)
					clampTimerCh = clampTimer.C
				}
				continue
			}

			flushPendingClamp()
			stopClampTimer()
			send(ev)
		}
	}
}

func convertBroadcast(b Broadcast) (wsOutboundEvent, bool) {
	switch m := b.(type) {
	case BroadcastViewChanged:
		return wsOutboundEvent{Type: "view_changed", Data: wsViewChangedData{From: m.From, To: m.To, Cause: m.Cause}}, true

	case BroadcastRenderState:
		return wsOutboundEvent{Type: "render_state", Data: m.State}, true

	case BroadcastScrollTo:
		return wsOutboundEvent{Type: "scroll_to", Data: wsScrollToData{Y: m.Y, DurationMS: m.Duration.Milliseconds()}}, true

	case BroadcastSetScroll:
		return wsOutboundEvent{Type: "set_scroll", Data: wsSetScrollData{Y: m.Y}}, true

	case BroadcastEffect:
		typ := "effect_stop"
		if m.Running {
			typ = "effect_start"
		}
		return wsOutboundEvent{Type: typ, Data: wsEffectData{Effect: m.Effect}}, true

	case BroadcastChrome:
		return wsOutboundEvent{Type: "chrome", Data: wsChromeData{Part: m.Part, On: m.On}}, true

	case BroadcastParticleBurst:
		return wsOutboundEvent{Type: "particle_burst"}, true

	case BroadcastScrollHint:
		return wsOutboundEvent{Type: "scroll_hint", Data: wsScrollHintData{Visible: m.Visible}}, true

	case BroadcastResetNestedScroll:
		return wsOutboundEvent{Type: "reset_nested_scroll"}, true

	case BroadcastInputOutcome:
		return wsOutboundEvent{Type: "input_outcome", Data: wsInputOutcomeData{PreventDefault: m.PreventDefault}}, true

	case BroadcastTransitionDone:
		return wsOutboundEvent{Type: "transition_done", Data: wsTransitionDoneData{ID: m.ID, View: m.View}}, true

	default:
		return wsOutboundEvent{}, false
	}
}
