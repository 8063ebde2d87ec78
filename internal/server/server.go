package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/jietuba/longstitch/internal/config"
	"github.com/jietuba/longstitch/internal/frame"
	"github.com/jietuba/longstitch/internal/resilience"
	"github.com/jietuba/longstitch/internal/stitch"
	"github.com/jietuba/longstitch/internal/trace"
	"github.com/jietuba/longstitch/pkg/imgutil"
)

// Message is the envelope for JSON control messages on the socket.
// Frames themselves arrive as binary messages (PNG or JPEG encoded).
type Message struct {
	Type string `json:"type"`
	Axis string `json:"axis,omitempty"`
}

// EventMessage mirrors stitch session events out to connected clients.
type EventMessage struct {
	Type   string `json:"type"`
	Seq    uint64 `json:"seq,omitempty"`
	Length int    `json:"length,omitempty"`
	Reason string `json:"reason,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// ErrorMessage reports a per-connection failure without closing the socket.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SessionStatus is the REST view of the active session.
type SessionStatus struct {
	State  string `json:"state"`
	Axis   string `json:"axis"`
	Length int    `json:"length"`
	Active bool   `json:"active"`
}

type client struct {
	conn    *websocket.Conn
	limiter *rateLimiter
	breaker *resilience.Breaker
	seq     atomic.Uint64
}

// Server accepts frames over WebSocket, feeds them to the session
// manager, and fans session events back out to every connected client.
type Server struct {
	cfg *config.Config
	mgr *stitch.Manager
	ctx context.Context
	log *slog.Logger

	mu     sync.RWMutex
	conns  map[*websocket.Conn]*client
	stopCh chan struct{}
}

// New creates a server around an existing manager. The context bounds
// the lifetime of sessions started over the wire.
func New(ctx context.Context, cfg *config.Config, mgr *stitch.Manager, log *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		mgr:    mgr,
		ctx:    ctx,
		log:    log,
		conns:  make(map[*websocket.Conn]*client),
		stopCh: make(chan struct{}),
	}
	go s.broadcastEvents()
	return s
}

// Handler returns the full HTTP mux with tracing and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/session/start", s.handleStart)
	mux.HandleFunc("/api/session/stop", s.handleStop)
	mux.HandleFunc("/api/session/cancel", s.handleCancel)
	mux.HandleFunc("/api/composite", s.handleComposite)
	mux.HandleFunc("/health", s.handleHealth)
	return trace.Middleware(corsMiddleware(mux))
}

// Close disconnects every client and stops the broadcast loop.
func (s *Server) Close() {
	close(s.stopCh)
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	s.conns = make(map[*websocket.Conn]*client)
	s.mu.Unlock()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Error("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(MaxFrameBytes)

	c := &client{
		conn:    conn,
		limiter: newRateLimiter(RateLimitFrames, RateLimitWindow),
		breaker: resilience.New(resilience.DefaultConfig()),
	}
	s.addClient(c)
	defer s.removeClient(c)
	defer conn.Close(websocket.StatusInternalError, "connection closed")

	ctx := r.Context()
	s.log.Info("client connected", "remote", r.RemoteAddr)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				s.log.Info("client disconnected", "remote", r.RemoteAddr)
			} else if ctx.Err() == nil {
				s.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		switch typ {
		case websocket.MessageBinary:
			s.handleFrame(ctx, c, data)
		case websocket.MessageText:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				s.sendError(ctx, c, "invalid message: "+err.Error())
				continue
			}
			s.handleControl(ctx, c, msg)
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, c *client, data []byte) {
	if !c.limiter.allow() {
		s.sendError(ctx, c, "frame rate limit exceeded")
		return
	}

	sess := s.mgr.Active()
	if sess == nil {
		s.sendError(ctx, c, "no active session")
		return
	}

	img, err := imgutil.Decode(data)
	if err != nil {
		s.sendError(ctx, c, "decode failed: "+err.Error())
		return
	}

	f, err := frame.FromImage(img, c.seq.Add(1), time.Now())
	if err != nil {
		s.sendError(ctx, c, "invalid frame: "+err.Error())
		return
	}
	if err := sess.Submit(f); err != nil {
		if errors.Is(err, stitch.ErrSessionClosed) {
			s.sendError(ctx, c, "session closed")
			return
		}
		s.sendError(ctx, c, "submit failed: "+err.Error())
	}
}

func (s *Server) handleControl(ctx context.Context, c *client, msg Message) {
	switch msg.Type {
	case "start":
		axis := stitch.AxisVertical
		if msg.Axis == "horizontal" {
			axis = stitch.AxisHorizontal
		}
		if _, err := s.mgr.StartSession(s.ctx, axis); err != nil {
			s.sendError(ctx, c, err.Error())
		}
	case "stop":
		if err := s.mgr.Stop(); err != nil {
			s.sendError(ctx, c, err.Error())
		}
	case "cancel":
		if err := s.mgr.Cancel(); err != nil {
			s.sendError(ctx, c, err.Error())
		}
	default:
		s.sendError(ctx, c, "unknown message type: "+msg.Type)
	}
}

func (s *Server) sendError(ctx context.Context, c *client, message string) {
	msg := ErrorMessage{Type: "error", Message: message}
	if err := wsjson.Write(ctx, c.conn, msg); err != nil {
		s.log.Warn("error send failed", "error", err)
	}
}

// broadcastEvents fans manager events out to all connected clients.
// A client whose breaker opens after repeated write failures is evicted.
func (s *Server) broadcastEvents() {
	for {
		select {
		case <-s.stopCh:
			return
		case ev, ok := <-s.mgr.Events():
			if !ok {
				return
			}
			s.broadcast(eventMessage(ev))
		}
	}
}

func eventMessage(ev stitch.Event) EventMessage {
	msg := EventMessage{
		Seq:    ev.Seq,
		Length: ev.Length,
		Reason: string(ev.Reason),
	}
	switch ev.Type {
	case stitch.EventProgress:
		msg.Type = "progress"
	case stitch.EventRejected:
		msg.Type = "rejected"
	case stitch.EventFinalized:
		msg.Type = "finalized"
		if ev.Composite != nil {
			msg.Width = ev.Composite.Width()
		}
	case stitch.EventAborted:
		msg.Type = "aborted"
	}
	return msg
}

func (s *Server) broadcast(msg EventMessage) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.conns))
	for _, c := range s.conns {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c := c
		err := c.breaker.Execute(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return wsjson.Write(ctx, c.conn, msg)
		})
		if err != nil {
			if c.breaker.State() == resilience.Open {
				s.log.Warn("evicting unresponsive client")
				c.conn.Close(websocket.StatusPolicyViolation, "write failures")
				s.removeClient(c)
			}
		}
	}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.conns[c.conn] = c
	s.mu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.conns, c.conn)
	s.mu.Unlock()
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.mgr.Snapshot()
	status := SessionStatus{
		State:  snap.State.String(),
		Axis:   snap.Axis.String(),
		Length: snap.Length,
		Active: s.mgr.Active() != nil,
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	axis := stitch.AxisVertical
	if r.URL.Query().Get("axis") == "horizontal" {
		axis = stitch.AxisHorizontal
	}
	if _, err := s.mgr.StartSession(s.ctx, axis); err != nil {
		if errors.Is(err, stitch.ErrSessionActive) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.mgr.Stop(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.mgr.Cancel(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleComposite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	comp := s.mgr.Composite()
	if comp == nil {
		http.Error(w, "no finalized composite", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := imgutil.EncodePNG(&buf, comp.Image()); err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, traceparent")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
