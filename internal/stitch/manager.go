package stitch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jietuba/longstitch/internal/syncx"
)

// ErrSessionActive means a capture session is already running.
var ErrSessionActive = errors.New("session already active")

// ErrNoSession means there is no active session to act on.
var ErrNoSession = errors.New("no active session")

// Snapshot is a point-in-time view of the active (or last) session, safe to
// read from any goroutine.
type Snapshot struct {
	State  State
	Axis   Axis
	Length int
}

// Manager owns at most one live session at a time and relays its events to
// the service layer. Sessions themselves have no shared state, so several
// managers (or bare sessions) can coexist in one process.
type Manager struct {
	cfg    Config
	mu     sync.Mutex
	active *Session
	events chan Event
	snap   *syncx.RWGuard[Snapshot]
	comp   *syncx.RWGuard[*Composite]
}

// NewManager creates a manager with the given session defaults.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:    cfg.withDefaults(),
		events: make(chan Event, 64),
		snap:   syncx.NewGuard(Snapshot{State: StateIdle}),
		comp:   syncx.NewGuard[*Composite](nil),
	}
}

// StartSession begins a new capture along the given axis.
func (m *Manager) StartSession(ctx context.Context, axis Axis) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, ErrSessionActive
	}
	cfg := m.cfg
	cfg.Axis = axis
	sess := NewSession(cfg)
	sess.Start(ctx)
	m.active = sess
	m.snap.Set(Snapshot{State: StateIdle, Axis: axis})
	go m.relay(sess, axis)
	return sess, nil
}

// Active returns the running session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Stop finalizes the active session.
func (m *Manager) Stop() error {
	if s := m.Active(); s != nil {
		s.Stop()
		return nil
	}
	return ErrNoSession
}

// Cancel aborts the active session.
func (m *Manager) Cancel() error {
	if s := m.Active(); s != nil {
		s.Cancel()
		return nil
	}
	return ErrNoSession
}

// Events returns the aggregated event stream across sessions. The channel
// stays open for the manager's lifetime.
func (m *Manager) Events() <-chan Event { return m.events }

// Snapshot returns the latest session view.
func (m *Manager) Snapshot() Snapshot { return m.snap.Get() }

// Composite returns the most recently finalized composite, independent of
// event delivery. Nil until a session finalizes.
func (m *Manager) Composite() *Composite { return m.comp.Get() }

// relay mirrors one session's events into the shared stream and keeps the
// snapshot current. Feedback events are droppable when the stream backs up;
// the terminal event is not, and the finalized composite is latched here so
// consumers can read it even without draining the stream.
func (m *Manager) relay(sess *Session, axis Axis) {
	for evt := range sess.Events() {
		m.snap.Set(Snapshot{State: sess.State(), Axis: axis, Length: evt.Length})
		switch evt.Type {
		case EventFinalized, EventAborted:
			if evt.Composite != nil {
				m.comp.Set(evt.Composite)
			}
			m.deliver(evt)
		default:
			select {
			case m.events <- evt:
			default:
				slog.Debug("event stream lagging, dropping event", "type", evt.Type)
			}
		}
	}
	m.snap.Set(Snapshot{State: sess.State(), Axis: axis, Length: sess.Length()})
	m.mu.Lock()
	if m.active == sess {
		m.active = nil
	}
	m.mu.Unlock()
}

// deliver puts a terminal event on the stream no matter how far behind the
// consumer is, shedding the oldest queued event until a slot opens. Relays
// never overlap, so only one deliver runs at a time.
func (m *Manager) deliver(evt Event) {
	for {
		select {
		case m.events <- evt:
			return
		default:
		}
		select {
		case <-m.events:
		default:
		}
	}
}
