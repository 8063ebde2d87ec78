package stitch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jietuba/longstitch/internal/frame"
	"github.com/jietuba/longstitch/internal/overlap"
	"github.com/jietuba/longstitch/internal/signature"
	"github.com/jietuba/longstitch/internal/trace"
)

// State is the session lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StateFinalizing
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Abort reasons, in addition to the per-frame reject reasons.
const (
	ReasonCanceled     Reason = "canceled"
	ReasonContextDone  Reason = "context-done"
	ReasonEmptySession Reason = "empty-session"
)

// EventType labels session events.
type EventType int

const (
	EventProgress EventType = iota
	EventRejected
	EventFinalized
	EventAborted
)

// Event is the message a session publishes to its consumer. Progress and
// Rejected events are best-effort (dropped when the consumer lags); the
// terminal Finalized/Aborted event is always delivered. Wait is the
// authoritative way to obtain the result.
type Event struct {
	Type      EventType
	Seq       uint64
	Length    int
	Reason    Reason
	Composite *Composite
}

// Config is the per-session tunable surface.
type Config struct {
	Axis               Axis
	BandHeight         int
	MaxSearchOffset    int
	MinMovement        int
	IdleThreshold      int
	MaxCompositeLength int
	PixelTolerance     int
	SignatureThreshold float64
	PixelThreshold     float64
	ConfirmRows        int
	ScrollbarMargin    int
	QueueSize          int
	MaxHashDistance    int
}

func (c Config) withDefaults() Config {
	if c.BandHeight <= 0 {
		c.BandHeight = DefaultBandHeight
	}
	if c.MaxSearchOffset <= 0 {
		c.MaxSearchOffset = DefaultMaxSearchOffset
	}
	if c.MinMovement <= 0 {
		c.MinMovement = DefaultMinMovement
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = DefaultIdleThreshold
	}
	if c.MaxCompositeLength <= 0 {
		c.MaxCompositeLength = DefaultMaxCompositeLength
	}
	if c.PixelTolerance <= 0 {
		c.PixelTolerance = signature.QuantStep
	}
	if c.SignatureThreshold <= 0 {
		c.SignatureThreshold = DefaultSignatureThreshold
	}
	if c.PixelThreshold <= 0 {
		c.PixelThreshold = DefaultPixelThreshold
	}
	if c.ConfirmRows <= 0 {
		c.ConfirmRows = DefaultConfirmRows
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.MaxHashDistance <= 0 {
		c.MaxHashDistance = DefaultMaxHashDistance
	}
	return c
}

// Session turns a sequential stream of frames into one composite image.
// Exactly one worker mutates it; Submit is safe to call from a producer
// while the worker drains, but frames are processed strictly in submission
// order.
type Session struct {
	cfg    Config
	params overlap.Params
	filter *Filter

	frames   chan *frame.Frame
	events   chan Event
	stopCh   chan struct{}
	cancelCh chan struct{}
	done     chan struct{}

	stopOnce   sync.Once
	cancelOnce sync.Once
	closed     atomic.Bool
	state      atomic.Int32
	length     atomic.Int64

	// Worker-owned. Never touched outside run().
	accum *Accumulator
	last  *frame.Frame
	dir   int
	idle  int

	// Set before done closes.
	result *Composite
	err    error
}

// NewSession creates a session; Start must be called before submitting.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg: cfg,
		params: overlap.Params{
			BandHeight:         cfg.BandHeight,
			RightMargin:        cfg.ScrollbarMargin,
			MaxOffset:          cfg.MaxSearchOffset,
			SignatureThreshold: cfg.SignatureThreshold,
			PixelTolerance:     cfg.PixelTolerance,
			PixelThreshold:     cfg.PixelThreshold,
			ConfirmRows:        cfg.ConfirmRows,
		},
		filter:   NewFilter(cfg.MinMovement, cfg.MaxHashDistance),
		frames:   make(chan *frame.Frame, cfg.QueueSize),
		events:   make(chan Event, cfg.QueueSize),
		stopCh:   make(chan struct{}),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the worker.
func (s *Session) Start(ctx context.Context) {
	go s.run(ctx)
}

// Submit enqueues a frame for processing, blocking when the queue is full.
// Malformed frames are rejected synchronously and never reach the worker: an
// invalid first frame therefore fails before the session has a canvas.
func (s *Session) Submit(f *frame.Frame) error {
	if !f.Valid() {
		return fmt.Errorf("%w: unusable pixel data", ErrInvalidFrame)
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.frames <- f:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Stop requests finalization. Frames already queued are still processed.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
	})
}

// Cancel aborts the session. No appends happen after the worker observes it,
// which is at the latest before the next frame; the partial composite is
// discarded.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		s.closed.Store(true)
		close(s.cancelCh)
	})
}

// Events returns the session's event stream. The channel closes after the
// terminal event.
func (s *Session) Events() <-chan Event { return s.events }

// State returns the current lifecycle phase.
func (s *Session) State() State { return State(s.state.Load()) }

// Length returns the composite length accumulated so far, in rows.
func (s *Session) Length() int { return int(s.length.Load()) }

// Wait blocks until the session reaches Done or Aborted and hands the
// composite to the caller. Ownership of the pixel buffer transfers here.
func (s *Session) Wait(ctx context.Context) (*Composite, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	for {
		// Cancellation wins over any queued work.
		select {
		case <-ctx.Done():
			s.abort(ReasonContextDone)
			return
		case <-s.cancelCh:
			s.abort(ReasonCanceled)
			return
		default:
		}

		select {
		case <-ctx.Done():
			s.abort(ReasonContextDone)
			return
		case <-s.cancelCh:
			s.abort(ReasonCanceled)
			return
		case <-s.stopCh:
			if s.drain(ctx) {
				s.abort(ReasonCanceled)
				return
			}
			s.finalize()
			return
		case f := <-s.frames:
			if s.process(ctx, f) {
				s.finalize()
				return
			}
		}
	}
}

// drain processes frames that were queued before the stop request. It
// reports whether a cancellation interrupted it.
func (s *Session) drain(ctx context.Context) bool {
	for {
		select {
		case <-s.cancelCh:
			return true
		case f := <-s.frames:
			if s.process(ctx, f) {
				return false
			}
		default:
			return false
		}
	}
}

// process handles one frame; returning true forces finalization.
func (s *Session) process(ctx context.Context, f *frame.Frame) bool {
	ctx, span := trace.StartSpan(ctx, "stitch_frame")
	defer span.End()
	log := trace.Logger(ctx)
	span.SetAttr("seq", f.Seq)

	if s.cfg.Axis == AxisHorizontal {
		f = f.Rotate90()
	}

	// Frame #1 becomes the canvas in full; nothing to align against.
	if s.accum == nil {
		s.accum = NewAccumulator(f, s.cfg.Axis, s.cfg.MaxCompositeLength)
		s.last = f
		s.state.Store(int32(StateCapturing))
		s.length.Store(int64(f.Height))
		s.emit(Event{Type: EventProgress, Seq: f.Seq, Length: f.Height})
		log.Debug("session anchored", "seq", f.Seq, "rows", f.Height, "axis", s.cfg.Axis.String())
		return false
	}

	f = f.Normalize(s.accum.Composite().Width())
	res, matched := overlap.Match(s.last, f, s.params)
	dec := s.filter.Evaluate(res, matched, s.last, f, s.dir)
	s.dir = dec.Dir

	if !dec.Accept {
		s.emit(Event{Type: EventRejected, Seq: f.Seq, Length: s.Length(), Reason: dec.Reason})
		switch dec.Reason {
		case ReasonNoMovement:
			s.idle++
			if s.idle >= s.cfg.IdleThreshold {
				log.Info("end of content detected", "idle_frames", s.idle, "length", s.Length())
				return true
			}
		case ReasonUnrelatedFrame:
			// Not a state transition: the caller decides whether to keep
			// feeding frames or abort.
			log.Warn("unrelated frame", "seq", f.Seq, "last_seq", s.last.Seq)
		case ReasonDirectionReversal:
			log.Debug("direction reversal rejected", "seq", f.Seq, "offset", res.Offset, "dir", s.dir)
		}
		return false
	}

	if err := s.accum.Append(f, dec.Slice, s.dir); err != nil {
		if errors.Is(err, ErrCompositeTooLarge) {
			log.Info("composite limit reached", "length", s.Length())
			return true
		}
		log.Warn("append failed", "seq", f.Seq, "error", err)
		return false
	}
	s.idle = 0
	s.last = f
	s.length.Store(int64(s.accum.Composite().Length()))
	span.SetAttr("offset", res.Offset)
	span.SetAttr("confidence", res.Confidence)
	s.emit(Event{Type: EventProgress, Seq: f.Seq, Length: s.Length()})
	return false
}

func (s *Session) finalize() {
	s.closed.Store(true)
	s.state.Store(int32(StateFinalizing))
	if s.accum == nil {
		s.err = ErrEmptySession
		s.state.Store(int32(StateAborted))
		s.emitTerminal(Event{Type: EventAborted, Reason: ReasonEmptySession})
		close(s.events)
		return
	}
	s.result = s.accum.Composite()
	s.state.Store(int32(StateDone))
	s.emitTerminal(Event{Type: EventFinalized, Length: s.result.Length(), Composite: s.result})
	close(s.events)
}

func (s *Session) abort(reason Reason) {
	s.closed.Store(true)
	s.state.Store(int32(StateAborted))
	s.err = fmt.Errorf("%w: %s", ErrAborted, reason)
	s.emitTerminal(Event{Type: EventAborted, Reason: reason})
	close(s.events)
}

// emit never blocks; a lagging consumer loses feedback events, not results.
func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

// emitTerminal always lands. Feedback events are droppable, the terminal
// event is not: it sheds the oldest queued event until a slot opens. The
// terminal event is the last one sent, so it survives until close.
func (s *Session) emitTerminal(e Event) {
	for {
		select {
		case s.events <- e:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}
