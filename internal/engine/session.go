package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/trie"
)

// Recorder persists session steps. Implemented by store.Store.
type Recorder interface {
	BeginTrace(ctx context.Context, t ir.Trace) error
	RecordStep(ctx context.Context, s ir.Step) error
}

// Session holds the one composition in flight and applies Transition to it.
//
// Calls are serialized by an internal mutex, so a Session may be shared by
// a key-handling goroutine and, for example, a dictionary watcher. The host
// must still deliver keys in the order they arrive.
//
// When a Recorder is configured every state-changing operation is recorded
// as a step of the current trace. A trace starts lazily with the first
// recorded step and ends when the dictionary is swapped. Recorder failures
// are logged and processing continues: the composition never depends on the
// recording.
type Session struct {
	mu      sync.Mutex
	state   State
	pending *trie.Node // dictionary waiting for the composition to end

	recorder Recorder
	traceGen TraceIDGenerator
	logger   *slog.Logger

	traceID     string
	clock       *Clock
	fingerprint string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithActivator replaces DefaultActivator.
func WithActivator(r rune) SessionOption {
	return func(s *Session) { s.state.activator = r }
}

// WithRecorder records every step.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithTraceIDGenerator overrides the UUIDv7 trace IDs.
func WithTraceIDGenerator(g TraceIDGenerator) SessionOption {
	return func(s *Session) { s.traceGen = g }
}

// WithLogger sets the session logger. The default is slog.Default().
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an inactive session over root.
func NewSession(root *trie.Node, opts ...SessionOption) *Session {
	s := &Session{
		state:    NewState(root, DefaultActivator),
		traceGen: UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActivateOrStep processes one key with a background context.
func (s *Session) ActivateOrStep(key ir.Key) []ir.Intent {
	return s.Step(context.Background(), key)
}

// Step processes one key and returns the intents for the host.
//
// While inactive, only a key starting with the activator does anything;
// any other key returns nil and the host keeps it.
func (s *Session) Step(ctx context.Context, key ir.Key) []ir.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.active && !startsWithActivator(key, s.state.activator) {
		return nil
	}

	next, intents, fired := Apply(s.state, key)
	s.state = next

	s.logger.Debug("key processed",
		"key", ir.FormatKey(key),
		"rules", strings.Join(fired, ","),
		"intents", ir.FormatIntents(intents),
		"active", next.active)

	s.record(ctx, ir.Step{Op: ir.OpKey, Key: key, Intents: intents, Rules: fired})
	s.applyPendingLocked()
	return intents
}

// CurrentState returns a snapshot of the current state.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SelectCandidateByIndex moves the selection to absolute index i, as a
// pointer click on the candidate panel would. It never commits. It reports
// whether the selection changed.
func (s *Session) SelectCandidateByIndex(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.active {
		return false
	}
	next := s.state.SelectCandidate(i)
	if next.window.Equal(s.state.window) {
		return false
	}
	s.state = next
	s.record(context.Background(), ir.Step{Op: ir.OpSelect, Index: i})
	return true
}

// Deactivate force-resets to the canonical inactive state, dropping any
// composition and its history, e.g. when the host loses focus.
func (s *Session) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsCanonicalInactive() {
		return
	}
	s.state = s.state.reset()
	s.logger.Debug("session deactivated")
	s.record(context.Background(), ir.Step{Op: ir.OpDeactivate})
	s.applyPendingLocked()
}

// SwapDictionary replaces the trie. An inactive session switches at once;
// an active one keeps composing against the old trie and switches when the
// composition ends. It reports whether the swap happened immediately.
func (s *Session) SwapDictionary(root *trie.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if root == nil {
		root = trie.Empty()
	}
	s.pending = root
	if !s.state.IsCanonicalInactive() {
		s.logger.Debug("dictionary swap deferred until composition ends")
		return false
	}
	s.applyPendingLocked()
	return true
}

// TraceID returns the current trace ID, or "" when no trace is open.
func (s *Session) TraceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traceID
}

func (s *Session) applyPendingLocked() {
	if s.pending == nil || !s.state.IsCanonicalInactive() {
		return
	}
	s.state = NewState(s.pending, s.state.activator)
	s.pending = nil
	if s.traceID != "" {
		s.logger.Debug("trace closed by dictionary swap", "trace", s.traceID)
	}
	s.traceID = ""
	s.fingerprint = ""
	s.logger.Info("dictionary swapped", "entries", s.state.Root().Stats().Entries)
}

// record stamps and persists a step. Called with mu held.
func (s *Session) record(ctx context.Context, step ir.Step) {
	if s.recorder == nil {
		return
	}
	if s.traceID == "" && !s.beginTraceLocked(ctx) {
		return
	}

	step.TraceID = s.traceID
	step.Seq = s.clock.Next()
	step.StateDigest = s.state.Digest()
	id, err := ir.StepID(step.TraceID, step.Seq, step.Op, step.Key, step.Index)
	if err != nil {
		s.logger.Warn("step id failed", "trace", s.traceID, "seq", step.Seq, "error", err)
		return
	}
	step.ID = id

	if err := s.recorder.RecordStep(ctx, step); err != nil {
		s.logger.Warn("record step failed, continuing",
			"trace", s.traceID,
			"seq", step.Seq,
			"error", err)
	}
}

func (s *Session) beginTraceLocked(ctx context.Context) bool {
	if s.fingerprint == "" {
		fp, err := s.state.Root().Fingerprint()
		if err != nil {
			s.logger.Warn("dictionary fingerprint failed, not recording", "error", err)
			return false
		}
		s.fingerprint = fp
	}

	trace := ir.Trace{
		ID:             s.traceGen.Generate(),
		DictionaryHash: s.fingerprint,
		Activator:      string(s.state.activator),
		EngineVersion:  ir.EngineVersion,
		TraceVersion:   ir.TraceVersion,
	}
	if err := s.recorder.BeginTrace(ctx, trace); err != nil {
		s.logger.Warn("begin trace failed, not recording", "error", err)
		return false
	}
	s.traceID = trace.ID
	s.clock = NewClock()
	s.logger.Debug("trace started", "trace", trace.ID)
	return true
}

func startsWithActivator(k ir.Key, activator rune) bool {
	if k.Kind != ir.KeyCharacters {
		return false
	}
	r, size := utf8.DecodeRuneInString(k.Text)
	return size > 0 && r == activator
}
