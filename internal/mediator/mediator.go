// Package mediator is the send orchestrator: the state machine that
// claims an intercepted send, races redaction calls against the consent
// surface, reinjects the chosen content, and decides whether submission
// is automatic or stays with the user. One cycle is in flight at a
// time; every exit path releases the guard.
package mediator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promptveil/promptveil/internal/backend"
	"github.com/promptveil/promptveil/internal/capture"
	"github.com/promptveil/promptveil/internal/consent"
	"github.com/promptveil/promptveil/internal/guard"
	"github.com/promptveil/promptveil/internal/inject"
	"github.com/promptveil/promptveil/internal/locator"
	"github.com/promptveil/promptveil/internal/page"
	"github.com/promptveil/promptveil/internal/replywatch"
)

// Phase is the orchestrator's position in one send cycle.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseIntercepted     Phase = "intercepted"
	PhaseScanning        Phase = "scanning"
	PhaseAwaitingConsent Phase = "awaiting_consent"
	PhaseReinjecting     Phase = "reinjecting"
	PhaseReadyToSend     Phase = "ready_to_send"
	PhaseSent            Phase = "sent"
	PhaseCancelled       Phase = "cancelled"
	PhaseFailed          Phase = "failed"
)

// Channel identifies a binary payload kind. Text has no pending slot;
// it is read from the input surface at interception.
type Channel string

const (
	ChannelImage Channel = "image"
	ChannelData  Channel = "data"
)

// PendingUpload is a file waiting for its send cycle. One slot per
// channel, last-write-wins; consumed exactly once.
type PendingUpload struct {
	File       page.File
	Channel    Channel
	CapturedAt time.Time
}

// Config are the orchestrator's policy knobs.
type Config struct {
	// TextOnlyConsent opens the consent surface even for pure text
	// cycles. When false the surface is bypassed and TextOnlyDefault
	// applies.
	TextOnlyConsent bool

	// TextOnlyDefault is the selection used when the consent surface
	// is bypassed for a text-only cycle. Explicit configuration, never
	// inferred.
	TextOnlyDefault consent.Selection

	// ScanTimeout bounds each redaction call of a cycle.
	ScanTimeout time.Duration
}

// DefaultConfig presents consent for every cycle and defaults bypassed
// text-only cycles to the original text.
func DefaultConfig() Config {
	return Config{
		TextOnlyConsent: true,
		TextOnlyDefault: consent.Original,
		ScanTimeout:     15 * time.Second,
	}
}

// Mediator coordinates one host document's send pipeline.
type Mediator struct {
	doc     page.Document
	loc     *locator.Locator
	state   *guard.State
	grd     *guard.Guard
	client  *backend.Client
	surface consent.Mediator
	engine  *inject.Engine
	watcher *replywatch.Watcher
	replies ReplySurface
	store   *capture.Store
	log     *zap.Logger
	cfg     Config

	mu       sync.Mutex
	uploads  map[Channel]*PendingUpload
	phase    Phase
	lastScan *backend.ScanResult
	lastRep  *replywatch.Capture

	// Done receives each cycle's final phase. Buffered; drop-on-full.
	// Simulate and tests subscribe, live runs leave it nil.
	Done chan Phase
}

// Options carries the collaborators a Mediator is built from.
type Options struct {
	Doc     page.Document
	Locator *locator.Locator
	Client  *backend.Client
	Surface consent.Mediator
	Replies ReplySurface
	Store   *capture.Store
	Log     *zap.Logger
	Config  Config
}

// New wires a mediator over a host document. The consent surface is
// gated so cycles can never stack prompts.
func New(opts Options) *Mediator {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := opts.Config
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = DefaultConfig().ScanTimeout
	}
	if cfg.TextOnlyDefault == "" {
		cfg.TextOnlyDefault = consent.Original
	}

	m := &Mediator{
		doc:     opts.Doc,
		loc:     opts.Locator,
		state:   guard.NewState(),
		client:  opts.Client,
		surface: consent.NewGate(opts.Surface),
		replies: opts.Replies,
		store:   opts.Store,
		log:     log,
		cfg:     cfg,
		uploads: make(map[Channel]*PendingUpload),
		phase:   PhaseIdle,
	}
	m.grd = guard.New(m.state, m.onIntercept)
	m.engine = inject.New(opts.Doc, opts.Locator, log)
	m.watcher = replywatch.New(opts.Doc, opts.Locator, log, m.onReply)
	return m
}

// Attach installs the guard's capturing interceptor. The returned
// function detaches it.
func (m *Mediator) Attach() (detach func()) {
	return m.grd.Attach(m.doc)
}

// Watcher exposes the reply watcher so callers can run it.
func (m *Mediator) Watcher() *replywatch.Watcher { return m.watcher }

// Engine exposes the reinjection engine (reply insert, tests).
func (m *Mediator) Engine() *inject.Engine { return m.engine }

// State exposes the guard state for inspection.
func (m *Mediator) State() *guard.State { return m.state }

// Phase returns the orchestrator's current phase.
func (m *Mediator) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Mediator) setPhase(p Phase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
}

// OfferUpload stages a file for the next send cycle. A second file on
// the same channel overwrites the first: the most recent file wins.
func (m *Mediator) OfferUpload(ch Channel, f page.File) {
	m.mu.Lock()
	m.uploads[ch] = &PendingUpload{File: f, Channel: ch, CapturedAt: time.Now()}
	m.mu.Unlock()
	m.log.Debug("upload staged", zap.String("channel", string(ch)), zap.String("file", f.Name))
}

// ClearUploads drops all staged files.
func (m *Mediator) ClearUploads() {
	m.mu.Lock()
	m.uploads = make(map[Channel]*PendingUpload)
	m.mu.Unlock()
}

// takeUploads consumes both slots; stale uploads are discarded with
// their cycle.
func (m *Mediator) takeUploads() map[Channel]*PendingUpload {
	m.mu.Lock()
	defer m.mu.Unlock()
	got := m.uploads
	m.uploads = make(map[Channel]*PendingUpload)
	return got
}

// onIntercept runs synchronously inside event delivery with the claim
// already taken; the cycle itself runs on its own goroutine.
func (m *Mediator) onIntercept(t guard.Trigger) {
	m.setPhase(PhaseIntercepted)
	go m.runCycle(context.Background(), t)
}

func (m *Mediator) finish(p Phase) {
	m.setPhase(p)
	if m.Done != nil {
		select {
		case m.Done <- p:
		default:
		}
	}
}
