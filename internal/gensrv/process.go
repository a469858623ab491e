package gensrv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Rustixir/erlrust/internal/build"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Behavior is user-supplied callback logic driving a Process. Each method
// receives the process's current state and returns a Response directing the
// dispatch loop what to do next; the returned Response's state becomes the
// process's state for the following envelope.
//
// A Behavior must not block indefinitely: the whole point of a mailbox is
// that one slow callback stalls every other sender to this process.
type Behavior[Req any, Resp any, State any] interface {
	// HandleCall handles a call envelope. Replying is optional: returning
	// NoReply stashes replyTo (via the closure or state) for a later
	// Reply from a cast or signal handler.
	HandleCall(ctx context.Context, req Req, replyTo chan<- Resp, state State) Response[Resp, State]

	// HandleCast handles a cast envelope. A cast carries no reply sink, so
	// a Reply directive it returns is delivered only into the sink passed
	// to Reply (e.g. a stashed call's replyTo); with a nil sink it is
	// dropped.
	HandleCast(ctx context.Context, req Req, state State) Response[Resp, State]

	// HandleSignal handles a signal envelope that reached the callback
	// layer, which happens only when the process traps exits (see
	// ProcessConfig.TrapExit). A Reply directive it returns is treated as
	// for HandleCast.
	HandleSignal(ctx context.Context, info Signal, state State) Response[Resp, State]

	// HandleTerminate runs exactly once, after the dispatch loop has
	// decided to exit (a Stop directive, an untrapped signal, or
	// mailbox/context shutdown) and before the mailbox is
	// closed. info is the terminal Signal that will be published on the
	// JoinHandle.
	HandleTerminate(ctx context.Context, info Signal, state State)
}

// ProcessConfig configures a new Process.
type ProcessConfig[Req any, Resp any, State any] struct {
	// Registry, if non-nil and Name is set, receives the process's
	// mailbox under Name when Spawn is called, and has that entry
	// removed when the process terminates.
	Registry *Registry

	// Name optionally registers this process under a well-known name at
	// spawn time.
	Name fn.Option[string]

	// MailboxSize is the mailbox's buffer capacity. Non-positive defaults
	// to 1.
	MailboxSize int

	// Behavior is the callback logic driving this process. Required.
	Behavior Behavior[Req, Resp, State]

	// InitState is the process's state at the time its first envelope is
	// dispatched.
	InitState State

	// TrapExit controls how signals of every kind are handled. If false
	// (the default), a signal terminates the process
	// immediately, bypassing HandleSignal, with the signal itself as the
	// terminal reason. If true, the signal is instead delivered to
	// HandleSignal like any other envelope, and termination is entirely
	// at the behavior's discretion.
	TrapExit bool
}

// Process owns a mailbox and the single goroutine draining it. The zero
// value is not usable; construct one with New.
type Process[Req any, Resp any, State any] struct {
	id       string
	name     fn.Option[string]
	behavior Behavior[Req, Resp, State]
	box      *mailbox[Req, Resp]
	registry *Registry
	trapExit bool
	state    State

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once

	done *joinState
}

var processSeq atomic64

// atomic64 is a trivial monotonic counter used only to give unnamed
// processes a distinct id for logging; it carries no other meaning.
type atomic64 struct {
	mu sync.Mutex
	n  uint64
}

func (a *atomic64) next() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.n++
	return a.n
}

// New constructs a Process from cfg. The returned Process is inert until
// Spawn is called.
func New[Req any, Resp any, State any](cfg ProcessConfig[Req, Resp, State]) *Process[Req, Resp, State] {
	ctx, cancel := context.WithCancel(context.Background())

	id := fmt.Sprintf("process-%d", processSeq.next())
	if cfg.Name.IsSome() {
		id = cfg.Name.UnwrapOr("")
	}

	return &Process[Req, Resp, State]{
		id:       id,
		name:     cfg.Name,
		behavior: cfg.Behavior,
		box:      newMailbox[Req, Resp](cfg.MailboxSize),
		registry: cfg.Registry,
		trapExit: cfg.TrapExit,
		state:    cfg.InitState,
		ctx:      ctx,
		cancel:   cancel,
		done:     &joinState{ch: make(chan struct{})},
	}
}

// Spawn registers the process (if named) and starts its dispatch loop in a
// new goroutine. It is safe to call only once; later calls have no effect
// and return the same Connection and a fresh JoinHandle still bound to the
// one underlying loop.
func (p *Process[Req, Resp, State]) Spawn() (Connection[Req, Resp], *JoinHandle) {
	p.startOnce.Do(func() {
		if p.name.IsSome() && p.registry != nil {
			p.registry.Register(p.name.UnwrapOr(""), p.box)
		}

		build.DebugS(p.ctx, "spawning process", "process_id", p.id)
		go p.run()
	})

	return newConnection(p.box), &JoinHandle{done: p.done}
}

// Stop cancels the process's context, causing the dispatch loop to exit at
// its next opportunity (either immediately, if blocked receiving, or after
// the in-flight envelope finishes processing; envelopes still queued at that
// point may or may not be dispatched before the loop notices). It does not
// wait for
// termination; use the JoinHandle returned by Spawn for that.
func (p *Process[Req, Resp, State]) Stop() {
	p.cancel()
}

// run is the dispatch loop body. It always exits through finish, which
// guarantees HandleTerminate runs exactly once, the mailbox is closed, and
// only then the terminal Signal is published on p.done.
func (p *Process[Req, Resp, State]) run() {
	var final Signal

	for {
		env, ok := p.box.receive(p.ctx)
		if !ok {
			final = NormalSignal()
			break
		}

		resp, stopped, stopSignal := p.dispatch(env)
		if stopped {
			final = stopSignal
			break
		}

		if resp.sleepFor.IsSome() {
			select {
			case <-time.After(resp.sleepFor.UnwrapOr(0)):
			case <-p.ctx.Done():
				final = NormalSignal()
				p.finish(final)
				return
			}
		}
	}

	p.finish(final)
}

// dispatch applies one envelope to the current behavior and state. It
// returns the Response produced (for sleep handling) along with whether the
// process should now terminate and, if so, the terminal Signal.
//
// A panicking callback is recovered here and converted into termination: the
// process cannot be trusted to make forward progress after a panic, so it is
// treated exactly like a Stop directive with an Exit signal describing the
// panic.
func (p *Process[Req, Resp, State]) dispatch(env Envelope[Req, Resp]) (resp Response[Resp, State], stop bool, stopSignal Signal) {
	defer func() {
		if r := recover(); r != nil {
			build.ErrorS(p.ctx, "process callback panicked",
				fmt.Errorf("%v", r), "process_id", p.id)

			stop = true
			stopSignal = NewExitSignal(URL(p.id), Description(fmt.Sprintf("panic: %v", r)))
		}
	}()

	switch env.Kind() {
	case EnvelopeCall:
		req, _ := env.Request()
		replyTo, _ := env.ReplyTo()

		resp = p.behavior.HandleCall(p.ctx, req, replyTo, p.state)
		p.applyResponse(resp, replyTo)

	case EnvelopeCast:
		req, _ := env.Request()

		resp = p.behavior.HandleCast(p.ctx, req, p.state)
		p.applyResponse(resp, nil)

	case EnvelopeSignal:
		info, _ := env.SignalInfo()

		if !p.trapExit {
			return resp, true, info
		}

		resp = p.behavior.HandleSignal(p.ctx, info, p.state)
		p.applyResponse(resp, nil)
	}

	if resp.kind == responseStop {
		return resp, true, resp.stopInfo
	}

	return resp, false, Signal{}
}

// applyResponse adopts resp's state and, for a Reply directive, delivers the
// reply. Delivery is best-effort and never blocks the dispatch loop: replyTo
// is a buffered channel of capacity 1 created fresh per Call, so a reply to a
// caller that has already given up lands in the unread buffer, and a reply
// into a buffer that already holds a value is skipped.
func (p *Process[Req, Resp, State]) applyResponse(resp Response[Resp, State], replyTo chan<- Resp) {
	p.state = resp.state

	if resp.kind != responseReply {
		return
	}

	sink := resp.replyTo
	if sink == nil {
		sink = replyTo
	}
	if sink == nil {
		return
	}

	select {
	case sink <- resp.reply:
	default:
	}
}

// finish runs HandleTerminate, unregisters the process from its registry if
// named, closes the mailbox, and publishes final on the JoinHandle.
func (p *Process[Req, Resp, State]) finish(final Signal) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				build.ErrorS(p.ctx, "terminate callback panicked",
					fmt.Errorf("%v", r), "process_id", p.id)
			}
		}()
		p.behavior.HandleTerminate(p.ctx, final, p.state)
	}()

	if p.name.IsSome() && p.registry != nil {
		p.registry.Unregister(p.name.UnwrapOr(""))
	}

	p.box.closeMailbox()
	p.cancel()

	p.done.signal = final
	close(p.done.ch)

	build.DebugS(p.ctx, "process terminated",
		"process_id", p.id, "signal", final.Kind.String())
}

// joinState is the shared box a JoinHandle reads from. signal is written
// exactly once, by finish, strictly before ch is closed; closing ch
// happens-before any receive on it unblocks, so every JoinHandle.Join call
// (however many there are) observes a fully-written signal with no lock.
type joinState struct {
	ch     chan struct{}
	signal Signal
}

// JoinHandle observes a Process's termination. It is returned by Spawn and
// is independent of any Connection: holding one does not keep the process
// alive, and dropping one has no effect on the process. Multiple goroutines
// may call Join on the same JoinHandle, or on copies of it.
type JoinHandle struct {
	done *joinState
}

// Join blocks until the process terminates and returns its terminal Signal,
// or returns ctx's error if ctx is done first.
func (j *JoinHandle) Join(ctx context.Context) (Signal, error) {
	select {
	case <-j.done.ch:
		return j.done.signal, nil
	case <-ctx.Done():
		return Signal{}, ctx.Err()
	}
}
