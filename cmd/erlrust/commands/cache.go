package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/Rustixir/erlrust/internal/build"
	"github.com/Rustixir/erlrust/internal/gensrv"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/spf13/cobra"
)

// cacheTimeout bounds every Call/Cast/Signal issued by the demo.
var cacheTimeout time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Run a scripted demo of a key/value cache process",
	Long: `Spawns a named cache process and drives it through a scripted
sequence: Set via Cast, Get via Call, a delayed-reply Get, a trapped signal,
an untrapped exit signal against a second process that terminates it, a
wrong-type registry lookup, and finally a Stop of the first process.`,
	RunE: runCacheDemo,
}

func init() {
	cacheCmd.Flags().DurationVar(
		&cacheTimeout, "timeout", 2*time.Second,
		"Timeout applied to every Call/Cast/Signal",
	)
}

// cacheOp selects which operation a cacheRequest represents.
type cacheOp int

const (
	opGet cacheOp = iota
	opSet
	opDelete
	opGetDelayed
)

// cacheRequest is the single Req type the cache process's mailbox carries.
type cacheRequest struct {
	op    cacheOp
	key   string
	value string
}

// cacheResponse is the single Resp type: the looked-up value and whether the
// key was present.
type cacheResponse struct {
	value string
	found bool
}

// cacheState is the process's map plus a stashed reply sink for the
// delayed-reply scenario (a Get that only completes once a later Cast
// arrives to release it).
type cacheState struct {
	data    map[string]string
	pending chan<- cacheResponse
}

// cacheBehavior implements gensrv.Behavior[cacheRequest, cacheResponse, cacheState].
type cacheBehavior struct{}

func (cacheBehavior) HandleCall(
	ctx context.Context, req cacheRequest, replyTo chan<- cacheResponse,
	state cacheState,
) gensrv.Response[cacheResponse, cacheState] {

	switch req.op {
	case opGet:
		v, ok := state.data[req.key]
		return gensrv.Reply(cacheResponse{value: v, found: ok}, replyTo, state)

	case opGetDelayed:
		state.pending = replyTo
		return gensrv.NoReply[cacheResponse](state)

	default:
		return gensrv.Reply(cacheResponse{}, replyTo, state)
	}
}

func (cacheBehavior) HandleCast(
	ctx context.Context, req cacheRequest, state cacheState,
) gensrv.Response[cacheResponse, cacheState] {

	switch req.op {
	case opSet:
		state.data[req.key] = req.value

	case opDelete:
		delete(state.data, req.key)
	}

	// Releasing a pending delayed Get piggybacks on whatever Cast happens
	// to arrive next: a Set against the same key also completes it.
	if state.pending != nil {
		v, ok := state.data[req.key]
		sink := state.pending
		state.pending = nil

		select {
		case sink <- cacheResponse{value: v, found: ok}:
		default:
		}
	}

	return gensrv.NoReply[cacheResponse](state)
}

func (cacheBehavior) HandleSignal(
	ctx context.Context, info gensrv.Signal, state cacheState,
) gensrv.Response[cacheResponse, cacheState] {

	build.InfoS(ctx, "cache process received signal",
		"kind", info.Kind.String(), "description", string(info.Description))

	return gensrv.NoReply[cacheResponse](state)
}

func (cacheBehavior) HandleTerminate(
	ctx context.Context, info gensrv.Signal, state cacheState,
) {

	build.InfoS(ctx, "cache process terminating",
		"reason", info.Kind.String(), "entries", len(state.data))
}

// spawnCache builds and spawns a named cache process, registering it under
// name in reg. The *Process is returned alongside its Connection and
// JoinHandle since Stop is a Process method, not a Connection one.
func spawnCache(reg *gensrv.Registry, name string, trapExit bool) (*gensrv.Process[cacheRequest, cacheResponse, cacheState], gensrv.Connection[cacheRequest, cacheResponse], *gensrv.JoinHandle) {
	p := gensrv.New(gensrv.ProcessConfig[cacheRequest, cacheResponse, cacheState]{
		Registry: reg,
		Name:     fn.Some(name),
		Behavior: cacheBehavior{},
		InitState: cacheState{
			data: make(map[string]string),
		},
		TrapExit: trapExit,
	})
	conn, handle := p.Spawn()
	return p, conn, handle
}

func runCacheDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reg := gensrv.NewRegistry()

	proc, conn, handle := spawnCache(reg, "cache", true)
	fmt.Println("spawned cache process under name \"cache\"")

	if err := conn.Cast(ctx, cacheRequest{op: opSet, key: "greeting", value: "hello"}, cacheTimeout); err != nil {
		return fmt.Errorf("cast set failed: %w", err)
	}

	resp, err := conn.Call(ctx, cacheRequest{op: opGet, key: "greeting"}, cacheTimeout)
	if err != nil {
		return fmt.Errorf("call get failed: %w", err)
	}
	fmt.Printf("get greeting -> %q (found=%v)\n", resp.value, resp.found)

	looked, err := gensrv.Lookup[cacheRequest, cacheResponse](reg, "cache")
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	delayedDone := make(chan cacheResponse, 1)
	go func() {
		r, callErr := looked.Call(ctx, cacheRequest{op: opGetDelayed, key: "greeting"}, cacheTimeout)
		if callErr == nil {
			delayedDone <- r
		}
		close(delayedDone)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := conn.Cast(ctx, cacheRequest{op: opSet, key: "greeting", value: "hola"}, cacheTimeout); err != nil {
		return fmt.Errorf("cast release failed: %w", err)
	}

	if r, ok := <-delayedDone; ok {
		fmt.Printf("delayed get released -> %q (found=%v)\n", r.value, r.found)
	}

	trapped := gensrv.NewDisconnectSignal(
		gensrv.URL(uuid.NewString()), "peer briefly unreachable",
	)
	if err := conn.Signal(ctx, trapped, cacheTimeout); err != nil {
		return fmt.Errorf("trapped signal failed: %w", err)
	}
	fmt.Println("delivered a trapped disconnect signal, process is still alive")

	peerProc, peerConn, peerHandle := spawnCache(reg, "cache-peer", false)
	defer peerProc.Stop()
	exit := gensrv.NewExitSignal(gensrv.URL(uuid.NewString()), "linked peer exited")
	if err := peerConn.Signal(ctx, exit, cacheTimeout); err != nil {
		return fmt.Errorf("untrapped signal failed: %w", err)
	}

	final, err := peerHandle.Join(ctx)
	if err != nil {
		return fmt.Errorf("join after untrapped exit failed: %w", err)
	}
	fmt.Printf("untrapped peer terminated with signal kind=%s\n", final.Kind)

	_, mismatchErr := gensrv.Lookup[string, string](reg, "cache")
	fmt.Printf("wrong-type lookup against \"cache\": %v\n", mismatchErr)

	if err := stopAndJoin(ctx, proc, reg, "cache", handle); err != nil {
		return err
	}

	fmt.Println("cache process stopped cleanly")
	return nil
}

// stopAndJoin stops proc and waits, bounded by a local timeout, for the
// process's JoinHandle to report termination. proc is trapping exits in
// this demo, so termination is driven by Stop rather than a Signal.
func stopAndJoin(
	ctx context.Context, proc *gensrv.Process[cacheRequest, cacheResponse, cacheState],
	reg *gensrv.Registry, name string, handle *gensrv.JoinHandle,
) error {

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	proc.Stop()

	if _, err := handle.Join(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown join failed: %w", err)
	}

	if reg.Exist(name) {
		return fmt.Errorf("registry entry %q still present after shutdown", name)
	}

	return nil
}
