package genutil

import (
	"context"
	"sync"

	"github.com/Rustixir/erlrust/internal/build"
	"github.com/Rustixir/erlrust/internal/gensrv"
)

// member is one process tracked by a ProcessGroup. stop triggers shutdown;
// handle observes completion. Both are stored as plain values rather than
// the generic *gensrv.Process itself, since a ProcessGroup holds processes
// of differing (Req, Resp, State) type parameters side by side.
type member struct {
	stop   func()
	handle *gensrv.JoinHandle
}

// ProcessGroup coordinates shutdown across a set of otherwise-unrelated
// processes: not a supervision tree (it never restarts a member), just a
// single place to Stop everything and wait for every member to actually
// finish terminating.
type ProcessGroup struct {
	mu      sync.Mutex
	members []member
}

// NewProcessGroup returns an empty ProcessGroup.
func NewProcessGroup() *ProcessGroup {
	return &ProcessGroup{}
}

// Add registers a process with the group. stop and handle are typically a
// *gensrv.Process's Stop method and the JoinHandle returned by its Spawn
// call.
func (g *ProcessGroup) Add(stop func(), handle *gensrv.JoinHandle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.members = append(g.members, member{stop: stop, handle: handle})
}

// Shutdown calls Stop on every registered member, then waits for all of them
// to terminate or for ctx to expire, whichever comes first. It returns
// ctx.Err() if the deadline is hit before every member has joined.
func (g *ProcessGroup) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	members := make([]member, len(g.members))
	copy(members, g.members)
	g.mu.Unlock()

	build.InfoS(ctx, "process group shutting down",
		"num_members", len(members))

	for _, m := range members {
		m.stop()
	}

	done := make(chan struct{})
	go func() {
		for _, m := range members {
			// A cancelled ctx here just means Join returns
			// immediately with ctx.Err(); the loop still visits
			// every member so a later successful Join isn't
			// skipped by an earlier timeout.
			_, _ = m.handle.Join(ctx)
		}
		close(done)
	}()

	select {
	case <-done:
		build.InfoS(ctx, "process group shutdown completed")
		return nil
	case <-ctx.Done():
		build.ErrorS(ctx, "process group shutdown incomplete", ctx.Err())
		return ctx.Err()
	}
}

// Len reports the number of members currently registered.
func (g *ProcessGroup) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.members)
}
