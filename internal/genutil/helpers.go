// Package genutil provides convenience helpers built on top of gensrv:
// typed response narrowing, broadcast cast/signal, and fan-out call helpers
// for working with several Connections at once.
package genutil

import (
	"context"
	"fmt"
	"time"

	"github.com/Rustixir/erlrust/internal/gensrv"
)

// CallTyped issues a Call and additionally asserts the response to T. This
// is useful when Resp is a union-style interface and the caller expects one
// particular concrete implementation back.
func CallTyped[Req any, Resp any, T any](
	ctx context.Context,
	conn gensrv.Connection[Req, Resp],
	req Req,
	timeout time.Duration,
) (T, error) {

	resp, err := conn.Call(ctx, req, timeout)
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := any(resp).(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf(
			"genutil: unexpected response type: got %T, want %T",
			resp, zero,
		)
	}

	return typed, nil
}

// CastAll sends req as a Cast to every connection in conns. It returns the
// first error encountered, if any, but does not stop early: every
// connection is attempted regardless of earlier failures.
func CastAll[Req any, Resp any](
	ctx context.Context,
	conns []gensrv.Connection[Req, Resp],
	req Req,
	timeout time.Duration,
) error {

	var firstErr error
	for _, conn := range conns {
		if err := conn.Cast(ctx, req, timeout); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SignalAll sends info as a Signal to every connection in conns, the same
// way CastAll does for casts.
func SignalAll[Req any, Resp any](
	ctx context.Context,
	conns []gensrv.Connection[Req, Resp],
	info gensrv.Signal,
	timeout time.Duration,
) error {

	var firstErr error
	for _, conn := range conns {
		if err := conn.Signal(ctx, info, timeout); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// callResult pairs a Call's outcome with the index of the connection it came
// from, so ParallelCall can report results in input order despite resolving
// them concurrently.
type callResult[Resp any] struct {
	idx  int
	resp Resp
	err  error
}

// ParallelCall issues the same req as a concurrent Call against every
// connection in conns and returns the responses in the same order as conns.
// Each element's error is independent: one connection timing out does not
// affect another's result.
func ParallelCall[Req any, Resp any](
	ctx context.Context,
	conns []gensrv.Connection[Req, Resp],
	req Req,
	timeout time.Duration,
) ([]Resp, []error) {

	resultCh := make(chan callResult[Resp], len(conns))
	for i, conn := range conns {
		go func(idx int, c gensrv.Connection[Req, Resp]) {
			resp, err := c.Call(ctx, req, timeout)
			resultCh <- callResult[Resp]{idx: idx, resp: resp, err: err}
		}(i, conn)
	}

	resps := make([]Resp, len(conns))
	errs := make([]error, len(conns))
	for range conns {
		r := <-resultCh
		resps[r.idx] = r.resp
		errs[r.idx] = r.err
	}

	return resps, errs
}
