package gensrv

import (
	"context"
	"time"
)

// Connection is a cheaply-copyable, typed client-side handle over a
// process's mailbox. Connection values obtained from the same Process (via
// Spawn or Lookup) all share the same underlying mailbox, so ordering
// guarantees (§4.2) hold across copies of one Connection as well as across
// freshly Looked-up ones.
type Connection[Req, Resp any] struct {
	box *mailbox[Req, Resp]
}

// newConnection wraps box in a Connection. Unexported: callers only ever
// obtain a Connection from Process.Spawn or gensrv.Lookup.
func newConnection[Req, Resp any](box *mailbox[Req, Resp]) Connection[Req, Resp] {
	return Connection[Req, Resp]{box: box}
}

// Call sends req as a call envelope and blocks for the reply. It returns
// *ServerError[Req] with Kind ErrKindTimeout if the envelope could not be
// enqueued within timeout, ErrKindClosed if the mailbox was already
// closed, or ErrKindInternal if the envelope was enqueued but ctx ended
// before a reply arrived. ctx additionally bounds the reply await. Call does
// not observe the process terminating or the callback dropping the reply
// sink: in those cases it keeps waiting until ctx is done.
func (c Connection[Req, Resp]) Call(ctx context.Context, req Req, timeout time.Duration) (Resp, error) {
	var zero Resp

	replyCh := make(chan Resp, 1)
	env := NewCall[Req, Resp](req, replyCh)

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.box.send(sendCtx, env) {
		if c.box.isClosed() {
			return zero, newClosedError(req)
		}
		return zero, newTimeoutError(req)
	}

	select {
	case resp := <-replyCh:
		return resp, nil
	case <-ctx.Done():
		return zero, newInternalError[Req]()
	}
}

// Cast sends req as a fire-and-forget cast envelope. It returns
// *ServerError[Req] with the same Timeout/Closed semantics as Call; no
// reply is ever awaited.
func (c Connection[Req, Resp]) Cast(ctx context.Context, req Req, timeout time.Duration) error {
	env := NewCast[Req, Resp](req)

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.box.send(sendCtx, env) {
		if c.box.isClosed() {
			return newClosedError(req)
		}
		return newTimeoutError(req)
	}
	return nil
}

// Signal sends info as a signal envelope. Any enqueue failure, for any
// reason, collapses to ErrKindInternal: signal payloads are not
// retryable by value, so there is no request to hand back.
func (c Connection[Req, Resp]) Signal(ctx context.Context, info Signal, timeout time.Duration) error {
	env := NewSignalEnvelope[Req, Resp](info)

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !c.box.send(sendCtx, env) {
		return newInternalError[Req]()
	}
	return nil
}
