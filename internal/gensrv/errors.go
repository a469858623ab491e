package gensrv

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a Lookup found no entry registered under the given
// name.
var ErrNotFound = errors.New("gensrv: registry entry not found")

// ErrWrongType indicates a Lookup found an entry registered under the
// given name, but its concrete (Req, Resp) pair does not match the
// requested type parameters.
var ErrWrongType = errors.New("gensrv: registry entry type mismatch")

// ErrKind classifies the failure mode of a Connection send, carried by
// ServerError.
type ErrKind int

const (
	// ErrKindTimeout means the send could not enqueue within the
	// caller-supplied timeout. The original request is recoverable from
	// ServerError.Request.
	ErrKindTimeout ErrKind = iota

	// ErrKindClosed means the target mailbox was already closed at
	// enqueue time. The original request is recoverable from
	// ServerError.Request.
	ErrKindClosed

	// ErrKindInternal means the enqueue itself succeeded but no reply
	// ever arrived (Call only), or an enqueue failure occurred for a
	// reason that isn't retry-shaped (Signal only). ServerError.Request
	// is the zero value in this case.
	ErrKindInternal
)

// String renders the ErrKind for logging and error messages.
func (k ErrKind) String() string {
	switch k {
	case ErrKindTimeout:
		return "timeout"
	case ErrKindClosed:
		return "closed"
	case ErrKindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ServerError is returned by Connection.Call, Connection.Cast, and
// Connection.Signal whenever a send does not complete with an ordinary
// reply. It carries the original request back to the caller for Timeout
// and Closed, so the caller can retry or log it without having cloned the
// request up front.
type ServerError[Req any] struct {
	// Kind identifies which failure mode occurred.
	Kind ErrKind

	// Request is the original request value for ErrKindTimeout and
	// ErrKindClosed. It is the zero value for ErrKindInternal.
	Request Req
}

// Error implements the error interface.
func (e *ServerError[Req]) Error() string {
	switch e.Kind {
	case ErrKindTimeout:
		return fmt.Sprintf("gensrv: send timed out: %+v", e.Request)
	case ErrKindClosed:
		return fmt.Sprintf("gensrv: mailbox closed: %+v", e.Request)
	default:
		return "gensrv: internal server error"
	}
}

// newTimeoutError builds a ServerError carrying req as the timed-out
// request.
func newTimeoutError[Req any](req Req) *ServerError[Req] {
	return &ServerError[Req]{Kind: ErrKindTimeout, Request: req}
}

// newClosedError builds a ServerError carrying req as the request rejected
// by a closed mailbox.
func newClosedError[Req any](req Req) *ServerError[Req] {
	return &ServerError[Req]{Kind: ErrKindClosed, Request: req}
}

// newInternalError builds a ServerError with no recoverable request.
func newInternalError[Req any]() *ServerError[Req] {
	return &ServerError[Req]{Kind: ErrKindInternal}
}
