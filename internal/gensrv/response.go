package gensrv

import (
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// responseKind tags which of the three directive patterns a Response
// carries.
type responseKind int

const (
	responseReply responseKind = iota
	responseNoReply
	responseStop
)

// Response is the structured value every Behavior method returns,
// instructing the dispatch loop how to proceed. It is built exclusively
// through Reply, NoReply, and Stop; WithSleep attaches an optional
// post-directive delay.
//
// Response is generic over the same Resp and State type parameters as the
// Process it belongs to, and the two are kept independent of any
// particular Req so that HandleCast and HandleSignal (which carry no
// replyTo) can return the same type as HandleCall.
type Response[Resp any, State any] struct {
	kind     responseKind
	reply    Resp
	replyTo  chan<- Resp
	state    State
	stopInfo Signal
	sleepFor fn.Option[time.Duration]
}

// Reply delivers resp into replyTo (best-effort, see Process dispatch) and
// adopts state as the process's new state. replyTo must be the same sink
// the behavior method was handed for this call; passing any other sink is
// a programmer error the framework cannot detect.
func Reply[Resp, State any](resp Resp, replyTo chan<- Resp, state State) Response[Resp, State] {
	return Response[Resp, State]{
		kind:    responseReply,
		reply:   resp,
		replyTo: replyTo,
		state:   state,
	}
}

// NoReply adopts state as the process's new state without delivering a
// reply. Valid for any callback; for a call, this is the delayed-reply
// pattern — the callback is expected to have stashed replyTo in state for
// a later cast or signal to complete.
func NoReply[Resp, State any](state State) Response[Resp, State] {
	return Response[Resp, State]{
		kind:  responseNoReply,
		state: state,
	}
}

// Stop adopts state, then instructs the dispatch loop to run
// HandleTerminate with info and exit the loop, publishing info as the
// terminal Signal.
func Stop[Resp, State any](info Signal, state State) Response[Resp, State] {
	return Response[Resp, State]{
		kind:     responseStop,
		state:    state,
		stopInfo: info,
	}
}

// WithSleep returns a copy of r with sleepFor set to d. The dispatch loop
// sleeps for d after applying r's pattern and before receiving the next
// envelope. Ignored when r is a Stop directive, since no further envelope
// is ever received.
func (r Response[Resp, State]) WithSleep(d time.Duration) Response[Resp, State] {
	r.sleepFor = fn.Some(d)
	return r
}
