package gensrv

// URL is an opaque string-wrapped identifier naming the originator of a
// Signal. The framework never interprets its contents; it is carried
// purely for the benefit of user callbacks.
type URL string

// Description is an extensible reason code attached to a Signal. New
// reason codes can be introduced by callers without changing the Signal
// shape itself.
type Description string

// DescriptionNormal is the initial, always-available Description value.
const DescriptionNormal Description = "normal"

// SignalKind identifies which of the three Signal shapes is in play.
type SignalKind int

const (
	// SignalNormal indicates ordinary, non-exceptional termination or
	// notification. It carries no URL.
	SignalNormal SignalKind = iota

	// SignalExit indicates that some other party has exited and is
	// notifying this process of the fact.
	SignalExit

	// SignalDisconnect indicates that some other party has become
	// unreachable.
	SignalDisconnect
)

// String renders the SignalKind for logging.
func (k SignalKind) String() string {
	switch k {
	case SignalNormal:
		return "normal"
	case SignalExit:
		return "exit"
	case SignalDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Signal is an out-of-band notification delivered to a process either as
// the payload of a signal envelope or as the terminal reason published on
// a JoinHandle. It is purely informational: the framework never interprets
// a Signal's contents, only whether one arrived and whether the process
// traps it.
type Signal struct {
	// Kind selects which of Normal/Exit/Disconnect this Signal is.
	Kind SignalKind

	// URL identifies the originator for Exit and Disconnect signals. It
	// is the zero value for Normal.
	URL URL

	// Description carries the reason code. Defaults to
	// DescriptionNormal.
	Description Description
}

// NormalSignal is the Signal delivered on ordinary termination paths where
// no specific originator or reason is meaningful (e.g. the terminal value
// published after ctx cancellation with no Stop directive involved).
func NormalSignal() Signal {
	return Signal{Kind: SignalNormal, Description: DescriptionNormal}
}

// NewExitSignal builds an Exit signal for the given originator and reason.
func NewExitSignal(url URL, desc Description) Signal {
	return Signal{Kind: SignalExit, URL: url, Description: desc}
}

// NewDisconnectSignal builds a Disconnect signal for the given originator
// and reason.
func NewDisconnectSignal(url URL, desc Description) Signal {
	return Signal{Kind: SignalDisconnect, URL: url, Description: desc}
}
