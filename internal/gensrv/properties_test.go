package gensrv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// orderState accumulates every value HandleCast has seen, in the order it
// was dispatched.
type orderState struct {
	seen []int
}

type orderBehavior struct{}

// HandleCall replies with the number of values seen for req == 0, and with
// the req-th value seen (1-based) for 1 <= req <= len(seen).
func (orderBehavior) HandleCall(ctx context.Context, req int, replyTo chan<- int, state orderState) Response[int, orderState] {
	if req >= 1 && req <= len(state.seen) {
		return Reply(state.seen[req-1], replyTo, state)
	}
	return Reply(len(state.seen), replyTo, state)
}

func (orderBehavior) HandleCast(ctx context.Context, req int, state orderState) Response[int, orderState] {
	state.seen = append(state.seen, req)
	return NoReply[int, orderState](state)
}

func (orderBehavior) HandleSignal(ctx context.Context, info Signal, state orderState) Response[int, orderState] {
	return NoReply[int, orderState](state)
}

func (orderBehavior) HandleTerminate(ctx context.Context, info Signal, state orderState) {}

// TestFIFOOrderingProperty checks P1: for any sequence of values sent from a
// single goroutine via Cast, the process dispatches them in the order they
// were enqueued.
func TestFIFOOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		values := rapid.SliceOfN(rapid.IntRange(0, 1000), 0, 50).Draw(t, "values")

		p := New(ProcessConfig[int, int, orderState]{
			Behavior:    orderBehavior{},
			MailboxSize: 8,
		})
		conn, handle := p.Spawn()

		ctx := context.Background()
		for _, v := range values {
			require.NoError(t, conn.Cast(ctx, v, time.Second))
		}

		// A trailing Call forces the loop to drain every prior Cast
		// before replying, since dispatch is strictly sequential.
		count, err := conn.Call(ctx, 0, time.Second)
		require.NoError(t, err)
		require.Equal(t, len(values), count)

		for i, v := range values {
			got, err := conn.Call(ctx, i+1, time.Second)
			require.NoError(t, err)
			require.Equal(t, v, got)
		}

		p.Stop()
		_, _ = handle.Join(ctx)
	})
}

// TestCallTimeoutReturnsOriginalRequestProperty checks P3: whatever value is
// passed to a Call that cannot be enqueued before its timeout, the resulting
// error carries that exact value back.
func TestCallTimeoutReturnsOriginalRequestProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		req := rapid.Int().Draw(t, "req")

		box := newMailbox[int, int](1)
		require.True(t, box.send(context.Background(), NewCast[int, int](0)))

		conn := newConnection(box)
		_, err := conn.Call(context.Background(), req, 5*time.Millisecond)
		require.Error(t, err)

		var serverErr *ServerError[int]
		require.ErrorAs(t, err, &serverErr)
		require.Equal(t, ErrKindTimeout, serverErr.Kind)
		require.Equal(t, req, serverErr.Request)
	})
}

// TestClosedMailboxPropagatesProperty checks P4: once a mailbox is closed,
// every subsequent Call, Cast, and Signal against it fails, regardless of
// how many operations are attempted.
func TestClosedMailboxPropagatesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		box := newMailbox[int, int](4)
		box.closeMailbox()

		conn := newConnection(box)
		numOps := rapid.IntRange(1, 10).Draw(t, "numOps")

		for i := 0; i < numOps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				_, err := conn.Call(context.Background(), i, time.Second)
				require.Error(t, err)
			case 1:
				err := conn.Cast(context.Background(), i, time.Second)
				require.Error(t, err)
			case 2:
				err := conn.Signal(context.Background(), NormalSignal(), time.Second)
				require.Error(t, err)
			}
		}
	})
}
