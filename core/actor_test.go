package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/troupe/core"
)

// loudEcho extends echo and overrides its ping handler.
type loudEcho struct {
	echo `mapstructure:",squash"`
}

func (*loudEcho) Kind() string { return "loud_echo" }

var loudEchoHandlers = core.Handle(core.NewHandlers(echoHandlers), (*loudEcho).onLoudPing)

func (*loudEcho) Handlers() *core.Handlers { return loudEchoHandlers }

func (l *loudEcho) onLoudPing(msg *ping) core.Replies {
	l.Seen = append(l.Seen, "LOUD "+msg.Label)
	return core.NoReplies()
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "receive_increment", core.HandlerName("Increment"))
	assert.Equal(t, "receive_ping", core.HandlerName("ping"))
}

func TestReceiveWithoutHandlerIsNoop(t *testing.T) {
	e := newEcho(1)
	e.Seen = []string{"before"}

	msgs, err := core.Collect(core.Receive(e, core.Send(&pong{Label: "x"}, "", e.Addr())))
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, []string{"before"}, e.Seen)

	_, err = core.Collect(core.Receive(e, nil))
	assert.ErrorIs(t, err, core.ErrNilMessage)
}

func TestDispatchWalksFromMostSpecific(t *testing.T) {
	l := &loudEcho{echo: *newEcho(1)}

	_, err := core.Collect(core.Receive(l, core.Send(&ping{Label: "hi", Left: 1}, "", l.Addr())))
	require.NoError(t, err)
	assert.Equal(t, []string{"LOUD hi"}, l.Seen)

	// boom is only defined on the embedded echo table
	_, err = core.Collect(core.Receive(l, core.Send(&boom{}, "", l.Addr())))
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{"receive_boom", "receive_ping"}, l.Handlers().Names())
	assert.True(t, core.Handles(l, "boom"))
	assert.False(t, core.Handles(l, "pong"))
}

func TestHandlersAreSharedPerType(t *testing.T) {
	a, b := newEcho(1), newEcho(3)
	assert.Same(t, a.Handlers(), b.Handlers())

	// a table resolved from one instance still acts on the receiver it is given
	fn, ok := a.Handlers().Lookup("ping")
	require.True(t, ok)
	_, err := core.Collect(fn(b, core.Send(&ping{Label: "b"}, "", b.Addr())))
	require.NoError(t, err)
	assert.Empty(t, a.Seen)
	assert.Equal(t, []string{"b"}, b.Seen)

	fn, ok = newSplitter("x").Handlers().Lookup("ping")
	require.True(t, ok)
	_, err = core.Collect(fn(a, core.Send(&ping{}, "", a.Addr())))
	assert.ErrorIs(t, err, core.ErrHandlerMismatch)
}

func TestDispatchUsesRuntimeType(t *testing.T) {
	s := newSplitter("a")
	var m core.Message = core.Send(&ping{}, "", s.Addr())

	msgs, err := core.Collect(core.Receive(s, m))
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestAs(t *testing.T) {
	var a core.Actor = newEcho(1)

	e, err := core.As[*echo](a)
	require.NoError(t, err)
	assert.Same(t, a, e)

	_, err = core.As[*splitter](a)
	assert.ErrorIs(t, err, core.ErrCapabilityNotFound)
}

func TestReplyHelpers(t *testing.T) {
	a := core.Send(&pong{Label: "a"}, "", "")
	b := core.Send(&pong{Label: "b"}, "", "")

	msgs, err := core.Collect(core.RequireReply(core.Reply(a, b)))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, labels(msgs))

	_, err = core.Collect(core.RequireReply(core.NoReplies()))
	assert.ErrorIs(t, err, core.ErrNoReply)

	msgs, err = core.Collect(core.Take(core.Reply(a, b), 1))
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestReplyToLeavesParentUntouched(t *testing.T) {
	sender, receiver := core.NewActorID(), core.NewActorID()
	parent := core.Send(&ping{Label: "p", Left: 2}, sender, receiver)
	parentID := parent.ID

	child := core.ReplyTo(parent, &ping{Label: "c", Left: parent.Left - 1}, receiver, sender)

	assert.Equal(t, parentID, parent.ID)
	assert.Equal(t, 2, parent.Left)
	assert.Nil(t, parent.Parent)
	assert.Same(t, parent, child.Parent)
	assert.Equal(t, receiver, child.Sender)
	assert.Equal(t, sender, child.Receiver)
	assert.NotEqual(t, parent.ID, child.ID)
	assert.Same(t, parent, core.Root(child))
	assert.Same(t, parent, core.Root(parent))
}
