package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/troupe/core"
)

// relay fans every ping out to the members able to take it.
type relay struct {
	core.Network `mapstructure:",squash"`
}

func newRelay(members ...core.Actor) *relay {
	return &relay{Network: *core.NewNetwork(members...)}
}

func (*relay) Kind() string { return "relay" }

var relayHandlers = core.Handle(core.NewHandlers(core.NetworkHandlers()), (*relay).onPing)

func (*relay) Handlers() *core.Handlers { return relayHandlers }

func (r *relay) onPing(msg *ping) core.Replies {
	takers := core.NewNetwork(r.Receivers(msg.Kind())...)
	takers.ID = r.ID
	return takers.Fanout(msg, func(member core.Actor) core.Message {
		return &ping{Label: msg.Label + "->" + member.Kind()}
	})
}

func TestNetworkMembership(t *testing.T) {
	a, b, c := newEcho(1), newSplitter("x"), newEcho(1)
	network := core.NewNetwork(a, b)

	assert.True(t, network.Contains(a.Addr()))
	assert.False(t, network.Contains(c.Addr()))

	network.Add(c)
	assert.Equal(t, []core.Actor{a, b, c}, network.Members)

	found, ok := network.Lookup(b.Addr())
	require.True(t, ok)
	assert.Same(t, b, found)

	assert.True(t, network.Remove(b.Addr()))
	assert.False(t, network.Remove(b.Addr()))
	assert.Equal(t, []core.Actor{a, c}, network.Members)

	dir := network.Directory()
	assert.Len(t, dir, 2)
	assert.Same(t, c, dir[c.Addr()])
}

func TestNetworkReceivers(t *testing.T) {
	a, b, c := newEcho(1), newSplitter("x"), core.NewBaseActor()
	network := core.NewNetwork(a, b, c)

	assert.Equal(t, []core.Actor{a, b, c}, network.Receivers())
	assert.Equal(t, []core.Actor{a, b}, network.Receivers("ping"))
	assert.Equal(t, []core.Actor{a}, network.Receivers("boom"))
	assert.Empty(t, network.Receivers("pong"))
}

func TestNetworkFanoutFollowsMemberOrder(t *testing.T) {
	engine := core.NewEngine()
	first, second := newSplitter("1", "2"), newSplitter("3")
	r := newRelay(first, core.NewBaseActor(), second)

	scope, err := engine.Activate(r)
	require.NoError(t, err)
	defer scope.Close()

	origin := core.Send(&ping{Label: "go"}, "", r.Addr())
	msgs, err := core.Collect(engine.Propagate(origin))
	require.NoError(t, err)

	// each member's replies follow its forwarded ping before the next member
	assert.Equal(t, []string{"go->splitter", "1", "2", "go->splitter", "3"}, labels(msgs))
	assert.Equal(t, first.Addr(), msgs[0].Head().Receiver)
	assert.Equal(t, r.Addr(), msgs[0].Head().Sender)
	assert.Same(t, origin, msgs[0].Head().Parent)
	assert.Equal(t, second.Addr(), msgs[3].Head().Receiver)
}

func TestNetworkWithoutHandlerIsNoop(t *testing.T) {
	network := core.NewNetwork(newEcho(1))

	msgs, err := core.Collect(core.Receive(network, core.Send(&ping{}, "", network.Addr())))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
