package core_test

import (
	"errors"

	"github.com/najoast/troupe/core"
)

// ping carries a label and the number of echoes still to produce.
type ping struct {
	core.Header `mapstructure:",squash"`
	Label       string `mapstructure:"label"`
	Left        int    `mapstructure:"left"`
}

func (*ping) Kind() string { return "ping" }

// pong is never handled by anyone.
type pong struct {
	core.Header `mapstructure:",squash"`
	Label       string `mapstructure:"label"`
}

func (*pong) Kind() string { return "pong" }

// boom asks the receiver to fail.
type boom struct {
	core.Header `mapstructure:",squash"`
}

func (*boom) Kind() string { return "boom" }

var errBoom = errors.New("boom")

// splitter answers a ping with a fixed list of labelled pongs.
type splitter struct {
	core.Identity `mapstructure:",squash"`
	Labels        []string `mapstructure:"labels"`
}

func newSplitter(labels ...string) *splitter {
	return &splitter{Identity: core.NewIdentity(), Labels: labels}
}

func (*splitter) Kind() string { return "splitter" }

var splitterHandlers = core.Handle(core.NewHandlers(nil), (*splitter).onPing)

func (*splitter) Handlers() *core.Handlers { return splitterHandlers }

func (s *splitter) onPing(msg *ping) core.Replies {
	return func(yield func(core.Message, error) bool) {
		for _, label := range s.Labels {
			reply := core.ReplyTo(msg, &pong{Label: label}, s.Addr(), s.Addr())
			if !yield(reply, nil) {
				return
			}
		}
	}
}

// echo re-sends every ping to target until Left reaches zero and counts
// the pings it saw.
type echo struct {
	core.Identity `mapstructure:",squash"`
	Target        core.ActorID `mapstructure:"target"`
	Seen          []string     `mapstructure:"seen"`
	Fanout        int          `mapstructure:"fanout"`
}

func newEcho(fanout int) *echo {
	e := &echo{Identity: core.NewIdentity(), Fanout: fanout}
	e.Target = e.ID
	return e
}

func (*echo) Kind() string { return "echo" }

// echoing is satisfied by echo and by every type embedding it.
type echoing interface {
	core.Actor
	onPing(*ping) core.Replies
	onBoom(*boom) core.Replies
}

var echoHandlers = core.Handle(core.Handle(core.NewHandlers(nil), echoing.onPing), echoing.onBoom)

func (*echo) Handlers() *core.Handlers { return echoHandlers }

func (e *echo) onPing(msg *ping) core.Replies {
	e.Seen = append(e.Seen, msg.Label)
	return func(yield func(core.Message, error) bool) {
		if msg.Left == 0 {
			return
		}
		for i := 0; i < e.Fanout; i++ {
			label := msg.Label + string(rune('a'+i))
			reply := core.ReplyTo(msg, &ping{Label: label, Left: msg.Left - 1}, e.Addr(), e.Target)
			if !yield(reply, nil) {
				return
			}
		}
	}
}

func (e *echo) onBoom(*boom) core.Replies {
	return core.Fail(errBoom)
}

func labels(msgs []core.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		switch v := m.(type) {
		case *ping:
			out = append(out, v.Label)
		case *pong:
			out = append(out, v.Label)
		default:
			out = append(out, m.Kind())
		}
	}
	return out
}
