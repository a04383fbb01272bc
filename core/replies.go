package core

import "fmt"

// NoReplies returns an empty reply sequence.
func NoReplies() Replies {
	return func(func(Message, error) bool) {}
}

// Reply returns a sequence yielding msgs in order.
func Reply(msgs ...Message) Replies {
	return func(yield func(Message, error) bool) {
		for _, m := range msgs {
			if !yield(m, nil) {
				return
			}
		}
	}
}

// Fail returns a sequence that yields err and ends.
func Fail(err error) Replies {
	return func(yield func(Message, error) bool) {
		yield(nil, err)
	}
}

// RequireReply fails with ErrNoReply when r ends without yielding a message.
func RequireReply(r Replies) Replies {
	return func(yield func(Message, error) bool) {
		replied := false
		for m, err := range r {
			if err != nil {
				yield(nil, err)
				return
			}
			replied = true
			if !yield(m, nil) {
				return
			}
		}
		if !replied {
			yield(nil, ErrNoReply)
		}
	}
}

// Collect drains r. On error it returns the messages seen so far.
func Collect(r Replies) ([]Message, error) {
	var out []Message
	for m, err := range r {
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Take stops r after n messages.
func Take(r Replies, n int) Replies {
	return func(yield func(Message, error) bool) {
		if n <= 0 {
			return
		}
		seen := 0
		for m, err := range r {
			if !yield(m, err) || err != nil {
				return
			}
			seen++
			if seen >= n {
				return
			}
		}
	}
}

func describe(m Message) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s", m.Kind(), m.Head().ID)
}
