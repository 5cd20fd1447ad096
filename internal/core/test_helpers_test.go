package core

import (
	"testing"
	"time"
)

type fakeTransport struct {
	closed int
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

func newTestSession(id, username string) (*Session, *fakeTransport) {
	s := NewSession(id, username, "", Position{X: 100, Y: 100}, 64, nil)
	tr := &fakeTransport{}
	s.Attach(tr)
	return s, tr
}

// drain discards every queued event.
func drain(s *Session) {
	for {
		select {
		case <-s.events:
		default:
			return
		}
	}
}

// pending returns the queued events without blocking.
func pending(s *Session) []*Event {
	var out []*Event
	for {
		select {
		case ev := <-s.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustQuiet fails if any event arrives within the wait window.
func mustQuiet(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v: %+v", ev.Kind, ev)
	case <-time.After(wait):
	}
}
