// Package notifier broadcasts reload events to connected chart streams.
package notifier

import "sync"

// Reason says what changed.
type Reason int

// Reload reasons.
const (
	ReasonTemplate Reason = iota
	ReasonMacro
	ReasonFragments
)

func (r Reason) String() string {
	switch r {
	case ReasonTemplate:
		return "template"
	case ReasonMacro:
		return "macro"
	case ReasonFragments:
		return "fragments"
	default:
		return "unknown"
	}
}

// Event is one reload notice. Listeners reload everything they show;
// Path is informational.
type Event struct {
	Reason Reason
	Path   string
}

// Notifier fans events out to subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel receiving events. The caller must call
// Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Listeners returns the number of subscribers.
func (n *Notifier) Listeners() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends ev to all listeners without blocking. A listener that
// still holds an unread event already owes a reload, so ev is dropped for it.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}
