package resource

import "sync"

// notifier fans change signals out to subscribers. Each subscriber channel
// holds at most one pending signal, so bursts of changes coalesce and a slow
// reader never blocks the sender.
type notifier struct {
	subMu sync.Mutex
	subs  map[<-chan struct{}]chan struct{}
}

// Subscribe returns a channel that receives a signal after every change.
func (n *notifier) Subscribe() <-chan struct{} {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if n.subs == nil {
		n.subs = make(map[<-chan struct{}]chan struct{})
	}
	ch := make(chan struct{}, 1)
	n.subs[ch] = ch
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (n *notifier) Unsubscribe(ch <-chan struct{}) {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if sub, ok := n.subs[ch]; ok {
		delete(n.subs, ch)
		close(sub)
	}
}

func (n *notifier) notify() {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	for _, sub := range n.subs {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}
