package tracker

import (
	"sync"
	"time"

	"github.com/cheeseburger9309/AstraSim/internal/render"
)

// Frame is one published tick. It shares nothing with the session and is
// never modified after publication.
type Frame struct {
	Seq       uint64
	Time      time.Time
	Batch     *render.Batch
	Selection render.Selection
	Filters   render.FilterSet
	Stats     render.ApplyStats
}

// notifier wakes every waiter when a new frame is published.
type notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{})}
}

func (n *notifier) wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

func (n *notifier) broadcast() {
	n.mu.Lock()
	close(n.ch)
	n.ch = make(chan struct{})
	n.mu.Unlock()
}
