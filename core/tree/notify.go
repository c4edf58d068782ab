package tree

import "sync"

// Event describes one tree-changed notification. Subscribers receive it
// after a new snapshot is installed, never mid-load.
type Event struct {
	Root     string `json:"root"`
	Packages int    `json:"packages"`
	Reason   string `json:"reason"`
}

// Event reasons.
const (
	ReasonLoad        = "load"
	ReasonRefresh     = "refresh"
	ReasonRootChanged = "root-changed"
)

// CycleNotice reports one dependency edge that closed a cycle during an
// expansion. It is informational: the edge is still rendered.
type CycleNotice struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// feed is a minimal subscriber registry. Callbacks run synchronously on
// the publishing goroutine and must not block.
type feed[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(T)
}

func (f *feed[T]) subscribe(fn func(T)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func(T))
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *feed[T]) publish(v T) {
	f.mu.RLock()
	fns := make([]func(T), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.RUnlock()
	for _, fn := range fns {
		fn(v)
	}
}
