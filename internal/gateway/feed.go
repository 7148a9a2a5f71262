package gateway

import (
	"sync"

	"github.com/and161185/studydeck/internal/model"
)

// Feed broadcasts the current identity to session subscribers.
// The zero value is ready to use and starts signed out.
type Feed struct {
	mu      sync.Mutex
	current *model.Identity
	nextID  int
	subs    map[int]func(*model.Identity)
}

// Current returns a copy of the published identity or nil.
func (f *Feed) Current() *model.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.current)
}

// Subscribe registers fn and immediately delivers the current identity.
func (f *Feed) Subscribe(fn func(*model.Identity)) func() {
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[int]func(*model.Identity))
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	cur := clone(f.current)
	f.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish stores id (nil for signed out) and notifies every subscriber.
// Subscribers run on the caller's goroutine, outside the lock.
func (f *Feed) Publish(id *model.Identity) {
	f.mu.Lock()
	f.current = clone(id)
	fns := make([]func(*model.Identity), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(clone(id))
	}
}

func clone(id *model.Identity) *model.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
