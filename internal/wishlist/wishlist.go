// Package wishlist keeps the set of products a shopper has saved for later.
package wishlist

import "sync"

// Wishlist is an ordered set of product ids. It is safe for concurrent use.
type Wishlist struct {
	mu  sync.RWMutex
	ids []string

	subMu   sync.Mutex
	subs    map[int]func([]string)
	nextSub int
}

// New returns an empty wishlist.
func New() *Wishlist {
	return &Wishlist{subs: make(map[int]func([]string))}
}

// Toggle adds productID if absent or removes it if present.
// It reports whether the product is saved afterwards.
func (w *Wishlist) Toggle(productID string) bool {
	w.mu.Lock()
	saved := true
	if i := w.indexOf(productID); i >= 0 {
		w.ids = append(w.ids[:i], w.ids[i+1:]...)
		saved = false
	} else {
		w.ids = append(w.ids, productID)
	}
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.publish(snapshot)
	return saved
}

// Contains reports whether productID is saved.
func (w *Wishlist) Contains(productID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.indexOf(productID) >= 0
}

// IDs returns the saved product ids in the order they were added.
func (w *Wishlist) IDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

// Len returns the number of saved products.
func (w *Wishlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.ids)
}

// Subscribe registers fn for every change and returns a func that removes it.
func (w *Wishlist) Subscribe(fn func(ids []string)) func() {
	w.subMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	w.subMu.Unlock()

	return func() {
		w.subMu.Lock()
		delete(w.subs, id)
		w.subMu.Unlock()
	}
}

func (w *Wishlist) publish(ids []string) {
	w.subMu.Lock()
	fns := make([]func([]string), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.subMu.Unlock()

	for _, fn := range fns {
		fn(ids)
	}
}

func (w *Wishlist) snapshotLocked() []string {
	out := make([]string, len(w.ids))
	copy(out, w.ids)
	return out
}

func (w *Wishlist) indexOf(productID string) int {
	for i, id := range w.ids {
		if id == productID {
			return i
		}
	}
	return -1
}
