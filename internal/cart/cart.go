// Package cart holds the shopper's line items and derives totals from them.
package cart

import (
	"sync"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the most units a single line may hold.
const MaxQuantity = 999

// EventKind names a cart mutation.
type EventKind string

const (
	ItemAdded       EventKind = "item_added"
	QuantityChanged EventKind = "quantity_changed"
	ItemRemoved     EventKind = "item_removed"
	Cleared         EventKind = "cleared"
	Restored        EventKind = "restored"
)

// Event is published after every mutation. Lines is a snapshot of the cart
// at Version; versions increase by one per mutation.
type Event struct {
	Kind      EventKind
	ProductID string
	Version   uint64
	Lines     []model.CartLine
}

// Item is what the shopper adds: a product with the price it is shown at.
type Item struct {
	ProductID string
	Name      string
	Image     string
	Price     decimal.Decimal
}

// Cart is an ordered set of line items keyed by product id.
// It is safe for concurrent use.
type Cart struct {
	mu      sync.RWMutex
	lines   []model.CartLine
	version uint64

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{subs: make(map[int]func(Event))}
}

// Add puts quantity units of item into the cart. A product already present
// has its quantity increased and keeps its original price snapshot. A line
// may not grow past MaxQuantity.
func (c *Cart) Add(item Item, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return model.ErrInvalidQuantity
	}

	c.mu.Lock()
	if i := c.indexOf(item.ProductID); i >= 0 {
		if c.lines[i].Quantity > MaxQuantity-quantity {
			c.mu.Unlock()
			return model.ErrInvalidQuantity
		}
		c.lines[i].Quantity += quantity
	} else {
		c.lines = append(c.lines, model.CartLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			UnitPrice: item.Price,
			Quantity:  quantity,
		})
	}
	ev := c.eventLocked(ItemAdded, item.ProductID)
	c.mu.Unlock()

	c.publish(ev)
	return nil
}

// UpdateQuantity sets a line's quantity. A quantity below one removes the line.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity < 1 {
		c.Remove(productID)
		return nil
	}
	if quantity > MaxQuantity {
		return model.ErrInvalidQuantity
	}

	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		return model.ErrProductNotFound
	}
	c.lines[i].Quantity = quantity
	ev := c.eventLocked(QuantityChanged, productID)
	c.mu.Unlock()

	c.publish(ev)
	return nil
}

// Remove deletes a line. It reports whether the line was present.
func (c *Cart) Remove(productID string) bool {
	c.mu.Lock()
	i := c.indexOf(productID)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	ev := c.eventLocked(ItemRemoved, productID)
	c.mu.Unlock()

	c.publish(ev)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	ev := c.eventLocked(Cleared, "")
	c.mu.Unlock()

	c.publish(ev)
}

// Restore replaces the contents with previously persisted lines.
// Lines with a quantity below one are skipped; duplicate products are merged
// and capped at MaxQuantity.
func (c *Cart) Restore(lines []model.CartLine) {
	c.mu.Lock()
	c.lines = nil
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		l.Quantity = min(l.Quantity, MaxQuantity)
		if i := c.indexOf(l.ProductID); i >= 0 {
			c.lines[i].Quantity = min(c.lines[i].Quantity+l.Quantity, MaxQuantity)
			continue
		}
		c.lines = append(c.lines, l)
	}
	ev := c.eventLocked(Restored, "")
	c.mu.Unlock()

	c.publish(ev)
}

// Lines returns a copy of the line items in insertion order.
func (c *Cart) Lines() []model.CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}

// Count returns the total number of units across all lines.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return c.Len() == 0
}

// Version returns the current mutation counter.
func (c *Cart) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Totals computes subtotal, tax and total from the current lines.
func (c *Cart) Totals() Totals {
	return ComputeTotals(c.Lines())
}

// MinorTotals computes the totals in minor currency units.
func (c *Cart) MinorTotals() MinorTotals {
	return ComputeMinorTotals(c.Lines())
}

// Subscribe registers fn for every subsequent mutation and returns a func
// that removes it. fn runs on the mutating goroutine after the cart lock is
// released, so it may read the cart.
func (c *Cart) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cart) publish(ev Event) {
	c.subMu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (c *Cart) eventLocked(kind EventKind, productID string) Event {
	c.version++
	return Event{
		Kind:      kind,
		ProductID: productID,
		Version:   c.version,
		Lines:     c.snapshotLocked(),
	}
}

func (c *Cart) snapshotLocked() []model.CartLine {
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) indexOf(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
