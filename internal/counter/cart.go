package counter

import (
	"errors"
	"sync"
)

// CartMode says whether sending the cart creates a new order or
// appends items to an existing one.
type CartMode string

const (
	ModeCreate CartMode = "create"
	ModeAppend CartMode = "add-items"
)

var ErrMissingTargetOrder = errors.New("append mode requires a target order id")

// Table is the counter's copy of a table picked from the catalog, not
// a live reference.
type Table struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	NumberOfSeats int    `json:"number_of_seats"`
	Status        string `json:"status"`
}

// lineKey is the identity of a cart line: one line per (menu, size).
type lineKey struct {
	MenuID int64
	SizeID int64
}

// LineItem is one (menu item, size) selection with a quantity.
type LineItem struct {
	MenuID    int64  `json:"menu_id"`
	MenuName  string `json:"menu_name"`
	SizeID    int64  `json:"size_id"`
	SizeName  string `json:"size_name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note,omitempty"`
}

// CartSnapshot is an immutable view of the cart handed to readers.
type CartSnapshot struct {
	Items         []LineItem `json:"items"`
	Table         *Table     `json:"table"`
	Mode          CartMode   `json:"mode"`
	TargetOrderID int64      `json:"target_order_id,omitempty"`
	TotalPrice    int64      `json:"total_price"`
}

// CartStore is the single source of truth for the in-progress order.
// Lines are keyed by (menu, size) so the uniqueness invariant holds
// structurally, with insertion order preserved for display. The total
// is recomputed synchronously on every mutation. Mutations aimed at
// absent lines are deliberate no-ops.
type CartStore struct {
	mu            sync.Mutex
	items         map[lineKey]*LineItem
	order         []lineKey
	table         *Table
	mode          CartMode
	targetOrderID int64
	total         int64
	subs          []func(CartSnapshot)
}

func NewCartStore() *CartStore {
	return &CartStore{
		items: make(map[lineKey]*LineItem),
		mode:  ModeCreate,
	}
}

// AddOrIncrement bumps the quantity of an existing line or appends a
// new one with quantity 1.
func (c *CartStore) AddOrIncrement(menuID int64, menuName string, sizeID int64, sizeName string, unitPrice int64) {
	c.mu.Lock()
	key := lineKey{MenuID: menuID, SizeID: sizeID}
	if item, ok := c.items[key]; ok {
		item.Quantity++
	} else {
		c.items[key] = &LineItem{
			MenuID:    menuID,
			MenuName:  menuName,
			SizeID:    sizeID,
			SizeName:  sizeName,
			UnitPrice: unitPrice,
			Quantity:  1,
		}
		c.order = append(c.order, key)
	}
	c.recomputeLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Decrement lowers the quantity of a line; at quantity 1 the line is
// removed. Absent lines are a no-op.
func (c *CartStore) Decrement(menuID, sizeID int64) {
	c.mu.Lock()
	key := lineKey{MenuID: menuID, SizeID: sizeID}
	item, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	if item.Quantity > 1 {
		item.Quantity--
	} else {
		c.removeLocked(key)
	}
	c.recomputeLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// RemoveItem drops the line regardless of quantity. Absent lines are
// a no-op.
func (c *CartStore) RemoveItem(menuID, sizeID int64) {
	c.mu.Lock()
	key := lineKey{MenuID: menuID, SizeID: sizeID}
	if _, ok := c.items[key]; !ok {
		c.mu.Unlock()
		return
	}
	c.removeLocked(key)
	c.recomputeLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// SetLineNote attaches or clears the free-text note on a line. Absent
// lines are a no-op.
func (c *CartStore) SetLineNote(menuID, sizeID int64, note string) {
	c.mu.Lock()
	key := lineKey{MenuID: menuID, SizeID: sizeID}
	item, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	item.Note = note
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// SetTable replaces the selected table. A nil table deselects.
func (c *CartStore) SetTable(table *Table) {
	c.mu.Lock()
	if table == nil {
		c.table = nil
	} else {
		dup := *table
		c.table = &dup
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// SetMode switches between creating a new order and appending items
// to an existing one. Append mode requires a target order id.
func (c *CartStore) SetMode(mode CartMode, targetOrderID int64) error {
	if mode != ModeCreate && mode != ModeAppend {
		return errors.New("unknown cart mode")
	}
	if mode == ModeAppend && targetOrderID <= 0 {
		return ErrMissingTargetOrder
	}

	c.mu.Lock()
	c.mode = mode
	if mode == ModeAppend {
		c.targetOrderID = targetOrderID
	} else {
		c.targetOrderID = 0
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Clear resets the cart to its initial empty state.
func (c *CartStore) Clear() {
	c.mu.Lock()
	c.items = make(map[lineKey]*LineItem)
	c.order = nil
	c.table = nil
	c.mode = ModeCreate
	c.targetOrderID = 0
	c.total = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Snapshot returns a consistent copy of the cart state.
func (c *CartStore) Snapshot() CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to run after every mutation.
func (c *CartStore) Subscribe(fn func(CartSnapshot)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

func (c *CartStore) removeLocked(key lineKey) {
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *CartStore) recomputeLocked() {
	var total int64
	for _, item := range c.items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	c.total = total
}

func (c *CartStore) snapshotLocked() CartSnapshot {
	items := make([]LineItem, 0, len(c.order))
	for _, key := range c.order {
		if item, ok := c.items[key]; ok {
			items = append(items, *item)
		}
	}

	snap := CartSnapshot{
		Items:         items,
		Mode:          c.mode,
		TargetOrderID: c.targetOrderID,
		TotalPrice:    c.total,
	}
	if c.table != nil {
		dup := *c.table
		snap.Table = &dup
	}
	return snap
}

func (c *CartStore) notify(snap CartSnapshot) {
	c.mu.Lock()
	subs := make([]func(CartSnapshot), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
