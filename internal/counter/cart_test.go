package counter

import (
	"math/rand"
	"testing"
)

func TestAddOrIncrementMergesIdentity(t *testing.T) {
	cart := NewCartStore()

	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)
	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)

	snap := cart.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(snap.Items))
	}
	if snap.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", snap.Items[0].Quantity)
	}
	if snap.TotalPrice != 70000 {
		t.Errorf("total = %d, want 70000", snap.TotalPrice)
	}
}

func TestSameMenuDifferentSizeIsDistinct(t *testing.T) {
	cart := NewCartStore()

	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)
	cart.AddOrIncrement(1, "Classic Milk Tea", 2, "L", 42000)

	snap := cart.Snapshot()
	if len(snap.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(snap.Items))
	}
	if snap.TotalPrice != 77000 {
		t.Errorf("total = %d, want 77000", snap.TotalPrice)
	}
}

func TestDecrementScenario(t *testing.T) {
	cart := NewCartStore()

	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)
	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)

	cart.Decrement(1, 1)
	snap := cart.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 1 {
		t.Fatalf("after first decrement: items = %+v", snap.Items)
	}
	if snap.TotalPrice != 35000 {
		t.Errorf("total = %d, want 35000", snap.TotalPrice)
	}

	cart.Decrement(1, 1)
	snap = cart.Snapshot()
	if len(snap.Items) != 0 {
		t.Fatalf("after second decrement: items = %d, want 0", len(snap.Items))
	}
	if snap.TotalPrice != 0 {
		t.Errorf("total = %d, want 0", snap.TotalPrice)
	}
}

func TestMutationsOnAbsentLinesAreNoOps(t *testing.T) {
	cart := NewCartStore()
	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)
	before := cart.Snapshot()

	cart.Decrement(9, 9)
	cart.RemoveItem(9, 9)
	cart.SetLineNote(9, 9, "less ice")

	after := cart.Snapshot()
	if len(after.Items) != len(before.Items) || after.TotalPrice != before.TotalPrice {
		t.Errorf("cart changed by no-op mutations: before %+v, after %+v", before, after)
	}
}

func TestSetLineNote(t *testing.T) {
	cart := NewCartStore()
	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)

	cart.SetLineNote(1, 1, "50% sugar")
	if got := cart.Snapshot().Items[0].Note; got != "50% sugar" {
		t.Errorf("note = %q, want %q", got, "50% sugar")
	}

	cart.SetLineNote(1, 1, "")
	if got := cart.Snapshot().Items[0].Note; got != "" {
		t.Errorf("note = %q, want cleared", got)
	}
}

func TestSetMode(t *testing.T) {
	tests := []struct {
		name          string
		mode          CartMode
		targetOrderID int64
		wantErr       bool
	}{
		{name: "create", mode: ModeCreate, targetOrderID: 0, wantErr: false},
		{name: "appendWithTarget", mode: ModeAppend, targetOrderID: 42, wantErr: false},
		{name: "appendWithoutTarget", mode: ModeAppend, targetOrderID: 0, wantErr: true},
		{name: "appendNegativeTarget", mode: ModeAppend, targetOrderID: -1, wantErr: true},
		{name: "unknownMode", mode: CartMode("bogus"), targetOrderID: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCartStore()
			err := cart.SetMode(tt.mode, tt.targetOrderID)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetMode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetModeBackToCreateDropsTarget(t *testing.T) {
	cart := NewCartStore()

	if err := cart.SetMode(ModeAppend, 42); err != nil {
		t.Fatalf("SetMode(append) error = %v", err)
	}
	if err := cart.SetMode(ModeCreate, 0); err != nil {
		t.Fatalf("SetMode(create) error = %v", err)
	}

	snap := cart.Snapshot()
	if snap.TargetOrderID != 0 {
		t.Errorf("target order id = %d, want 0", snap.TargetOrderID)
	}
}

func TestClear(t *testing.T) {
	cart := NewCartStore()
	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)
	cart.SetTable(&Table{ID: 3, Name: "T3"})
	if err := cart.SetMode(ModeAppend, 7); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	cart.Clear()

	snap := cart.Snapshot()
	if len(snap.Items) != 0 {
		t.Errorf("items = %d, want 0", len(snap.Items))
	}
	if snap.Table != nil {
		t.Errorf("table = %+v, want nil", snap.Table)
	}
	if snap.Mode != ModeCreate {
		t.Errorf("mode = %q, want %q", snap.Mode, ModeCreate)
	}
	if snap.TargetOrderID != 0 {
		t.Errorf("target order id = %d, want 0", snap.TargetOrderID)
	}
	if snap.TotalPrice != 0 {
		t.Errorf("total = %d, want 0", snap.TotalPrice)
	}
}

func TestCartHoldsTableCopy(t *testing.T) {
	cart := NewCartStore()
	table := &Table{ID: 3, Name: "T3", Status: "available"}
	cart.SetTable(table)

	table.Status = "occupied"

	if got := cart.Snapshot().Table.Status; got != "available" {
		t.Errorf("table status = %q, want the copy taken at selection", got)
	}
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	cart := NewCartStore()

	var seen []CartSnapshot
	cart.Subscribe(func(snap CartSnapshot) {
		seen = append(seen, snap)
	})

	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)
	cart.Decrement(1, 1)
	cart.Clear()

	if len(seen) != 3 {
		t.Fatalf("notifications = %d, want 3", len(seen))
	}
	if seen[0].TotalPrice != 35000 {
		t.Errorf("first snapshot total = %d, want 35000", seen[0].TotalPrice)
	}
	if seen[2].TotalPrice != 0 {
		t.Errorf("last snapshot total = %d, want 0", seen[2].TotalPrice)
	}
}

// TestCartInvariantsUnderRandomOps hammers the store with random
// mutations and checks the structural invariants after each one:
// unique (menu, size) identities, every quantity >= 1, and a total
// that exactly matches the line items.
func TestCartInvariantsUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cart := NewCartStore()

	prices := map[int64]int64{1: 25000, 2: 35000, 3: 42000}

	for i := 0; i < 5000; i++ {
		menuID := int64(rng.Intn(4) + 1)
		sizeID := int64(rng.Intn(3) + 1)

		switch rng.Intn(4) {
		case 0, 1:
			cart.AddOrIncrement(menuID, "Drink", sizeID, "Size", prices[sizeID])
		case 2:
			cart.Decrement(menuID, sizeID)
		case 3:
			cart.RemoveItem(menuID, sizeID)
		}

		snap := cart.Snapshot()
		seen := make(map[[2]int64]bool)
		var total int64
		for _, item := range snap.Items {
			key := [2]int64{item.MenuID, item.SizeID}
			if seen[key] {
				t.Fatalf("op %d: duplicate identity (%d,%d)", i, item.MenuID, item.SizeID)
			}
			seen[key] = true
			if item.Quantity < 1 {
				t.Fatalf("op %d: quantity %d < 1 for (%d,%d)", i, item.Quantity, item.MenuID, item.SizeID)
			}
			total += item.UnitPrice * int64(item.Quantity)
		}
		if snap.TotalPrice != total {
			t.Fatalf("op %d: total drifted: store %d, computed %d", i, snap.TotalPrice, total)
		}
	}
}
