package dashboard

import (
	"slices"
)

const (
	// GridColumns is the column count of the dashboard grid.
	GridColumns = 12
	// GridRowHeight is the pixel height of one grid row.
	GridRowHeight = 80
)

// GridItemFor converts a widget instance into the grid's native record.
func GridItemFor(w WidgetInstance, editMode bool) GridItem {
	return GridItem{
		I:           w.ID,
		X:           w.Position.X,
		Y:           w.Position.Y,
		W:           w.Position.W,
		H:           w.Position.H,
		MinW:        w.MinW,
		MinH:        w.MinH,
		MaxW:        w.MaxW,
		MaxH:        w.MaxH,
		IsDraggable: editMode,
		IsResizable: editMode,
	}
}

// GridItemsFor returns one grid record per widget, in widget order.
func GridItemsFor(layout DashboardLayout, editMode bool) []GridItem {
	items := make([]GridItem, 0, len(layout.Widgets))
	for _, w := range layout.Widgets {
		items = append(items, GridItemFor(w, editMode))
	}
	return items
}

// ClampItem keeps an item within its size bounds and inside cols columns.
// The column count wins over a minimum that does not fit.
func ClampItem(item GridItem, cols int) GridItem {
	if cols <= 0 {
		cols = GridColumns
	}
	item.W = clampSpan(item.W, item.MinW, item.MaxW)
	item.H = clampSpan(item.H, item.MinH, item.MaxH)
	if item.W > cols {
		item.W = cols
	}
	if item.X < 0 {
		item.X = 0
	}
	if item.X+item.W > cols {
		item.X = cols - item.W
	}
	if item.Y < 0 {
		item.Y = 0
	}
	return item
}

func clampSpan(v, lo, hi int) int {
	if lo < 1 {
		lo = 1
	}
	if v < lo {
		v = lo
	}
	if hi > 0 && v > hi && hi >= lo {
		v = hi
	}
	return v
}

// Collides reports whether two distinct items overlap.
func Collides(a, b GridItem) bool {
	if a.I == b.I {
		return false
	}
	switch {
	case a.X+a.W <= b.X:
		return false
	case a.X >= b.X+b.W:
		return false
	case a.Y+a.H <= b.Y:
		return false
	case a.Y >= b.Y+b.H:
		return false
	}
	return true
}

// FirstCollision returns the first item in items that overlaps item.
func FirstCollision(items []GridItem, item GridItem) (GridItem, bool) {
	for _, other := range items {
		if Collides(other, item) {
			return other, true
		}
	}
	return GridItem{}, false
}

// Bottom returns the first free row below every item.
func Bottom(items []GridItem) int {
	bottom := 0
	for _, item := range items {
		if item.Y+item.H > bottom {
			bottom = item.Y + item.H
		}
	}
	return bottom
}

// Compact floats items upward until they rest on another item or the top of
// the grid, and pushes overlapping items down. Static items never move. The
// result keeps the input order and has no overlapping pair among non-static
// items.
func Compact(items []GridItem, cols int) []GridItem {
	out := make([]GridItem, len(items))
	placed := make([]GridItem, 0, len(items))
	for _, item := range items {
		if item.Static {
			placed = append(placed, item)
		}
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ia, ib := items[a], items[b]
		if ia.Y != ib.Y {
			return ia.Y - ib.Y
		}
		return ia.X - ib.X
	})

	for _, idx := range order {
		item := ClampItem(items[idx], cols)
		if items[idx].Static {
			out[idx] = items[idx]
			continue
		}
		item = compactItem(placed, item)
		item.Moved = false
		placed = append(placed, item)
		out[idx] = item
	}
	return out
}

func compactItem(placed []GridItem, item GridItem) GridItem {
	if bottom := Bottom(placed); item.Y > bottom {
		item.Y = bottom
	}
	for item.Y > 0 {
		candidate := item
		candidate.Y--
		if _, hit := FirstCollision(placed, candidate); hit {
			break
		}
		item.Y--
	}
	for {
		other, hit := FirstCollision(placed, item)
		if !hit {
			return item
		}
		item.Y = other.Y + other.H
	}
}

// InsertionPosition places a new widget of size at the left edge directly
// below every existing widget.
func InsertionPosition(widgets []WidgetInstance, size Size) Position {
	bottom := 0
	for _, w := range widgets {
		if w.Position.Y+w.Position.H > bottom {
			bottom = w.Position.Y + w.Position.H
		}
	}
	return Position{X: 0, Y: bottom, W: size.W, H: size.H}
}

// Position returns the grid item's placement.
func (g GridItem) Position() Position {
	return Position{X: g.X, Y: g.Y, W: g.W, H: g.H}
}
