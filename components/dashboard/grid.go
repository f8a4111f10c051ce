package dashboard

import (
	"context"
	"errors"
)

var errMissingStore = errors.New("dashboard: store is required")

// GridView is what the grid engine is given to draw.
type GridView struct {
	Cols      int        `json:"cols"`
	RowHeight int        `json:"rowHeight"`
	Editable  bool       `json:"editable"`
	Empty     bool       `json:"empty"`
	Items     []GridItem `json:"items"`
}

// Reconciler keeps widget positions and the grid's native layout in sync.
type Reconciler struct {
	store *Store
	cols  int
}

func NewReconciler(store *Store) *Reconciler {
	return &Reconciler{store: store, cols: GridColumns}
}

// View returns the grid records for the current dashboard. Items are only
// draggable and resizable in edit mode.
func (r *Reconciler) View() GridView {
	view := GridView{Cols: r.cols, RowHeight: GridRowHeight, Items: []GridItem{}}
	if r.store == nil {
		view.Empty = true
		return view
	}
	current, ok := r.store.CurrentDashboard()
	if !ok {
		view.Empty = true
		return view
	}
	view.Editable = r.store.IsEditMode()
	view.Items = GridItemsFor(current, view.Editable)
	return view
}

// ApplyLayoutChange reconciles a settled layout-change event. It does nothing
// outside edit mode or without a current dashboard, and reports whether the
// change was applied. Ids with no widget are dropped before anything is
// placed; the rest are clamped to their widget's bounds and compacted.
func (r *Reconciler) ApplyLayoutChange(ctx context.Context, items []GridItem) (bool, error) {
	if r.store == nil {
		return false, errMissingStore
	}
	if !r.store.IsEditMode() {
		return false, nil
	}
	applied := r.store.SettleLayout(ctx, func(current DashboardLayout) []GridItem {
		return r.settle(current, items)
	})
	return applied, nil
}

func (r *Reconciler) settle(current DashboardLayout, items []GridItem) []GridItem {
	bounded := make([]GridItem, 0, len(current.Widgets))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		w, found := current.Widget(item.I)
		if !found {
			continue
		}
		if _, dup := seen[item.I]; dup {
			continue
		}
		item.MinW, item.MinH = w.MinW, w.MinH
		item.MaxW, item.MaxH = w.MaxW, w.MaxH
		seen[item.I] = struct{}{}
		bounded = append(bounded, ClampItem(item, r.cols))
	}
	// Widgets the event left out still occupy their cells.
	for _, w := range current.Widgets {
		if _, ok := seen[w.ID]; !ok {
			bounded = append(bounded, ClampItem(GridItemFor(w, true), r.cols))
		}
	}
	return Compact(bounded, r.cols)
}
