package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// SeedDashboard places the starter widgets on the current dashboard when it
// has none. It returns the number of widgets added; a dashboard that already
// holds widgets is left untouched. Seeds whose type is not registered are
// skipped and reported together.
func SeedDashboard(ctx context.Context, store *Store, reg *Registry, ids IDGenerator) (int, error) {
	if store == nil {
		return 0, errMissingStore
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	current, ok := store.CurrentDashboard()
	if !ok {
		return 0, ErrNoCurrentDashboard
	}
	if len(current.Widgets) > 0 {
		return 0, nil
	}
	added := 0
	var seedErr error
	for _, seed := range DefaultSeedWidgets() {
		def, ok := reg.Lookup(seed.Type)
		if !ok {
			seedErr = errors.Join(seedErr, fmt.Errorf("dashboard: seed widget: %w: %s", ErrUnknownWidgetType, seed.Type))
			continue
		}
		inst := NewWidgetInstance(def, ids.NewID("widget"), seed.Position)
		inst.Config = seed.Config.Clone()
		store.AddWidget(ctx, inst)
		added++
	}
	return added, seedErr
}
