package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// SeedDashboardInput fills an empty current dashboard with the starter widgets.
type SeedDashboardInput struct {
	Actor Actor `json:"actor"`
	// Added receives the number of widgets placed when set.
	Added *int `json:"-"`
}

// SeedDashboardCommand wraps dashboard.SeedDashboard.
type SeedDashboardCommand struct {
	store     *dashboard.Store
	registry  *dashboard.Registry
	ids       dashboard.IDGenerator
	telemetry Telemetry
}

func NewSeedDashboardCommand(store *dashboard.Store, registry *dashboard.Registry, ids dashboard.IDGenerator, telemetry Telemetry) *SeedDashboardCommand {
	return &SeedDashboardCommand{
		store:     store,
		registry:  registry,
		ids:       ids,
		telemetry: normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[SeedDashboardInput] = (*SeedDashboardCommand)(nil)

func (c *SeedDashboardCommand) Execute(ctx context.Context, msg SeedDashboardInput) error {
	if c.store == nil {
		return errMissingStore
	}
	ctx = msg.Actor.attach(ctx)
	added, err := dashboard.SeedDashboard(ctx, c.store, c.registry, c.ids)
	if msg.Added != nil {
		*msg.Added = added
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.seed", map[string]any{"added": added})
	return nil
}
