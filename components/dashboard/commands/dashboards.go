package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// DashboardStore is the slice of *dashboard.Store the dashboard commands use.
type DashboardStore interface {
	CreateDashboard(ctx context.Context, name string) dashboard.DashboardLayout
	DeleteDashboard(ctx context.Context, id string)
	LoadDashboard(ctx context.Context, id string)
	SaveDashboard(ctx context.Context)
}

var errMissingStore = errors.New("commands: store is required")

// CreateDashboardInput names the new dashboard. When Result is set it
// receives the created layout.
type CreateDashboardInput struct {
	Name   string                     `json:"name"`
	Actor  Actor                      `json:"actor"`
	Result *dashboard.DashboardLayout `json:"-"`
}

// CreateDashboardCommand appends an empty dashboard and makes it current.
type CreateDashboardCommand struct {
	store     DashboardStore
	telemetry Telemetry
}

func NewCreateDashboardCommand(store DashboardStore, telemetry Telemetry) *CreateDashboardCommand {
	return &CreateDashboardCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateDashboardInput] = (*CreateDashboardCommand)(nil)

func (c *CreateDashboardCommand) Execute(ctx context.Context, msg CreateDashboardInput) error {
	if c.store == nil {
		return errMissingStore
	}
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return errors.New("create dashboard command requires name")
	}
	ctx = msg.Actor.attach(ctx)
	layout := c.store.CreateDashboard(ctx, name)
	if msg.Result != nil {
		*msg.Result = layout
	}
	c.telemetry.Record(ctx, "dashboard.command.dashboard.create", map[string]any{"dashboard_id": layout.ID})
	return nil
}

// DashboardRef identifies a dashboard by id.
type DashboardRef struct {
	DashboardID string `json:"dashboard_id"`
	Actor       Actor  `json:"actor"`
}

// DeleteDashboardCommand removes a dashboard. Unknown ids are a no-op.
type DeleteDashboardCommand struct {
	store     DashboardStore
	telemetry Telemetry
}

func NewDeleteDashboardCommand(store DashboardStore, telemetry Telemetry) *DeleteDashboardCommand {
	return &DeleteDashboardCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DashboardRef] = (*DeleteDashboardCommand)(nil)

func (c *DeleteDashboardCommand) Execute(ctx context.Context, msg DashboardRef) error {
	if c.store == nil {
		return errMissingStore
	}
	if msg.DashboardID == "" {
		return errors.New("delete dashboard command requires dashboard id")
	}
	ctx = msg.Actor.attach(ctx)
	c.store.DeleteDashboard(ctx, msg.DashboardID)
	c.telemetry.Record(ctx, "dashboard.command.dashboard.delete", map[string]any{"dashboard_id": msg.DashboardID})
	return nil
}

// LoadDashboardCommand switches the current dashboard.
type LoadDashboardCommand struct {
	store     DashboardStore
	telemetry Telemetry
}

func NewLoadDashboardCommand(store DashboardStore, telemetry Telemetry) *LoadDashboardCommand {
	return &LoadDashboardCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DashboardRef] = (*LoadDashboardCommand)(nil)

func (c *LoadDashboardCommand) Execute(ctx context.Context, msg DashboardRef) error {
	if c.store == nil {
		return errMissingStore
	}
	if msg.DashboardID == "" {
		return errors.New("load dashboard command requires dashboard id")
	}
	ctx = msg.Actor.attach(ctx)
	c.store.LoadDashboard(ctx, msg.DashboardID)
	c.telemetry.Record(ctx, "dashboard.command.dashboard.load", map[string]any{"dashboard_id": msg.DashboardID})
	return nil
}

// SaveDashboardInput saves the current dashboard.
type SaveDashboardInput struct {
	Actor Actor `json:"actor"`
}

// SaveDashboardCommand flushes and pushes the current dashboard.
type SaveDashboardCommand struct {
	store     DashboardStore
	telemetry Telemetry
}

func NewSaveDashboardCommand(store DashboardStore, telemetry Telemetry) *SaveDashboardCommand {
	return &SaveDashboardCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveDashboardInput] = (*SaveDashboardCommand)(nil)

func (c *SaveDashboardCommand) Execute(ctx context.Context, msg SaveDashboardInput) error {
	if c.store == nil {
		return errMissingStore
	}
	ctx = msg.Actor.attach(ctx)
	c.store.SaveDashboard(ctx)
	c.telemetry.Record(ctx, "dashboard.command.dashboard.save", nil)
	return nil
}
