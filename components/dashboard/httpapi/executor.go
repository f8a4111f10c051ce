package httpapi

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/commands"
)

// Executor runs dashboard mutations for a transport.
type Executor interface {
	AddWidget(ctx context.Context, input commands.AddWidgetInput) error
	RemoveWidget(ctx context.Context, input commands.RemoveWidgetInput) error
	ConfigureWidget(ctx context.Context, input commands.ConfigureWidgetInput) error
	ApplyLayout(ctx context.Context, input commands.ApplyLayoutInput) error
	EditMode(ctx context.Context, input commands.EditModeInput) error
	CreateDashboard(ctx context.Context, input commands.CreateDashboardInput) error
	DeleteDashboard(ctx context.Context, input commands.DashboardRef) error
	LoadDashboard(ctx context.Context, input commands.DashboardRef) error
	SaveDashboard(ctx context.Context, input commands.SaveDashboardInput) error
	Preferences(ctx context.Context, input commands.SetPreferencesInput) error
	MetricData(ctx context.Context, input commands.UpdateMetricDataInput) error
}

// CommandExecutor implements Executor over go-command commanders. A nil
// commander answers errNotConfigured.
type CommandExecutor struct {
	Add       gocommand.Commander[commands.AddWidgetInput]
	Remove    gocommand.Commander[commands.RemoveWidgetInput]
	Configure gocommand.Commander[commands.ConfigureWidgetInput]
	Layout    gocommand.Commander[commands.ApplyLayoutInput]
	Edit      gocommand.Commander[commands.EditModeInput]
	Create    gocommand.Commander[commands.CreateDashboardInput]
	Delete    gocommand.Commander[commands.DashboardRef]
	Load      gocommand.Commander[commands.DashboardRef]
	Save      gocommand.Commander[commands.SaveDashboardInput]
	Prefs     gocommand.Commander[commands.SetPreferencesInput]
	Metrics   gocommand.Commander[commands.UpdateMetricDataInput]
}

var _ Executor = (*CommandExecutor)(nil)

func (e *CommandExecutor) AddWidget(ctx context.Context, input commands.AddWidgetInput) error {
	return run(ctx, e.Add, input)
}

func (e *CommandExecutor) RemoveWidget(ctx context.Context, input commands.RemoveWidgetInput) error {
	return run(ctx, e.Remove, input)
}

func (e *CommandExecutor) ConfigureWidget(ctx context.Context, input commands.ConfigureWidgetInput) error {
	return run(ctx, e.Configure, input)
}

func (e *CommandExecutor) ApplyLayout(ctx context.Context, input commands.ApplyLayoutInput) error {
	return run(ctx, e.Layout, input)
}

func (e *CommandExecutor) EditMode(ctx context.Context, input commands.EditModeInput) error {
	return run(ctx, e.Edit, input)
}

func (e *CommandExecutor) CreateDashboard(ctx context.Context, input commands.CreateDashboardInput) error {
	return run(ctx, e.Create, input)
}

func (e *CommandExecutor) DeleteDashboard(ctx context.Context, input commands.DashboardRef) error {
	return run(ctx, e.Delete, input)
}

func (e *CommandExecutor) LoadDashboard(ctx context.Context, input commands.DashboardRef) error {
	return run(ctx, e.Load, input)
}

func (e *CommandExecutor) SaveDashboard(ctx context.Context, input commands.SaveDashboardInput) error {
	return run(ctx, e.Save, input)
}

func (e *CommandExecutor) Preferences(ctx context.Context, input commands.SetPreferencesInput) error {
	return run(ctx, e.Prefs, input)
}

func (e *CommandExecutor) MetricData(ctx context.Context, input commands.UpdateMetricDataInput) error {
	return run(ctx, e.Metrics, input)
}

func run[T any](ctx context.Context, cmd gocommand.Commander[T], msg T) error {
	if cmd == nil {
		return errNotConfigured
	}
	return cmd.Execute(ctx, msg)
}
