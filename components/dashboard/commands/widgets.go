package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// WidgetController is the slice of *dashboard.Controller the widget commands
// drive.
type WidgetController interface {
	AddWidget(ctx context.Context, widgetType dashboard.WidgetType) (dashboard.WidgetInstance, error)
	RemoveWidget(ctx context.Context, id string) error
	ConfigureWidget(ctx context.Context, id string, config dashboard.WidgetConfig) error
	ApplyLayoutChange(ctx context.Context, items []dashboard.GridItem) (bool, error)
}

var errMissingController = errors.New("commands: controller is required")

// AddWidgetInput adds a widget of Type to the current dashboard. When Result
// is set it receives the created instance.
type AddWidgetInput struct {
	Type   dashboard.WidgetType      `json:"type"`
	Actor  Actor                     `json:"actor"`
	Result *dashboard.WidgetInstance `json:"-"`
}

// AddWidgetCommand places a widget from the gallery.
type AddWidgetCommand struct {
	controller WidgetController
	telemetry  Telemetry
}

func NewAddWidgetCommand(controller WidgetController, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{controller: controller, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.controller == nil {
		return errMissingController
	}
	if msg.Type == "" {
		return errors.New("add widget command requires widget type")
	}
	ctx = msg.Actor.attach(ctx)
	inst, err := c.controller.AddWidget(ctx, msg.Type)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = inst
	}
	c.telemetry.Record(ctx, "dashboard.command.widget.add", map[string]any{
		"widget_id":   inst.ID,
		"widget_type": string(msg.Type),
	})
	return nil
}

// RemoveWidgetInput identifies the widget to remove.
type RemoveWidgetInput struct {
	WidgetID string `json:"widget_id"`
	Actor    Actor  `json:"actor"`
}

// RemoveWidgetCommand deletes a widget from the current dashboard.
type RemoveWidgetCommand struct {
	controller WidgetController
	telemetry  Telemetry
}

func NewRemoveWidgetCommand(controller WidgetController, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{controller: controller, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveWidgetInput] = (*RemoveWidgetCommand)(nil)

func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg RemoveWidgetInput) error {
	if c.controller == nil {
		return errMissingController
	}
	if msg.WidgetID == "" {
		return errors.New("remove widget command requires widget id")
	}
	ctx = msg.Actor.attach(ctx)
	if err := c.controller.RemoveWidget(ctx, msg.WidgetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.widget.remove", map[string]any{"widget_id": msg.WidgetID})
	return nil
}

// ConfigureWidgetInput replaces the configuration of one widget.
type ConfigureWidgetInput struct {
	WidgetID string                 `json:"widget_id"`
	Config   dashboard.WidgetConfig `json:"config"`
	Actor    Actor                  `json:"actor"`
}

// ConfigureWidgetCommand validates and stores a widget configuration.
type ConfigureWidgetCommand struct {
	controller WidgetController
	telemetry  Telemetry
}

func NewConfigureWidgetCommand(controller WidgetController, telemetry Telemetry) *ConfigureWidgetCommand {
	return &ConfigureWidgetCommand{controller: controller, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ConfigureWidgetInput] = (*ConfigureWidgetCommand)(nil)

func (c *ConfigureWidgetCommand) Execute(ctx context.Context, msg ConfigureWidgetInput) error {
	if c.controller == nil {
		return errMissingController
	}
	if msg.WidgetID == "" {
		return errors.New("configure widget command requires widget id")
	}
	ctx = msg.Actor.attach(ctx)
	if err := c.controller.ConfigureWidget(ctx, msg.WidgetID, msg.Config); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.widget.configure", map[string]any{
		"widget_id":   msg.WidgetID,
		"metric_type": string(msg.Config.MetricType),
	})
	return nil
}

// ApplyLayoutInput is a settled drag or resize from the grid.
type ApplyLayoutInput struct {
	Items []dashboard.GridItem `json:"layout"`
	Actor Actor                `json:"actor"`
}

// ApplyLayoutCommand reconciles a layout-change event.
type ApplyLayoutCommand struct {
	controller WidgetController
	telemetry  Telemetry
}

func NewApplyLayoutCommand(controller WidgetController, telemetry Telemetry) *ApplyLayoutCommand {
	return &ApplyLayoutCommand{controller: controller, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyLayoutInput] = (*ApplyLayoutCommand)(nil)

// Execute forwards the items to the grid. Events outside edit mode are
// dropped without error.
func (c *ApplyLayoutCommand) Execute(ctx context.Context, msg ApplyLayoutInput) error {
	if c.controller == nil {
		return errMissingController
	}
	ctx = msg.Actor.attach(ctx)
	applied, err := c.controller.ApplyLayoutChange(ctx, msg.Items)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.layout", map[string]any{
		"items":   len(msg.Items),
		"applied": applied,
	})
	return nil
}
