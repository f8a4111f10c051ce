package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
)

// EditAction selects the edit-mode transition.
type EditAction string

const (
	EditEnter  EditAction = "enter"
	EditSave   EditAction = "save"
	EditCancel EditAction = "cancel"
)

// EditModeController is satisfied by *dashboard.Controller.
type EditModeController interface {
	EnterEditMode(ctx context.Context) error
	SaveAndExit(ctx context.Context) error
	CancelEdit(ctx context.Context) error
}

// EditModeInput requests an edit-mode transition.
type EditModeInput struct {
	Action EditAction `json:"action"`
	Actor  Actor      `json:"actor"`
}

// EditModeCommand enters, saves or cancels edit mode.
type EditModeCommand struct {
	controller EditModeController
	telemetry  Telemetry
}

func NewEditModeCommand(controller EditModeController, telemetry Telemetry) *EditModeCommand {
	return &EditModeCommand{controller: controller, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[EditModeInput] = (*EditModeCommand)(nil)

func (c *EditModeCommand) Execute(ctx context.Context, msg EditModeInput) error {
	if c.controller == nil {
		return errMissingController
	}
	ctx = msg.Actor.attach(ctx)
	var err error
	switch msg.Action {
	case EditEnter:
		err = c.controller.EnterEditMode(ctx)
	case EditSave:
		err = c.controller.SaveAndExit(ctx)
	case EditCancel:
		err = c.controller.CancelEdit(ctx)
	case "":
		return errors.New("edit mode command requires action")
	default:
		return fmt.Errorf("edit mode command: unknown action %q", msg.Action)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.edit", map[string]any{"action": string(msg.Action)})
	return nil
}
