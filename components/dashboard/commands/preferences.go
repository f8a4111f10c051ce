package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// PreferencesStore merges preference updates.
type PreferencesStore interface {
	SetPreferences(ctx context.Context, update dashboard.PreferencesUpdate)
}

// SetPreferencesInput carries a shallow preferences update.
type SetPreferencesInput struct {
	Update dashboard.PreferencesUpdate `json:"preferences"`
	Actor  Actor                       `json:"actor"`
}

// SetPreferencesCommand applies a preferences update.
type SetPreferencesCommand struct {
	store     PreferencesStore
	telemetry Telemetry
}

func NewSetPreferencesCommand(store PreferencesStore, telemetry Telemetry) *SetPreferencesCommand {
	return &SetPreferencesCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetPreferencesInput] = (*SetPreferencesCommand)(nil)

func (c *SetPreferencesCommand) Execute(ctx context.Context, msg SetPreferencesInput) error {
	if c.store == nil {
		return errMissingStore
	}
	if msg.Update.IsZero() {
		return errors.New("set preferences command requires at least one field")
	}
	if msg.Update.Theme != nil {
		switch *msg.Update.Theme {
		case dashboard.ThemeLight, dashboard.ThemeDark:
		default:
			return errors.New("set preferences command: theme must be light or dark")
		}
	}
	ctx = msg.Actor.attach(ctx)
	c.store.SetPreferences(ctx, msg.Update)
	payload := map[string]any{}
	if msg.Update.Theme != nil {
		payload["theme"] = string(*msg.Update.Theme)
	}
	c.telemetry.Record(ctx, "dashboard.command.preferences", payload)
	return nil
}
