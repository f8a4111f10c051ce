package activity

import "context"

// DefaultChannel is stamped on events that do not name one.
const DefaultChannel = "dashboard"

// Config toggles activity emission.
type Config struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Channel string `toml:"channel" yaml:"channel"`
}

// Emitter sends events to hooks when enabled.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether Emit does anything.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.cfg.Channel
	}
	return e.hooks.Notify(ctx, evt)
}
