package activity

import (
	"context"
	"testing"
)

type recordingHook struct {
	events []Event
}

func (h *recordingHook) Notify(_ context.Context, evt Event) error {
	h.events = append(h.events, evt)
	return nil
}

func TestEmitterDefaultsChannelAndEmits(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{Enabled: true})
	if !em.Enabled() {
		t.Fatalf("expected emitter enabled")
	}
	err := em.Emit(context.Background(), Event{
		Verb:       "add",
		ObjectType: "widget",
		ObjectID:   "widget-1",
	})
	if err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	if len(hook.events) != 1 {
		t.Fatalf("expected event emitted, got %d", len(hook.events))
	}
	if hook.events[0].Channel != "dashboard" {
		t.Fatalf("expected default channel dashboard, got %q", hook.events[0].Channel)
	}
}

func TestEmitterDisabledWithoutHooks(t *testing.T) {
	em := NewEmitter(nil, Config{Enabled: true})
	if em.Enabled() {
		t.Fatalf("expected emitter disabled without hooks")
	}
}

func TestEmitterKeepsExplicitChannel(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{Enabled: true, Channel: "loi"})
	_ = em.Emit(context.Background(), Event{Verb: "add", ObjectType: "widget"})
	_ = em.Emit(context.Background(), Event{Verb: "add", ObjectType: "widget", Channel: "audit"})
	if hook.events[0].Channel != "loi" || hook.events[1].Channel != "audit" {
		t.Fatalf("unexpected channels %q %q", hook.events[0].Channel, hook.events[1].Channel)
	}
}

func TestEmitterDisabledByConfig(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{})
	_ = em.Emit(context.Background(), Event{Verb: "add", ObjectType: "widget"})
	if len(hook.events) != 0 {
		t.Fatalf("disabled emitter must not notify")
	}
	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("nil emitter reports enabled")
	}
}
