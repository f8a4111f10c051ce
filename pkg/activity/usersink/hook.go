// Package usersink records dashboard activity through a go-users activity sink.
package usersink

import (
	"context"
	"errors"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-loi-dashboard/pkg/activity"
)

// Sink is the go-users activity log writer.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook implements activity.Hook by writing go-users activity records.
type Hook struct {
	Sink Sink
}

var _ activity.Hook = Hook{}

// Notify maps evt into an ActivityRecord. Identifiers that are not UUIDs are
// kept in the record data under their original name.
func (h Hook) Notify(ctx context.Context, evt activity.Event) error {
	if h.Sink == nil {
		return errors.New("usersink: sink is required")
	}
	evt = activity.NormalizeEvent(evt)
	if !evt.Valid() {
		return nil
	}
	data := make(map[string]any, len(evt.Metadata)+3)
	for k, v := range evt.Metadata {
		data[k] = v
	}
	if evt.DefinitionCode != "" {
		data["definition_code"] = evt.DefinitionCode
	}
	if len(evt.Recipients) > 0 {
		data["recipients"] = evt.Recipients
	}
	record := types.ActivityRecord{
		ActorID:    parseID(evt.ActorID, "actor_id", data),
		UserID:     parseID(evt.UserID, "user_id", data),
		TenantID:   parseID(evt.TenantID, "tenant_id", data),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    evt.Channel,
		Data:       data,
		OccurredAt: evt.OccurredAt,
	}
	return h.Sink.Log(ctx, record)
}

func parseID(raw, key string, data map[string]any) uuid.UUID {
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		data[key] = raw
		return uuid.Nil
	}
	return id
}
