package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"taskflow/internal/models"
)

// Event names pushed over the socket
const (
	EventTaskCreated = "taskCreated"
	EventTaskUpdated = "taskUpdated"
	EventTaskDeleted = "taskDeleted"
)

// TaskEvent is a decoded socket message. Task is set for created and updated
// events, TaskID for every kind.
type TaskEvent struct {
	Kind   string
	Task   *models.Task
	TaskID string
}

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode produces the wire form {"event": ..., "data": ...}.
func Encode(evt TaskEvent) ([]byte, error) {
	var data any
	switch evt.Kind {
	case EventTaskCreated, EventTaskUpdated:
		if evt.Task == nil {
			return nil, fmt.Errorf("%s event without task", evt.Kind)
		}
		data = evt.Task
	case EventTaskDeleted:
		data = map[string]string{"_id": evt.TaskID}
	default:
		return nil, fmt.Errorf("unknown event %q", evt.Kind)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{Event: evt.Kind, Data: raw})
}

// Decode parses a socket message. A deleted event may carry the bare id or an
// object with an _id.
func Decode(message []byte) (TaskEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(message, &w); err != nil {
		return TaskEvent{}, fmt.Errorf("malformed event: %w", err)
	}
	evt := TaskEvent{Kind: w.Event}
	switch w.Event {
	case EventTaskCreated, EventTaskUpdated:
		var t models.Task
		if err := json.Unmarshal(w.Data, &t); err != nil {
			return TaskEvent{}, fmt.Errorf("malformed %s payload: %w", w.Event, err)
		}
		if t.ID == "" {
			return TaskEvent{}, fmt.Errorf("%s payload without _id", w.Event)
		}
		evt.Task = &t
		evt.TaskID = t.ID
	case EventTaskDeleted:
		if bytes.HasPrefix(bytes.TrimSpace(w.Data), []byte(`"`)) {
			if err := json.Unmarshal(w.Data, &evt.TaskID); err != nil {
				return TaskEvent{}, err
			}
		} else {
			var ref struct {
				ID string `json:"_id"`
			}
			if err := json.Unmarshal(w.Data, &ref); err != nil {
				return TaskEvent{}, fmt.Errorf("malformed %s payload: %w", w.Event, err)
			}
			evt.TaskID = ref.ID
		}
		if evt.TaskID == "" {
			return TaskEvent{}, fmt.Errorf("%s payload without id", w.Event)
		}
	default:
		return TaskEvent{}, fmt.Errorf("unknown event %q", w.Event)
	}
	return evt, nil
}
