package model

import "time"

// Action is the kind of change carried by a realtime event.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionConnect Action = "connect" // first frame of every subscription
)

// Record is a generic field map as it travels on the wire.
type Record map[string]any

// String returns the string value of key or "".
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool returns the boolean value of key or false.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Time returns the timestamp under key. In-process records hold time.Time values, wire
// records RFC 3339 strings; zero on absence or bad format.
func (r Record) Time(key string) time.Time {
	if t, ok := r[key].(time.Time); ok {
		return t
	}
	t, err := time.Parse(time.RFC3339Nano, r.String(key))
	if err != nil {
		return time.Time{}
	}
	return t
}

// RecordEvent is a single change pushed to subscribers of a collection.
type RecordEvent struct {
	Action     Action
	Collection string
	Record     Record
}
