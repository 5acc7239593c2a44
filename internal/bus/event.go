package bus

import "time"

// Event kinds published in this process. Subscribers filter by prefix, so
// "conn." matches every connection lifecycle event.
const (
	KindConnOpen   = "conn.open"
	KindConnClosed = "conn.closed"

	KindStateUpdated = "state.updated"
	KindStateReset   = "state.reset"
	KindActionFailed = "state.action_failed"
	KindThemeChanged = "state.theme_changed"
)

// Event is a notification published on the in-process bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Now builds an event stamped with the current time.
func Now(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
