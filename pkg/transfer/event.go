package transfer

import "time"

type Event struct {
	Type      EventType
	Timestamp time.Time
	Body      interface{}
}

type EventType string

const (
	EventTypeMatchCreated  EventType = "MatchCreated"
	EventTypeMatchOutdated EventType = "MatchOutdated"
)

// MatchOutdatedEventBody identifies a match that dropped out of the proposal set
type MatchOutdatedEventBody struct {
	RideID     string
	MatchedID  string
	Source     RecordFamily
	OutdatedAt time.Time
}
