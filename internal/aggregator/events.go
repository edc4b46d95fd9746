package aggregator

import (
	"github.com/rockaxx/freegames/internal/correlation"
	"github.com/rockaxx/freegames/internal/game"
)

// EventType names an event on the wire.
type EventType string

// Event types. Every stream ends with exactly one EventDone while the
// consumer is attached.
const (
	EventItem EventType = "item"
	EventTag  EventType = "tag"
	EventPing EventType = "ping"
	EventDone EventType = "done"
)

// Event is one element of a stream. Data holds one of the payload types
// below and is JSON-serializable.
type Event struct {
	Type EventType
	Data any
}

// ItemData is the payload of an item event.
type ItemData struct {
	Source game.Source `json:"source"`
	Item   game.Record `json:"item"`
}

// TagData retroactively attaches correlation metadata to an item delivered
// earlier in the same stream.
type TagData struct {
	Source game.Source      `json:"source"`
	Href   string           `json:"href"`
	Of     game.Correlation `json:"of"`
}

// PingData is the heartbeat payload; T is Unix milliseconds.
type PingData struct {
	T int64 `json:"t"`
}

// DoneData closes a stream.
type DoneData struct {
	Items int `json:"items"`
}

func itemEvent(rec game.Record) Event {
	return Event{Type: EventItem, Data: ItemData{Source: rec.Source, Item: rec}}
}

func tagEvent(r correlation.Retag) Event {
	return Event{Type: EventTag, Data: TagData{Source: r.Source, Href: r.URL, Of: r.Correlation}}
}

func pingEvent(ms int64) Event {
	return Event{Type: EventPing, Data: PingData{T: ms}}
}

func doneEvent(items int) Event {
	return Event{Type: EventDone, Data: DoneData{Items: items}}
}
