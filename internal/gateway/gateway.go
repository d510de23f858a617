// Package gateway defines the boundary to the underlying messaging
// library. The session core only ever sees these types; the whatsmeow
// implementation lives behind them.
package gateway

import "context"

// EventType tags a lifecycle or message event emitted by a connection.
type EventType int

const (
	EventQR EventType = iota
	EventAuthenticated
	EventReady
	EventAuthFailure
	EventMessage
	EventDisconnected
)

// String returns a string representation of the event type
func (t EventType) String() string {
	switch t {
	case EventQR:
		return "qr"
	case EventAuthenticated:
		return "authenticated"
	case EventReady:
		return "ready"
	case EventAuthFailure:
		return "auth_failure"
	case EventMessage:
		return "message"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is a single occurrence on a connection. Code is set for EventQR,
// Reason for EventAuthFailure/EventDisconnected, From/Body for EventMessage.
type Event struct {
	Type   EventType
	Code   string
	Reason string
	From   string
	Body   string
}

// EventHandler receives every event a connection emits. Handlers must not
// block; slow work is the handler's problem, not the connection's.
type EventHandler func(ev Event)

// MediaKind selects how an outbound attachment is presented to recipients.
type MediaKind int

const (
	MediaKindImage MediaKind = iota
	MediaKindVideo
	MediaKindDocument
)

// Media is a normalized outbound attachment.
type Media struct {
	Data     []byte
	MimeType string
	FileName string
	Caption  string
	Kind     MediaKind
}

// Connection is a live link for one client id.
type Connection interface {
	// Start begins connecting and pairing. It returns once the connect
	// attempt has been issued; progress arrives through the event handler.
	Start(ctx context.Context) error

	// SendText delivers a plain text message to a phone number.
	SendText(ctx context.Context, number, text string) error

	// SendMedia delivers an attachment to a phone number.
	SendMedia(ctx context.Context, number string, media Media) error

	// Close tears the connection down. After Close returns no further
	// events are emitted for this connection.
	Close()
}

// Gateway creates connections. Dial must not block on network I/O; ctx
// bounds the local store setup only.
type Gateway interface {
	Dial(ctx context.Context, clientID string, handler EventHandler) (Connection, error)
}
