package websocket

import "github.com/campushq/gatepass-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionWatch   Action = "watch"
	ActionUnwatch Action = "unwatch"
	ActionPing    Action = "ping"
)

// RequestPayload is a client message on the stream socket.
type RequestPayload struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventStopped  Event = "stopped"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse carries a complete ordered result set; it is never a diff.
type SnapshotResponse struct {
	Event  Event            `json:"event"`
	Scope  string           `json:"scope"`
	Passes []model.GatePass `json:"passes"`
}

// StoppedResponse acknowledges that the active watch was cancelled.
type StoppedResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
