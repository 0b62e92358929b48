package ws

// SubscribeMsg is the client -> server SUBSCRIBE request: watch a node's
// output by its fully-qualified recordable path (internal/nested's dotted
// ancestor id).
type SubscribeMsg struct {
	Type  string `json:"type"` // "SUBSCRIBE"
	ReqID string `json:"reqId"`
	Path  string `json:"path"`
}

// UnsubscribeMsg is the client -> server UNSUBSCRIBE request.
type UnsubscribeMsg struct {
	Type  string `json:"type"` // "UNSUBSCRIBE"
	ReqID string `json:"reqId"`
	Path  string `json:"path"`
}

// ErrorResponse is the server -> client ERROR message.
type ErrorResponse struct {
	Type  string `json:"type"` // "ERROR"
	ReqID string `json:"reqId"`
	Error string `json:"error"`
}

// SnapshotResponse is the server -> client SNAPSHOT sent right after a
// successful SUBSCRIBE: the node's current value plus recent history
// pulled from its replay buffer.
type SnapshotResponse struct {
	Type    string     `json:"type"` // "SNAPSHOT"
	ReqID   string      `json:"reqId"`
	Path    string      `json:"path"`
	History []Envelope  `json:"history"`
}
