package driver

// SubmitResponse is the driver's answer to a storyboard upload.
type SubmitResponse struct {
	ID       string  `json:"id"`
	Accepted bool    `json:"accepted"`
	Frames   int     `json:"frames"`
	Duration float64 `json:"duration,omitempty"`
	Message  string  `json:"message,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Message is what the driver sends back over the websocket: an ack per
// frame, a final done, or an error.
type Message struct {
	Type  string `json:"type"`
	Scene string `json:"scene,omitempty"`
	Index int    `json:"index"`
	Error string `json:"error,omitempty"`
}

const (
	MessageAck   = "ack"
	MessageDone  = "done"
	MessageError = "error"
)

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateDisconnected:
		return "disconnected"
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
