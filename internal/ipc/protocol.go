// Package ipc implements the unix-socket control channel between the hark
// CLI and the process that owns the live session.
package ipc

// Commands accepted by the session owner.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandStop   = "stop"
	CommandCancel = "cancel"
)

// Request is one newline-delimited JSON command sent by a client.
type Request struct {
	Command string `json:"command"`
}

// Response is the owner's single JSON reply to a Request.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Session string `json:"session,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
