// Package auth models the capture-authorization handshake the session owner
// runs before starting a session.
package auth

import (
	"context"
	"log/slog"

	"github.com/averch/hark/internal/audio"
)

// Status is the outcome of one authorization request.
type Status int

const (
	// StatusNotDetermined means the check has not run or gave no signal.
	StatusNotDetermined Status = iota
	// StatusAuthorized means capture may start.
	StatusAuthorized
	// StatusDenied means the audio server refused the connection outright.
	StatusDenied
	// StatusRestricted means the server is reachable but no input source is
	// currently usable.
	StatusRestricted
)

func (s Status) String() string {
	switch s {
	case StatusNotDetermined:
		return "not-determined"
	case StatusAuthorized:
		return "authorized"
	case StatusDenied:
		return "denied"
	case StatusRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Authorizer decides whether a session may start capturing.
type Authorizer interface {
	RequestAuthorization(ctx context.Context) Status
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context) Status

func (f AuthorizerFunc) RequestAuthorization(ctx context.Context) Status {
	return f(ctx)
}

// PulseAuthorizer probes the Pulse server: an unreachable server is a denial,
// a reachable server without a usable input source is restricted.
type PulseAuthorizer struct {
	logger *slog.Logger
}

// NewPulseAuthorizer creates the capture authorizer used by runtime sessions.
func NewPulseAuthorizer(logger *slog.Logger) *PulseAuthorizer {
	return &PulseAuthorizer{logger: logger}
}

// RequestAuthorization performs one probe. The result is not cached: device
// availability changes between sessions.
func (a *PulseAuthorizer) RequestAuthorization(ctx context.Context) Status {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		if a.logger != nil {
			a.logger.Debug("capture authorization probe failed", "error", err.Error())
		}
		return StatusDenied
	}
	return ClassifyDevices(devices)
}

// ClassifyDevices maps a device inventory to an authorization status.
func ClassifyDevices(devices []audio.Device) Status {
	if len(devices) == 0 {
		return StatusRestricted
	}
	for _, device := range devices {
		if device.Available && !device.Muted {
			return StatusAuthorized
		}
	}
	return StatusRestricted
}
