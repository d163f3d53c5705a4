// Package notify surfaces session outcomes as freedesktop desktop
// notifications dispatched over DBus via busctl.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/averch/hark/internal/config"
)

// Notifier sends replaceable desktop notifications. Successive messages reuse
// one notification ID so outcome updates never stack.
type Notifier struct {
	cfg    config.NotifyConfig
	logger *slog.Logger

	mu        sync.Mutex
	replaceID uint32
}

// New creates a notifier from runtime config.
func New(cfg config.NotifyConfig, logger *slog.Logger) *Notifier {
	return &Notifier{cfg: cfg, logger: logger}
}

// Info shows a short-lived informational message.
func (n *Notifier) Info(ctx context.Context, text string) {
	n.send(ctx, text, 1500)
}

// Error shows a failure message using the configured error timeout.
func (n *Notifier) Error(ctx context.Context, text string) {
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 2500
	}
	n.send(ctx, text, timeout)
}

// Dismiss closes the currently displayed notification, if any.
func (n *Notifier) Dismiss(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}

	n.mu.Lock()
	id := n.replaceID
	n.replaceID = 0
	n.mu.Unlock()
	if id == 0 {
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := desktopDismiss(runCtx, id); err != nil {
		n.log("desktop dismiss failed", err)
	}
}

func (n *Notifier) send(ctx context.Context, text string, timeoutMS int) {
	if !n.cfg.Enable || text == "" {
		return
	}

	appName := strings.TrimSpace(n.cfg.AppName)
	if appName == "" {
		appName = "hark"
	}

	n.mu.Lock()
	replaceID := n.replaceID
	n.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()

	id, err := desktopNotify(runCtx, appName, replaceID, text, timeoutMS)
	if err != nil {
		n.log("desktop notify failed", err)
		return
	}

	n.mu.Lock()
	n.replaceID = id
	n.mu.Unlock()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}

// desktopNotify sends a freedesktop notification over DBus via busctl.
// It returns the notification ID assigned by the server.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	args := []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		"Notify",
		"susssasa{sv}i",
		appName,
		fmt.Sprintf("%d", replaceID),
		"",
		summary,
		"",
		"0", // actions array length
		"0", // hints map length
		fmt.Sprintf("%d", timeoutMS),
	}

	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return 0, fmt.Errorf("desktop notify failed: %w", err)
		}
		return 0, fmt.Errorf("desktop notify failed: %w (%s)", err, trimmed)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", strings.TrimSpace(string(out)))
	}

	value, parseErr := strconv.ParseUint(fields[1], 10, 32)
	if parseErr != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], parseErr)
	}
	return uint32(value), nil
}

// desktopDismiss requests explicit close by notification ID.
func desktopDismiss(ctx context.Context, id uint32) error {
	args := []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		"CloseNotification",
		"u",
		fmt.Sprintf("%d", id),
	}

	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return fmt.Errorf("desktop dismiss failed: %w", err)
		}
		return fmt.Errorf("desktop dismiss failed: %w (%s)", err, trimmed)
	}

	return nil
}
