// Package doctor runs readiness diagnostics for config, audio, the
// recognition service, and output tooling.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/averch/hark/internal/audio"
	"github.com/averch/hark/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	}}

	checks = append(checks, checkAPIKey(cfg.Config.Recognizer))
	checks = append(checks, checkEndpointReachable(cfg.Config.Recognizer))
	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))

	if cfg.Config.Notify.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications available"))
	}
	if cfg.Config.Cues.Enable {
		checks = append(checks, checkCueFiles(cfg.Config.Cues)...)
	}

	return Report{Checks: checks}
}

// checkAPIKey verifies the recognizer credential environment variable is set.
func checkAPIKey(cfg config.RecognizerConfig) Check {
	name := strings.TrimSpace(cfg.APIKeyEnv)
	if name == "" {
		return Check{Name: "recognizer.key", Pass: false, Message: "recognizer.api_key_env is empty"}
	}
	if strings.TrimSpace(os.Getenv(name)) == "" {
		return Check{Name: "recognizer.key", Pass: false, Message: fmt.Sprintf("environment variable %s is not set", name)}
	}
	return Check{Name: "recognizer.key", Pass: true, Message: fmt.Sprintf("%s is set", name)}
}

// checkEndpointReachable probes the recognizer host over HTTP. Any HTTP
// response counts: the session handshake carries the real credentials.
func checkEndpointReachable(cfg config.RecognizerConfig) Check {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	probeURL := endpoint
	switch {
	case strings.HasPrefix(endpoint, "wss://"):
		probeURL = "https://" + strings.TrimPrefix(endpoint, "wss://")
	case strings.HasPrefix(endpoint, "ws://"):
		probeURL = "http://" + strings.TrimPrefix(endpoint, "ws://")
	default:
		return Check{Name: "recognizer.endpoint", Pass: false, Message: fmt.Sprintf("endpoint %q is not a ws:// or wss:// URL", endpoint)}
	}

	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(probeURL)
	if err != nil {
		return Check{Name: "recognizer.endpoint", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	return Check{Name: "recognizer.endpoint", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, probeURL)}
}

// checkAudioSelection runs live device selection to surface fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCueFiles validates configured cue paths. Unset paths are fine: those
// cues fall back to synthesized tones.
func checkCueFiles(cues config.CueConfig) []Check {
	named := []struct {
		name string
		raw  string
	}{
		{"cues.start_file", cues.StartFile},
		{"cues.stop_file", cues.StopFile},
		{"cues.cancel_file", cues.CancelFile},
	}

	checks := make([]Check, 0, len(named))
	for _, cue := range named {
		if strings.TrimSpace(cue.raw) == "" {
			continue
		}
		path := config.ExpandUserPath(cue.raw)
		if _, err := os.Stat(path); err != nil {
			checks = append(checks, Check{Name: cue.name, Pass: false, Message: fmt.Sprintf("cue file not readable: %v", err)})
			continue
		}
		checks = append(checks, Check{Name: cue.name, Pass: true, Message: fmt.Sprintf("found %q", path)})
	}
	return checks
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}
