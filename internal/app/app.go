// Package app wires configuration, audio, recognition, IPC, and output into
// the hark command surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/averch/hark/internal/audio"
	"github.com/averch/hark/internal/auth"
	"github.com/averch/hark/internal/cli"
	"github.com/averch/hark/internal/config"
	"github.com/averch/hark/internal/doctor"
	"github.com/averch/hark/internal/ipc"
	"github.com/averch/hark/internal/logging"
	"github.com/averch/hark/internal/notify"
	"github.com/averch/hark/internal/output"
	"github.com/averch/hark/internal/recog/deepgram"
	"github.com/averch/hark/internal/session"
	"github.com/averch/hark/internal/transcript"
	"github.com/averch/hark/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("hark"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("hark"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.CommandStop)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.CommandCancel)
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active hark session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandToggle either forwards to a live owner or becomes the owner and runs
// one full session.
func (r Runner) commandToggle(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandToggle)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, ipc.CommandToggle)
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	authorizer := auth.NewPulseAuthorizer(logger)
	if status := authorizer.RequestAuthorization(ctx); status != auth.StatusAuthorized {
		fmt.Fprintf(r.Stderr, "error: capture not authorized (%s)\n", status)
		logger.Error("capture authorization failed", "status", status.String())
		return 1
	}

	notifier := notify.New(cfg.Notify, logger)
	router := audio.NewRouter(cfg.Audio, cfg.Cues, logger)
	observer := &sessionNotifier{ctx: ctx, notifier: notifier}
	controller := session.NewController(logger, recognizerOpener(cfg), router, observer, cfg.Session.IdleTimeout())

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result)
	defer notifier.Dismiss(context.Background())

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}

	final := strings.TrimSpace(result.Transcript)
	if final == "" {
		fmt.Fprintln(r.Stdout, "no speech detected")
		return 0
	}

	committer := output.NewCommitter(cfg.Clipboard)
	if err := committer.Commit(ctx, result.Transcript); err != nil {
		notifier.Error(context.Background(), "Clipboard commit failed")
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("transcript commit failed", "error", err.Error())
		return 1
	}

	fmt.Fprintln(r.Stdout, final)
	return 0
}

// recognizerOpener builds the per-session recognition stream factory.
func recognizerOpener(cfg config.Config) session.Opener {
	return session.OpenFunc(func(ctx context.Context) (session.Recognizer, error) {
		return deepgram.Dial(ctx, deepgram.Config{
			Endpoint:  cfg.Recognizer.Endpoint,
			APIKey:    os.Getenv(cfg.Recognizer.APIKeyEnv),
			Language:  cfg.Recognizer.Language,
			Model:     cfg.Recognizer.Model,
			Punctuate: cfg.Recognizer.Punctuate,
			Assembly: transcript.Options{
				TrailingSpace:       cfg.Transcript.TrailingSpace,
				CapitalizeSentences: cfg.Transcript.CapitalizeSentences,
			},
		})
	})
}

// sessionNotifier surfaces session outcomes as desktop notifications.
type sessionNotifier struct {
	ctx      context.Context
	notifier *notify.Notifier
}

func (s *sessionNotifier) OnTranscript(text string, final bool) {
	if !final {
		return
	}
	if strings.TrimSpace(text) == "" {
		s.notifier.Info(s.ctx, "No speech detected")
		return
	}
	s.notifier.Info(s.ctx, "Transcript ready")
}

func (s *sessionNotifier) OnCancelled() {
	s.notifier.Info(s.ctx, "Cancelled")
}

func (s *sessionNotifier) OnFailed(err error) {
	if session.IsServiceUnavailable(err) {
		s.notifier.Error(s.ctx, "Recognition service unavailable")
		return
	}
	s.notifier.Error(s.ctx, "Recognition failed")
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"session", result.ID,
		"state", result.State,
		"cancelled", result.Cancelled,
		"final", result.Final,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"bytes_captured", result.BytesCaptured,
		"transcript_length", len(result.Transcript),
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
