// Package session coordinates one live recognition attempt: capture wiring,
// cue playback, idle-timeout policy, and terminal outcome classification.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/averch/hark/internal/fsm"
	"github.com/averch/hark/internal/ipc"
	"github.com/averch/hark/internal/recog"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

const defaultIdleTimeout = 1500 * time.Millisecond

// Result is the complete lifecycle summary returned by one Run invocation.
type Result struct {
	ID            string
	State         fsm.State
	Transcript    string
	Final         bool
	Cancelled     bool
	Err           error
	BytesCaptured int64
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Controller owns the single live session. All recognizer events, idle-timer
// fires, and stop/cancel requests funnel through Run's one event loop, so
// state mutation and observer delivery are serialized.
type Controller struct {
	logger      *slog.Logger
	open        Opener
	audio       AudioRouter
	observer    Observer
	idleTimeout time.Duration

	mu             sync.RWMutex
	state          fsm.State
	sessionID      string
	speechDetected bool

	actions chan action
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	opener Opener,
	router AudioRouter,
	observer Observer,
	idleTimeout time.Duration,
) *Controller {
	if opener == nil {
		opener = OpenFunc(func(context.Context) (Recognizer, error) {
			return nil, ErrServiceUnavailable
		})
	}
	if router == nil {
		router = noopRouter{}
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	return &Controller{
		logger:      logger,
		open:        opener,
		audio:       router,
		observer:    observer,
		idleTimeout: idleTimeout,
		state:       fsm.StateIdle,
		actions:     make(chan action, 1),
	}
}

// State returns the current lifecycle state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SessionID returns the active session identifier, empty when idle.
func (c *Controller) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// transition applies one lifecycle event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// latchSpeech sets the monotonic speech-acknowledged flag.
func (c *Controller) latchSpeech() {
	c.mu.Lock()
	c.speechDetected = true
	c.mu.Unlock()
}

func (c *Controller) speechWasDetected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.speechDetected
}

// Run executes one session from start to its single terminal outcome.
// Exactly one of OnTranscript(final=true), OnCancelled, or OnFailed reaches
// the observer per successful start; a start that never enters the lifecycle
// (already running) returns an error without touching the observer.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{ID: uuid.NewString(), StartedAt: time.Now()}

	if err := c.transition(fsm.EventStart); err != nil {
		result.State = c.State()
		result.Err = err
		result.FinishedAt = time.Now()
		return result
	}

	c.mu.Lock()
	c.sessionID = result.ID
	c.speechDetected = false
	c.mu.Unlock()

	// A stop/cancel raced against the previous session's teardown must not
	// leak into this one.
	select {
	case <-c.actions:
	default:
	}
	defer func() {
		c.mu.Lock()
		c.sessionID = ""
		c.mu.Unlock()
	}()

	rec, err := c.open.Open(ctx)
	if err != nil {
		if recog.IsUnavailable(err) {
			err = fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		return c.fail(&result, err)
	}

	frames, err := c.audio.BeginCapture(ctx)
	if err != nil {
		_ = rec.Cancel()
		return c.fail(&result, fmt.Errorf("%w: %v", ErrAudioConfiguration, err))
	}

	endCapture := func() {
		if bytes := c.audio.BytesCaptured(); bytes > 0 {
			result.BytesCaptured = bytes
		}
		c.audio.EndCapture()
	}
	defer endCapture()

	c.audio.PlayStartCue(ctx)

	timerFired := make(chan struct{}, 1)
	timer := NewIdleTimer(func() {
		select {
		case timerFired <- struct{}{}:
		default:
		}
	})
	defer timer.Disarm()

	if err := c.transition(fsm.EventListen); err != nil {
		_ = rec.Cancel()
		return c.fail(&result, err)
	}
	timer.Arm(c.idleTimeout)

	// Frame forwarding never blocks the capture side: errors after teardown
	// just turn the loop into a drain.
	go func() {
		forwarding := true
		for frame := range frames {
			if !forwarding {
				continue
			}
			if err := rec.SendAudio(frame); err != nil {
				forwarding = false
			}
		}
	}()

	stopRequested := false
	doStop := func(reason string) {
		if stopRequested {
			return
		}
		stopRequested = true
		c.log("session stopping", "session", result.ID, "reason", reason)
		timer.Disarm()
		endCapture()
		if err := rec.Finish(); err != nil {
			c.log("recognizer finish failed", "session", result.ID, "error", err.Error())
		}
		_ = c.transition(fsm.EventStop)
		// Cue completion only tears down playback; the outcome is driven by
		// recognizer events alone.
		c.audio.PlayStopCue(ctx, func() {
			c.log("stop cue complete", "session", result.ID)
		})
	}
	doCancel := func(reason string) {
		c.log("session cancelling", "session", result.ID, "reason", reason)
		timer.Disarm()
		endCapture()
		if err := rec.Cancel(); err != nil {
			c.log("recognizer cancel failed", "session", result.ID, "error", err.Error())
		}
		_ = c.transition(fsm.EventCancel)
		c.audio.PlayCancelCue(ctx)
	}

	ctxDone := ctx.Done()
	for {
		select {
		case <-ctxDone:
			ctxDone = nil
			doCancel("context cancelled")

		case a := <-c.actions:
			switch a {
			case actionStop:
				doStop("requested")
			case actionCancel:
				doCancel("requested")
			}

		case <-timerFired:
			doStop("idle timeout")

		case ev, ok := <-rec.Events():
			if !ok {
				// The recognizer went away without a terminal event. Treat it
				// like a silent finish so the observer always hears exactly
				// one outcome.
				timer.Disarm()
				_ = c.transition(fsm.EventFinish)
				result.Final = true
				c.observer.OnTranscript("", true)
				return c.finish(result)
			}

			switch ev.Kind {
			case recog.KindSpeechDetected:
				c.latchSpeech()

			case recog.KindHypothesis:
				if c.State() == fsm.StateListening {
					timer.Arm(c.idleTimeout)
				}
				result.Transcript = ev.Text
				c.observer.OnTranscript(ev.Text, false)

			case recog.KindFinalResult:
				timer.Disarm()
				if !stopRequested {
					stopRequested = true
					endCapture()
					c.audio.PlayStopCue(ctx, nil)
				}
				_ = c.transition(fsm.EventFinish)
				result.Transcript = ev.Text
				result.Final = true
				c.observer.OnTranscript(ev.Text, true)
				return c.finish(result)

			case recog.KindTaskFinished:
				timer.Disarm()
				if ev.Err == nil {
					// Not terminal on its own; a FinalResult or Cancelled
					// follows, or the event channel closes.
					continue
				}
				if c.speechWasDetected() {
					_ = c.transition(fsm.EventFail)
					result.Err = fmt.Errorf("%w: %v", ErrRecognitionFailed, ev.Err)
					c.observer.OnFailed(result.Err)
					return c.finish(result)
				}
				// Silence with no speech ever acknowledged is a benign empty
				// final result, not a failure.
				_ = c.transition(fsm.EventFinish)
				result.Final = true
				c.observer.OnTranscript("", true)
				return c.finish(result)

			case recog.KindCancelled:
				timer.Disarm()
				_ = c.transition(fsm.EventFinish)
				result.Cancelled = true
				c.observer.OnCancelled()
				return c.finish(result)
			}
		}
	}
}

// fail ends a started session with a failure outcome.
func (c *Controller) fail(result *Result, err error) Result {
	_ = c.transition(fsm.EventFail)
	result.Err = err
	c.observer.OnFailed(err)
	return c.finish(*result)
}

// finish stamps the terminal snapshot on a result.
func (c *Controller) finish(result Result) Result {
	result.State = c.State()
	result.FinishedAt = time.Now()
	return result
}

// Handle serves IPC commands for the active session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(c.State()), Session: c.SessionID(), Message: "status"}
	case ipc.CommandToggle:
		return c.requestStop("toggle")
	case ipc.CommandStop:
		return c.requestStop("stop")
	case ipc.CommandCancel:
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// requestStop enqueues a stop action when state permits it.
func (c *Controller) requestStop(source string) ipc.Response {
	state := c.State()
	if state == fsm.StateStopping {
		return ipc.Response{OK: false, State: string(state), Error: "already stopping"}
	}
	if state != fsm.StateListening {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}

	select {
	case c.actions <- actionStop:
		return ipc.Response{OK: true, State: string(state), Message: "stop requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "stop already requested"}
	}
}

// requestCancel enqueues a cancel action when state permits it.
func (c *Controller) requestCancel() ipc.Response {
	state := c.State()
	if state != fsm.StateListening && state != fsm.StateStopping {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}

	select {
	case c.actions <- actionCancel:
		return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "cancel already requested"}
	}
}

func (c *Controller) log(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(message, args...)
}
