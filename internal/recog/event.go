// Package recog defines the event contract between a streaming recognition
// service adapter and the session controller. Adapters translate their
// service's callback surface into a single ordered Event stream; the
// controller consumes events from exactly one goroutine.
package recog

import "errors"

// Kind tags one recognition lifecycle event.
type Kind int

const (
	// KindSpeechDetected reports that the service acknowledged speech in the
	// audio at least once. Emitted at most once per session by well-behaved
	// adapters; consumers must treat it as a latch either way.
	KindSpeechDetected Kind = iota + 1
	// KindHypothesis carries a non-final, incremental transcription update.
	KindHypothesis
	// KindFinalResult carries the last transcription update for the session;
	// no further text follows.
	KindFinalResult
	// KindTaskFinished reports that the recognition task ended. Err is set
	// when the task failed; a nil Err alone is not a terminal outcome.
	KindTaskFinished
	// KindCancelled confirms a cancellation request took effect.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindSpeechDetected:
		return "speech-detected"
	case KindHypothesis:
		return "hypothesis"
	case KindFinalResult:
		return "final-result"
	case KindTaskFinished:
		return "task-finished"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is one tagged recognition lifecycle update. Text is populated for
// KindHypothesis and KindFinalResult; Err only for KindTaskFinished.
type Event struct {
	Kind Kind
	Text string
	Err  error
}

var (
	// ErrUnavailable indicates the recognition service cannot run at all,
	// reported synchronously before any session starts.
	ErrUnavailable = errors.New("recognition service unavailable")
	// ErrNoSpeech indicates the task finished without any usable speech.
	// The session controller classifies it as benign silence or failure based
	// on whether speech was ever detected.
	ErrNoSpeech = errors.New("recognition finished without usable speech")
)

// IsUnavailable reports whether an error means the service cannot run.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

