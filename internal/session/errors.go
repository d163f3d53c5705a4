package session

import "errors"

var (
	// ErrServiceUnavailable means the recognition service cannot run at all;
	// no session is started.
	ErrServiceUnavailable = errors.New("recognition service unavailable")

	// ErrAudioConfiguration means the capture stream could not be set up;
	// the session aborts before any audio is streamed.
	ErrAudioConfiguration = errors.New("audio session configuration failed")

	// ErrRecognitionFailed wraps a recognizer error raised after speech was
	// acknowledged at least once.
	ErrRecognitionFailed = errors.New("recognition failed")
)

// IsServiceUnavailable reports whether an error represents a recognizer that
// cannot run.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
