// Package deepgram adapts the Deepgram live-listen websocket protocol to the
// recog event contract.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/averch/hark/internal/recog"
	"github.com/averch/hark/internal/transcript"
)

const defaultSampleRate = 16000

// Config controls one live recognition stream.
type Config struct {
	Endpoint    string
	APIKey      string
	Language    string
	Model       string
	Punctuate   bool
	SampleRate  int
	Assembly    transcript.Options
	DialTimeout time.Duration
}

// Stream is one live recognition task. All events are emitted by a single
// reader goroutine, so consumers observe them in service order.
type Stream struct {
	conn   *websocket.Conn
	events chan recog.Event

	connMu sync.Mutex // serializes writes and send-side close

	mu         sync.Mutex
	closedSend bool
	cancelled  bool

	assembly transcript.Options
	segments []string
}

// Dial opens the websocket, sends the stream configuration as query
// parameters, and starts the reader. Connection-establishment failures are
// reported synchronously as recog.ErrUnavailable.
func Dial(ctx context.Context, cfg Config) (*Stream, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: API key is empty", recog.ErrUnavailable)
	}

	listenURL, err := buildListenURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", recog.ErrUnavailable, err)
	}

	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, listenURL,
		http.Header{"Authorization": {"Token " + cfg.APIKey}})
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", recog.ErrUnavailable, cfg.Endpoint, err)
	}

	s := newStream(cfg)
	s.conn = conn
	go s.readLoop()
	return s, nil
}

// newStream builds stream state without a connection (also used by tests).
func newStream(cfg Config) *Stream {
	return &Stream{
		events:   make(chan recog.Event, 32),
		assembly: cfg.Assembly,
	}
}

// buildListenURL renders the live-listen endpoint with stream parameters.
func buildListenURL(cfg Config) (string, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	listenURL, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %v", endpoint, err)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	query := listenURL.Query()
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(sampleRate))
	query.Set("channels", "1")
	query.Set("language", cfg.Language)
	if model := strings.TrimSpace(cfg.Model); model != "" {
		query.Set("model", model)
	}
	query.Set("smart_format", strconv.FormatBool(cfg.Punctuate))
	query.Set("interim_results", "true")
	query.Set("vad_events", "true")
	query.Set("endpointing", "300")
	listenURL.RawQuery = query.Encode()

	return listenURL.String(), nil
}

// Events returns the ordered recognition event stream. The channel is closed
// after the terminal event.
func (s *Stream) Events() <-chan recog.Event {
	return s.events
}

// SendAudio forwards one chunk of PCM audio to the service.
func (s *Stream) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.mu.Lock()
	closed := s.closedSend
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("recognition stream already closed for sending")
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("send audio to recognizer: %w", err)
	}
	return nil
}

// Finish closes the send side and asks the service to flush a final result.
// The terminal events still arrive through Events.
func (s *Stream) Finish() error {
	s.mu.Lock()
	if s.closedSend {
		s.mu.Unlock()
		return nil
	}
	s.closedSend = true
	s.mu.Unlock()

	s.connMu.Lock()
	defer s.connMu.Unlock()
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("close recognizer stream: %w", err)
	}
	return nil
}

// Cancel aborts the task. The reader confirms with a Cancelled event.
func (s *Stream) Cancel() error {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return nil
	}
	s.cancelled = true
	s.closedSend = true
	s.mu.Unlock()

	return s.conn.Close()
}

// readLoop receives service messages until close or error and translates them
// into recog events. It is the only writer to s.events.
func (s *Stream) readLoop() {
	defer close(s.events)
	defer func() { _ = s.conn.Close() }()

	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			cancelled := s.cancelled
			finished := s.closedSend
			s.mu.Unlock()

			switch {
			case cancelled:
				s.events <- recog.Event{Kind: recog.KindCancelled}
			case finished || websocket.IsCloseError(err, websocket.CloseNormalClosure):
				s.emitFinish()
			default:
				s.events <- recog.Event{Kind: recog.KindTaskFinished, Err: err}
			}
			return
		}

		if msgType == websocket.BinaryMessage {
			continue
		}
		if done := s.processMessage(msg); done {
			return
		}
	}
}

// processMessage dispatches one service message. It reports true when the
// message was terminal and the loop should exit.
func (s *Stream) processMessage(msg []byte) bool {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		return false
	}

	switch api.TypeResponse(envelope.Type) {
	case api.TypeSpeechStartedResponse:
		s.events <- recog.Event{Kind: recog.KindSpeechDetected}

	case api.TypeMessageResponse:
		var result api.MessageResponse
		if err := json.Unmarshal(msg, &result); err != nil {
			return false
		}
		s.recordResult(result)

	case api.TypeMetadataResponse:
		// sent once after CloseStream is processed; the task is complete
		s.emitFinish()
		return true
	}

	return false
}

// recordResult merges one transcription update and emits a hypothesis.
func (s *Stream) recordResult(result api.MessageResponse) {
	if len(result.Channel.Alternatives) == 0 {
		return
	}
	text := strings.TrimSpace(result.Channel.Alternatives[0].Transcript)
	if text == "" {
		return
	}

	if result.IsFinal {
		s.segments = append(s.segments, text)
		s.events <- recog.Event{
			Kind: recog.KindHypothesis,
			Text: transcript.Assemble(s.segments, transcript.Options{}),
		}
		return
	}

	interim := append(append([]string(nil), s.segments...), text)
	s.events <- recog.Event{
		Kind: recog.KindHypothesis,
		Text: transcript.Assemble(interim, transcript.Options{}),
	}
}

// emitFinish delivers the terminal events for a cleanly ended task. A task
// that produced no transcript finishes with ErrNoSpeech so the controller can
// classify silence against its speech-detected latch.
func (s *Stream) emitFinish() {
	text := s.assembled()
	if text == "" {
		s.events <- recog.Event{Kind: recog.KindTaskFinished, Err: recog.ErrNoSpeech}
		return
	}
	s.events <- recog.Event{Kind: recog.KindFinalResult, Text: text}
	s.events <- recog.Event{Kind: recog.KindTaskFinished}
}

// assembled renders the committed segments with configured formatting.
func (s *Stream) assembled() string {
	return transcript.Assemble(s.segments, s.assembly)
}
