package deepgram

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/averch/hark/internal/recog"
	"github.com/averch/hark/internal/transcript"
)

func testConfig() Config {
	return Config{
		Endpoint:  "wss://api.example.test/v1/listen",
		APIKey:    "key",
		Language:  "en-US",
		Model:     "nova-3",
		Punctuate: true,
	}
}

func drain(t *testing.T, s *Stream, n int) []recog.Event {
	t.Helper()
	events := make([]recog.Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-s.events:
			events = append(events, ev)
		case <-time.After(time.Second):
			t.Fatalf("expected %d events, got %d", n, len(events))
		}
	}
	select {
	case ev := <-s.events:
		t.Fatalf("unexpected extra event: %+v", ev)
	default:
	}
	return events
}

func TestDialRequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = " "

	_, err := Dial(context.Background(), cfg)
	require.ErrorIs(t, err, recog.ErrUnavailable)
}

func TestBuildListenURL(t *testing.T) {
	raw, err := buildListenURL(testConfig())
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "wss", parsed.Scheme)
	require.Equal(t, "/v1/listen", parsed.Path)

	query := parsed.Query()
	require.Equal(t, "linear16", query.Get("encoding"))
	require.Equal(t, "16000", query.Get("sample_rate"))
	require.Equal(t, "1", query.Get("channels"))
	require.Equal(t, "en-US", query.Get("language"))
	require.Equal(t, "nova-3", query.Get("model"))
	require.Equal(t, "true", query.Get("smart_format"))
	require.Equal(t, "true", query.Get("interim_results"))
	require.Equal(t, "true", query.Get("vad_events"))
}

func TestBuildListenURLOmitsEmptyModel(t *testing.T) {
	cfg := testConfig()
	cfg.Model = " "
	raw, err := buildListenURL(cfg)
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.False(t, parsed.Query().Has("model"))
}

func TestBuildListenURLRejectsEmptyEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoint = ""
	_, err := buildListenURL(cfg)
	require.Error(t, err)
}

func TestProcessMessageSpeechStarted(t *testing.T) {
	s := newStream(testConfig())

	done := s.processMessage([]byte(`{"type":"SpeechStarted","timestamp":0.4}`))
	require.False(t, done)

	events := drain(t, s, 1)
	require.Equal(t, recog.KindSpeechDetected, events[0].Kind)
}

func TestProcessMessageInterimHypothesis(t *testing.T) {
	s := newStream(testConfig())

	done := s.processMessage([]byte(`{
		"type":"Results",
		"is_final":false,
		"channel":{"alternatives":[{"transcript":"hello wor"}]}
	}`))
	require.False(t, done)

	events := drain(t, s, 1)
	require.Equal(t, recog.KindHypothesis, events[0].Kind)
	require.Equal(t, "hello wor", events[0].Text)
}

func TestProcessMessageFinalSegmentsAccumulate(t *testing.T) {
	s := newStream(testConfig())

	s.processMessage([]byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"hello world"}]}}`))
	s.processMessage([]byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"how are"}]}}`))

	events := drain(t, s, 2)
	require.Equal(t, "hello world", events[0].Text)
	require.Equal(t, "hello world how are", events[1].Text)
}

func TestProcessMessageEmptyTranscriptIgnored(t *testing.T) {
	s := newStream(testConfig())

	s.processMessage([]byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"  "}]}}`))
	s.processMessage([]byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[]}}`))

	drain(t, s, 0)
}

func TestProcessMessageMetadataFinishesWithTranscript(t *testing.T) {
	cfg := testConfig()
	cfg.Assembly = transcript.Options{CapitalizeSentences: true}
	s := newStream(cfg)

	s.processMessage([]byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"good morning"}]}}`))
	done := s.processMessage([]byte(`{"type":"Metadata","request_id":"r"}`))
	require.True(t, done)

	events := drain(t, s, 3)
	require.Equal(t, recog.KindHypothesis, events[0].Kind)
	require.Equal(t, recog.KindFinalResult, events[1].Kind)
	require.Equal(t, "Good morning", events[1].Text)
	require.Equal(t, recog.KindTaskFinished, events[2].Kind)
	require.NoError(t, events[2].Err)
}

func TestEmitFinishWithoutSpeechReportsErrNoSpeech(t *testing.T) {
	s := newStream(testConfig())

	s.emitFinish()

	events := drain(t, s, 1)
	require.Equal(t, recog.KindTaskFinished, events[0].Kind)
	require.ErrorIs(t, events[0].Err, recog.ErrNoSpeech)
}

func TestProcessMessageMalformedJSONIgnored(t *testing.T) {
	s := newStream(testConfig())
	require.False(t, s.processMessage([]byte(`{not json`)))
	drain(t, s, 0)
}
