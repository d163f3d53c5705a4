package audio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/averch/hark/internal/config"
)

func TestCueSamplesPresent(t *testing.T) {
	require.NotEmpty(t, cueSamples(cueStart))
	require.NotEmpty(t, cueSamples(cueStop))
	require.NotEmpty(t, cueSamples(cueCancel))
	require.Empty(t, cueSamples(cueKind(99)))
}

func TestCuePathPicksConfiguredFile(t *testing.T) {
	cfg := config.CueConfig{
		StartFile:  "/tmp/start.wav",
		StopFile:   "/tmp/stop.wav",
		CancelFile: "/tmp/cancel.wav",
	}
	require.Equal(t, "/tmp/start.wav", cuePath(cueStart, cfg))
	require.Equal(t, "/tmp/stop.wav", cuePath(cueStop, cfg))
	require.Equal(t, "/tmp/cancel.wav", cuePath(cueCancel, cfg))
	require.Empty(t, cuePath(cueKind(99), cfg))
}

func TestPlayCueFileMissing(t *testing.T) {
	err := playCueFile(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat cue file")
}

func TestSynthesizeToneDuration(t *testing.T) {
	got := synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0.2})
	want := samplesForDuration(100 * time.Millisecond)
	require.Len(t, got, want)
}

func TestSynthesizeToneInvalidSpecReturnsEmpty(t *testing.T) {
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 0, duration: 100 * time.Millisecond, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 0, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0}))
}

func TestSynthesizeCueInsertsGapBetweenParts(t *testing.T) {
	parts := []toneSpec{
		{frequencyHz: 440, duration: 50 * time.Millisecond, volume: 0.2},
		{frequencyHz: 660, duration: 50 * time.Millisecond, volume: 0.2},
	}
	got := synthesizeCue(parts)
	want := 2*samplesForDuration(50*time.Millisecond) + samplesForDuration(22*time.Millisecond)
	require.Len(t, got, want)
}

func TestSamplesForDuration(t *testing.T) {
	require.Equal(t, 0, samplesForDuration(0))
	require.Greater(t, samplesForDuration(25*time.Millisecond), 0)
}
