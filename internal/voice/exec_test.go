package voice

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) emit(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) ended() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.events)
	return n > 0 && (l.events[n-1].Kind == EventPlatformEnd || l.events[n-1].Kind == EventError)
}

func TestExecRecorder(t *testing.T) {
	log := &eventLog{}
	r := NewExecRecorder("printf RIFFdata")
	require.NoError(t, r.Start(context.Background(), log.emit))
	assert.Eventually(t, log.ended, 2*time.Second, 10*time.Millisecond)

	var audio []byte
	for _, ev := range log.events[:len(log.events)-1] {
		assert.Equal(t, EventData, ev.Kind)
		audio = append(audio, ev.Data...)
	}
	assert.Equal(t, "RIFFdata", string(audio))
	assert.Equal(t, EventPlatformEnd, log.events[len(log.events)-1].Kind)
	assert.NoError(t, r.Close())
}

func TestExecRecognizer(t *testing.T) {
	log := &eventLog{}
	r := NewExecRecognizer(`printf 'buy\n\nbuy milk\n'`)
	require.NoError(t, r.Start(context.Background(), log.emit))
	assert.Eventually(t, log.ended, 2*time.Second, 10*time.Millisecond)

	require.Len(t, log.events, 3)
	assert.Equal(t, "buy", log.events[0].Text)
	assert.Equal(t, "buy milk", log.events[1].Text)
	assert.Equal(t, Event{Kind: EventPlatformEnd, Text: "buy milk"}, log.events[2])
}

func TestExecRecorder_Failure(t *testing.T) {
	log := &eventLog{}
	r := NewExecRecorder("exit 3")
	require.NoError(t, r.Start(context.Background(), log.emit))
	assert.Eventually(t, log.ended, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, EventError, log.events[len(log.events)-1].Kind)

	assert.Error(t, NewExecRecorder(" ").Start(context.Background(), log.emit))
}

func TestExecRecorder_StopIsNotAnError(t *testing.T) {
	log := &eventLog{}
	r := NewExecRecorder("exec sleep 5")
	require.NoError(t, r.Start(context.Background(), log.emit))
	r.Stop()
	assert.Eventually(t, log.ended, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, EventPlatformEnd, log.events[len(log.events)-1].Kind)
}

func TestExecRecorder_StopEndsWholePipeline(t *testing.T) {
	log := &eventLog{}
	r := NewExecRecorder("sleep 30 | cat")
	require.NoError(t, r.Start(context.Background(), log.emit))
	time.Sleep(200 * time.Millisecond)
	r.Stop()
	assert.Eventually(t, log.ended, 3*time.Second, 10*time.Millisecond)
	assert.NoError(t, r.Close())
}

func TestExecRecorder_CloseKillsPipeline(t *testing.T) {
	log := &eventLog{}
	r := NewExecRecorder("sleep 30 | cat")
	require.NoError(t, r.Start(context.Background(), log.emit))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, r.Close())
	assert.Eventually(t, log.ended, 3*time.Second, 10*time.Millisecond)
}

func TestDetectCapabilities(t *testing.T) {
	caps, canRecord := DetectCapabilities("sh -c true", "definitely-not-a-binary-xyz")
	assert.True(t, canRecord)
	assert.False(t, caps.SpeechRecognition)

	caps, canRecord = DetectCapabilities("", "sh")
	assert.False(t, canRecord)
	assert.True(t, caps.SpeechRecognition)
}
