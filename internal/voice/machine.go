package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	settings "github.com/Yukaii/vibers-goal/internal/settings/domain"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"go.uber.org/zap"
)

// MinRecording is the shortest capture that is transcribed. Anything
// shorter is treated as an accidental tap.
const MinRecording = 300 * time.Millisecond

const transcribeTimeout = 2 * time.Minute

// DefaultStopTimeout bounds how long processing waits for the device to
// report the end of capture after Stop.
const DefaultStopTimeout = 2 * time.Second

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseProcessing
)

func (p Phase) String() string {
	switch p {
	case PhaseRecording:
		return "recording"
	case PhaseProcessing:
		return "processing"
	default:
		return "idle"
	}
}

type EventKind int

const (
	EventStart EventKind = iota
	// EventData carries an audio chunk (recorder) or an interim transcript
	// (recognizer).
	EventData
	EventStop
	// EventPlatformEnd is the device reporting the end of capture. A
	// recognizer puts its final transcript in Text.
	EventPlatformEnd
	EventError

	eventTranscribed
	eventStopTimeout
)

type Event struct {
	Kind EventKind
	Data []byte
	Text string
	Err  error

	session uint64
}

// Source is a capture device. Start must not call emit before it returns;
// Stop asks the device to finish and must eventually emit
// EventPlatformEnd. Close releases the device at once.
type Source interface {
	Start(ctx context.Context, emit func(Event)) error
	Stop()
	Close() error
}

// Preferences reads the settings the machine resolves against.
type Preferences func() (pref settings.VoiceInputProvider, apiKey string)

type Config struct {
	Preferences  Preferences
	Capabilities Capabilities
	// NewRecorder opens the microphone; nil when the host can't record.
	NewRecorder func() (Source, error)
	// NewRecognizer opens a speech recognizer; nil when unsupported.
	NewRecognizer func() (Source, error)
	Transcriber   ai.Transcriber
	// AudioFilename tells the transcription service the container format.
	AudioFilename string
	// StopTimeout is how long to wait for EventPlatformEnd after Stop
	// before releasing the device and finishing with what was captured.
	StopTimeout time.Duration

	// Callbacks run under the machine lock and must not call back into it.
	OnResult  func(text string)
	OnInterim func(text string)
	OnAlert   func(err error)
	OnPhase   func(Phase)

	Clock func() time.Time
	Log   *zap.SugaredLogger
}

// Machine runs one capture session at a time.
type Machine struct {
	cfg Config
	log *zap.SugaredLogger

	mu        sync.Mutex
	ctx       context.Context
	phase     Phase
	provider  Provider
	source    Source
	session   uint64
	startedAt time.Time
	stoppedAt time.Time
	audio     []byte
	interim   string
	apiKey    string
}

func NewMachine(cfg Config) *Machine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.AudioFilename == "" {
		cfg.AudioFilename = "recording.wav"
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	if cfg.Preferences == nil {
		cfg.Preferences = func() (settings.VoiceInputProvider, string) { return settings.VoiceProviderAuto, "" }
	}
	return &Machine{cfg: cfg, log: cfg.Log.Named("voice")}
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Provider returns the path of the current or last session.
func (m *Machine) Provider() Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider
}

// StartListening opens a capture session. It returns the resolution or
// acquisition error, which has also been alerted. Starting while a session
// is running does nothing.
func (m *Machine) StartListening(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseIdle {
		return nil
	}
	m.ctx = ctx
	return m.handle(Event{Kind: EventStart})
}

func (m *Machine) StopListening() {
	m.Handle(Event{Kind: EventStop})
}

// Handle applies one event. Events from an earlier session are dropped.
func (m *Machine) Handle(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handle(ev)
}

// Close releases any open device and returns to idle without a result.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
	m.setPhase(PhaseIdle)
}

func (m *Machine) handle(ev Event) error {
	if ev.session != 0 && ev.session != m.session {
		return nil
	}

	switch m.phase {
	case PhaseIdle:
		if ev.Kind == EventStart {
			return m.start()
		}

	case PhaseRecording:
		switch ev.Kind {
		case EventData:
			m.collect(ev)
		case EventStop:
			m.stoppedAt = m.cfg.Clock()
			if m.tooShort() {
				m.discard()
				return nil
			}
			m.setPhase(PhaseProcessing)
			m.source.Stop()
			session := m.session
			time.AfterFunc(m.cfg.StopTimeout, func() {
				m.Handle(Event{Kind: eventStopTimeout, session: session})
			})
		case EventPlatformEnd:
			m.stoppedAt = m.cfg.Clock()
			if m.tooShort() {
				m.discard()
				return nil
			}
			m.setPhase(PhaseProcessing)
			m.finish(ev)
		case EventError:
			m.fail(ev.Err)
		}

	case PhaseProcessing:
		switch ev.Kind {
		case EventData:
			// the recorder flushes its tail after Stop
			m.collect(ev)
		case EventPlatformEnd:
			m.finish(ev)
		case eventStopTimeout:
			// the device never reported the end; source is nil once finished
			if m.source != nil {
				m.log.Warnw("capture device did not stop in time", "timeout", m.cfg.StopTimeout)
				m.finish(Event{Kind: EventPlatformEnd})
			}
		case eventTranscribed:
			if ev.Err != nil {
				m.fail(fmt.Errorf("transcription failed: %s", ai.ReasonFromError(ev.Err)))
				return nil
			}
			m.deliver(ev.Text)
		case EventError:
			m.fail(ev.Err)
		}
	}
	return nil
}

func (m *Machine) start() error {
	pref, key := m.cfg.Preferences()
	provider, err := Resolve(pref, key != "", m.cfg.Capabilities)
	if err != nil {
		m.alert(err)
		return err
	}

	open := m.cfg.NewRecognizer
	if provider == ProviderOpenAI {
		open = m.cfg.NewRecorder
	}
	if open == nil {
		err := fmt.Errorf("%w: %s capture is not supported on this host", ErrNoVoiceInput, provider)
		m.alert(err)
		return err
	}

	src, err := open()
	if err != nil {
		err = fmt.Errorf("failed to access microphone: %w", err)
		m.alert(err)
		return err
	}

	m.session++
	session := m.session
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	emit := func(ev Event) {
		ev.session = session
		m.Handle(ev)
	}
	if err := src.Start(ctx, emit); err != nil {
		src.Close()
		err = fmt.Errorf("failed to start %s capture: %w", provider, err)
		m.alert(err)
		return err
	}

	m.provider = provider
	m.source = src
	m.apiKey = key
	m.audio = nil
	m.interim = ""
	m.startedAt = m.cfg.Clock()
	m.setPhase(PhaseRecording)
	m.log.Debugw("capture started", "provider", provider)
	return nil
}

func (m *Machine) collect(ev Event) {
	if m.provider == ProviderOpenAI {
		m.audio = append(m.audio, ev.Data...)
		return
	}
	if ev.Text == "" {
		return
	}
	m.interim = ev.Text
	if m.cfg.OnInterim != nil {
		m.cfg.OnInterim(ev.Text)
	}
}

func (m *Machine) tooShort() bool {
	return m.stoppedAt.Sub(m.startedAt) < MinRecording
}

// discard drops an accidental tap: no transcription, no alert.
func (m *Machine) discard() {
	m.log.Debugw("capture discarded", "duration", m.stoppedAt.Sub(m.startedAt))
	m.release()
	m.setPhase(PhaseIdle)
}

// finish runs once the device has ended, in processing.
func (m *Machine) finish(ev Event) {
	m.release()

	if m.provider == ProviderWebSpeech {
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			text = strings.TrimSpace(m.interim)
		}
		m.deliver(text)
		return
	}

	if len(m.audio) == 0 {
		m.setPhase(PhaseIdle)
		return
	}
	if m.cfg.Transcriber == nil {
		m.fail(ai.ErrAPIKeyMissing)
		return
	}

	audio, key, session := m.audio, m.apiKey, m.session
	m.audio = nil
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
		defer cancel()
		text, err := m.cfg.Transcriber.Transcribe(ctx, audio, m.cfg.AudioFilename, key)
		m.Handle(Event{Kind: eventTranscribed, Text: text, Err: err, session: session})
	}()
}

func (m *Machine) deliver(text string) {
	m.setPhase(PhaseIdle)
	if text == "" {
		return
	}
	if m.cfg.OnResult != nil {
		m.cfg.OnResult(text)
	}
}

func (m *Machine) fail(err error) {
	m.release()
	m.setPhase(PhaseIdle)
	m.alert(err)
}

func (m *Machine) release() {
	if m.source == nil {
		return
	}
	if err := m.source.Close(); err != nil {
		m.log.Warnw("failed to release capture device", "error", err)
	}
	m.source = nil
}

func (m *Machine) alert(err error) {
	m.log.Warnw("voice capture failed", "error", err)
	if m.cfg.OnAlert != nil {
		m.cfg.OnAlert(err)
	}
}

func (m *Machine) setPhase(p Phase) {
	if m.phase == p {
		return
	}
	m.phase = p
	if m.cfg.OnPhase != nil {
		m.cfg.OnPhase(p)
	}
}
