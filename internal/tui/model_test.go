package tui

import (
	"context"
	"testing"
	"time"

	settings "github.com/Yukaii/vibers-goal/internal/settings/domain"
	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/internal/task/repository"
	"github.com/Yukaii/vibers-goal/internal/task/store"
	"github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/Yukaii/vibers-goal/pkg/snapshot"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, v *voice.Config) (*Model, usecase.TaskUsecase) {
	t.Helper()
	st := store.New(context.Background(), repository.NewSnapshotTaskRepository(snapshot.NewMemoryBackend()), logger.Nop())
	uc := usecase.NewTaskUsecase(st, logger.Nop())
	m := New(Options{
		Tasks:     uc,
		Subscribe: func(fn func(domain.State)) func() { return st.Subscribe(fn) },
		Voice:     v,
		Log:       logger.Nop(),
	})
	t.Cleanup(m.Close)
	return m, uc
}

func press(m *Model, keys ...tea.KeyMsg) {
	for _, k := range keys {
		m.Update(k)
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func typeText(m *Model, s string) {
	for _, r := range s {
		press(m, runes(string(r)))
	}
}

var (
	enter  = tea.KeyMsg{Type: tea.KeyEnter}
	escape = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestKeyEvent(t *testing.T) {
	ev, ok := keyEvent(runes("j"))
	require.True(t, ok)
	assert.Equal(t, "j", ev.Chord())

	ev, _ = keyEvent(tea.KeyMsg{Type: tea.KeyCtrlK})
	assert.Equal(t, "Control+k", ev.Chord())

	ev, _ = keyEvent(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n"), Alt: true})
	assert.Equal(t, "Meta+n", ev.Chord())

	ev, _ = keyEvent(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "ArrowUp", ev.Chord())

	_, ok = keyEvent(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, ok)
}

func TestAddTaskFromInput(t *testing.T) {
	m, uc := newModel(t, nil)

	press(m, runes("n"))
	require.Equal(t, fieldNewTask, m.field)
	assert.Equal(t, "", m.newTask.Value(), "the shortcut key is not typed")

	typeText(m, "Buy milk")
	press(m, enter)
	tasks := uc.ListTasks(true)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "", m.newTask.Value())
	assert.Equal(t, fieldNewTask, m.field)

	press(m, enter)
	assert.True(t, m.statusErr, "blank title is rejected")
	assert.Len(t, uc.ListTasks(true), 1)

	press(m, escape)
	assert.Equal(t, fieldNone, m.field)
}

func TestDetailAndSubtasks(t *testing.T) {
	m, uc := newModel(t, nil)
	task, _ := uc.CreateTask("Plan trip", "", false)

	press(m, runes("s"))
	assert.Equal(t, fieldNone, m.field, "no task open")

	press(m, runes("j"), enter)
	active, ok := uc.ActiveTask()
	require.True(t, ok)
	assert.Equal(t, task.ID, active.ID)

	press(m, runes("s"))
	require.Equal(t, fieldSubTask, m.field)
	typeText(m, "Book flights")
	press(m, enter)
	got, _ := uc.GetTask(task.ID)
	require.Len(t, got.SubTasks, 1)
	assert.Equal(t, "Book flights", got.SubTasks[0].Title)

	press(m, escape)
	_, ok = uc.ActiveTask()
	assert.False(t, ok, "escape in the subtask input closes the task")
	assert.Equal(t, fieldNone, m.field)
	assert.Equal(t, 0, m.ctrl.Focused())
}

func TestEscapeOnNewTaskInputKeepsDetailOpen(t *testing.T) {
	m, uc := newModel(t, nil)
	uc.CreateTask("Plan trip", "", false)
	press(m, runes("j"), enter)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, fieldNewTask, m.field)
	press(m, escape)

	_, ok := uc.ActiveTask()
	assert.True(t, ok)
	assert.Equal(t, fieldNone, m.field)
}

func TestToggleAndShowCompleted(t *testing.T) {
	m, uc := newModel(t, nil)
	task, _ := uc.CreateTask("Buy milk", "", false)

	press(m, runes("j"), runes("x"))
	got, _ := uc.GetTask(task.ID)
	assert.True(t, got.Completed)
	assert.Empty(t, m.ctrl.Visible())

	press(m, runes("c"))
	assert.Len(t, m.ctrl.Visible(), 1)
}

func TestPalette(t *testing.T) {
	m, _ := newModel(t, nil)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlK})
	require.True(t, m.ctrl.PaletteOpen())
	require.Equal(t, fieldPalette, m.field)

	typeText(m, "shortcuts")
	press(m, enter)
	assert.False(t, m.ctrl.PaletteOpen())
	assert.True(t, m.ctrl.ShowHelp())
	assert.Contains(t, m.View(), "Keyboard shortcuts")

	press(m, tea.KeyMsg{Type: tea.KeyCtrlK})
	typeText(m, "new")
	press(m, enter)
	assert.Equal(t, fieldNewTask, m.field)
}

func TestVoiceUnavailable(t *testing.T) {
	m, _ := newModel(t, nil)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, m.statusErr)
	assert.Equal(t, voice.ErrNoVoiceInput.Error(), m.status)
}

type fakeRecognizer struct {
	emit func(voice.Event)
}

func (f *fakeRecognizer) Start(_ context.Context, emit func(voice.Event)) error {
	f.emit = emit
	return nil
}
func (f *fakeRecognizer) Stop()        {}
func (f *fakeRecognizer) Close() error { return nil }

func drain(m *Model) {
	for {
		select {
		case msg := <-m.events:
			m.Update(msg)
		default:
			return
		}
	}
}

func TestVoiceDictation(t *testing.T) {
	rec := &fakeRecognizer{}
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	m, _ := newModel(t, &voice.Config{
		Preferences:   func() (settings.VoiceInputProvider, string) { return settings.VoiceProviderWebSpeech, "" },
		Capabilities:  voice.Capabilities{SpeechRecognition: true},
		NewRecognizer: func() (voice.Source, error) { return rec, nil },
		Clock: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	})

	press(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	drain(m)
	require.NotNil(t, rec.emit)
	assert.Equal(t, voice.PhaseRecording, m.voicePhase)
	assert.Contains(t, m.View(), "recording")

	rec.emit(voice.Event{Kind: voice.EventPlatformEnd, Text: "buy milk"})
	drain(m)

	assert.Equal(t, voice.PhaseIdle, m.voicePhase)
	assert.Equal(t, "buy milk", m.newTask.Value())
	assert.Equal(t, fieldNewTask, m.field)
}

func TestStoreChangesCloseSubtaskInput(t *testing.T) {
	m, uc := newModel(t, nil)
	task, _ := uc.CreateTask("Plan trip", "", false)
	press(m, runes("j"), enter, runes("s"))
	require.Equal(t, fieldSubTask, m.field)

	require.NoError(t, uc.DeleteTask(task.ID))
	m.Update(stateChangedMsg{})
	assert.Equal(t, fieldNone, m.field)
}
