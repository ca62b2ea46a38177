// Package tui is the terminal front end of the task dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yukaii/vibers-goal/internal/dashboard"
	"github.com/Yukaii/vibers-goal/internal/keyboard"
	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const breakdownTimeout = 2 * time.Minute

type field int

const (
	fieldNone field = iota
	fieldNewTask
	fieldSubTask
	fieldPalette
)

type Options struct {
	Tasks usecase.TaskUsecase
	// Subscribe registers a store listener and returns its cancel func.
	Subscribe func(func(domain.State)) func()
	// Voice enables dictation. Its callbacks are replaced by the model.
	Voice *voice.Config
	Log   *zap.SugaredLogger
}

type stateChangedMsg struct{}

type voiceResultMsg struct{ text string }

type voiceAlertMsg struct{ err error }

type voicePhaseMsg struct{ phase voice.Phase }

type breakdownMsg struct {
	title string
	count int
	err   error
}

type Model struct {
	tasks usecase.TaskUsecase
	ctrl  *dashboard.Controller
	voice *voice.Machine
	log   *zap.SugaredLogger

	newTask textinput.Model
	subTask textinput.Model
	palette textinput.Model
	field   field

	requested   *dashboard.Input
	changes     chan struct{}
	events      chan tea.Msg
	unsubscribe func()

	voicePhase voice.Phase
	busy       bool
	status     string
	statusErr  bool
	width      int
}

func New(opts Options) *Model {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := &Model{
		tasks:   opts.Tasks,
		log:     log.Named("tui"),
		changes: make(chan struct{}, 1),
		events:  make(chan tea.Msg, 32),
	}
	m.ctrl = dashboard.NewController(opts.Tasks, func(in dashboard.Input) { m.requested = &in }, log)

	m.newTask = textinput.New()
	m.newTask.Placeholder = "Add a new task…"
	m.newTask.CharLimit = 200
	m.subTask = textinput.New()
	m.subTask.Placeholder = "Add a subtask…"
	m.subTask.CharLimit = 200
	m.palette = textinput.New()
	m.palette.Placeholder = "Type a command…"

	if opts.Subscribe != nil {
		m.unsubscribe = opts.Subscribe(func(domain.State) {
			select {
			case m.changes <- struct{}{}:
			default:
			}
		})
	}

	if opts.Voice != nil {
		cfg := *opts.Voice
		cfg.OnResult = func(text string) { m.post(voiceResultMsg{text}) }
		cfg.OnAlert = func(err error) { m.post(voiceAlertMsg{err}) }
		cfg.OnPhase = func(p voice.Phase) { m.post(voicePhaseMsg{p}) }
		cfg.OnInterim = nil
		if cfg.Log == nil {
			cfg.Log = log
		}
		m.voice = voice.NewMachine(cfg)
	}
	return m
}

// post forwards an event from a callback that may hold another lock.
func (m *Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		m.log.Warnw("dropping UI event, queue full", "event", fmt.Sprintf("%T", msg))
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return stateChangedMsg{}
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChange(), m.listen())
}

// Close releases the store subscription and any open capture device.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.voice != nil {
		m.voice.Close()
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case stateChangedMsg:
		if m.field == fieldSubTask {
			if _, ok := m.tasks.ActiveTask(); !ok {
				m.setField(fieldNone)
			}
		}
		return m, m.waitForChange()

	case voiceResultMsg:
		value := strings.TrimSpace(m.newTask.Value() + " " + msg.text)
		m.newTask.SetValue(value)
		m.newTask.CursorEnd()
		m.setStatus("Transcribed: "+msg.text, false)
		return m, tea.Batch(m.setField(fieldNewTask), m.listen())

	case voiceAlertMsg:
		m.setStatus(msg.err.Error(), true)
		return m, m.listen()

	case voicePhaseMsg:
		m.voicePhase = msg.phase
		return m, m.listen()

	case breakdownMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("Added %d subtasks to %q", msg.count, msg.title), false)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+r":
		return m.toggleVoice()
	case "ctrl+b":
		return m.breakdown()
	}

	if m.ctrl.PaletteOpen() {
		return m.handlePaletteKey(msg)
	}

	if ev, ok := keyEvent(msg); ok && m.ctrl.HandleKey(ev, m.focus()) {
		return m.afterCommand()
	}

	if m.field != fieldNone {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "x":
		if t, ok := m.ctrl.FocusedTask(); ok {
			m.tasks.ToggleTask(t.ID)
		} else if t, ok := m.tasks.ActiveTask(); ok {
			m.tasks.ToggleTask(t.ID)
		}
	case "c":
		m.ctrl.ToggleShowCompleted()
	}
	return nil
}

// afterCommand applies focus requests made by the command that just ran.
func (m *Model) afterCommand() tea.Cmd {
	if m.ctrl.PaletteOpen() {
		m.palette.SetValue("")
		return m.setField(fieldPalette)
	}
	if m.requested != nil {
		in := *m.requested
		m.requested = nil
		if in == dashboard.InputSubTask {
			return m.setField(fieldSubTask)
		}
		return m.setField(fieldNewTask)
	}
	if m.field == fieldSubTask {
		if _, ok := m.tasks.ActiveTask(); !ok {
			m.setField(fieldNone)
		}
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.setField(fieldNone)
		return nil
	case tea.KeyEnter:
		m.submit()
		return nil
	}

	var cmd tea.Cmd
	switch m.field {
	case fieldNewTask:
		m.newTask, cmd = m.newTask.Update(msg)
	case fieldSubTask:
		m.subTask, cmd = m.subTask.Update(msg)
	}
	return cmd
}

func (m *Model) handlePaletteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlK:
		m.ctrl.TogglePalette()
		m.setField(fieldNone)
		return nil
	case tea.KeyEnter:
		entries := m.ctrl.Palette(m.palette.Value())
		m.setField(fieldNone)
		if len(entries) == 0 {
			m.ctrl.TogglePalette()
			return nil
		}
		m.ctrl.RunPalette(entries[0].Command)
		return m.afterCommand()
	}
	var cmd tea.Cmd
	m.palette, cmd = m.palette.Update(msg)
	return cmd
}

func (m *Model) submit() {
	switch m.field {
	case fieldNewTask:
		title := m.newTask.Value()
		if _, err := m.tasks.CreateTask(title, "", false); err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		m.newTask.SetValue("")
	case fieldSubTask:
		active, ok := m.tasks.ActiveTask()
		if !ok {
			return
		}
		if _, err := m.tasks.AddSubTask(active.ID, m.subTask.Value()); err != nil {
			m.setStatus(err.Error(), true)
			return
		}
		m.subTask.SetValue("")
	}
}

func (m *Model) focus() keyboard.Focus {
	switch m.field {
	case fieldNewTask:
		return keyboard.Focus{Kind: keyboard.FocusTextInput, PrimaryInput: true}
	case fieldSubTask, fieldPalette:
		return keyboard.Focus{Kind: keyboard.FocusTextInput}
	}
	return keyboard.Focus{}
}

func (m *Model) setField(f field) tea.Cmd {
	m.newTask.Blur()
	m.subTask.Blur()
	m.palette.Blur()
	m.field = f
	switch f {
	case fieldNewTask:
		return m.newTask.Focus()
	case fieldSubTask:
		return m.subTask.Focus()
	case fieldPalette:
		return m.palette.Focus()
	}
	return nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) toggleVoice() tea.Cmd {
	if m.voice == nil {
		m.setStatus(voice.ErrNoVoiceInput.Error(), true)
		return nil
	}
	if m.voice.Phase() != voice.PhaseIdle {
		m.voice.StopListening()
		return nil
	}
	// errors come back through OnAlert
	_ = m.voice.StartListening(context.Background())
	return nil
}

func (m *Model) breakdown() tea.Cmd {
	active, ok := m.tasks.ActiveTask()
	if !ok {
		m.setStatus("Open a task to break it down", true)
		return nil
	}
	if m.busy {
		return nil
	}
	m.busy = true
	m.setStatus("Generating subtasks…", false)

	id, title := active.ID, active.Title
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), breakdownTimeout)
		defer cancel()
		added, err := m.tasks.GenerateBreakdown(ctx, id, "")
		if errors.Is(err, usecase.ErrAIUnavailable) {
			err = fmt.Errorf("%w: set AI_PROVIDER or an OpenAI key", err)
		}
		return breakdownMsg{title: title, count: len(added), err: err}
	}
}

// Run starts the dashboard on the terminal and blocks until it quits.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
