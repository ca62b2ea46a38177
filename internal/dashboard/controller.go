// Package dashboard holds the front-end-independent state of the task
// dashboard: list focus, the open task, and the overlay toggles. Front ends
// feed key events through HandleKey and render from the accessors.
package dashboard

import (
	"sync"

	"github.com/Yukaii/vibers-goal/internal/keyboard"
	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/pkg/fuzzy"
	"go.uber.org/zap"
)

// Input names a text field the front end should focus.
type Input int

const (
	InputNewTask Input = iota
	InputSubTask
)

// PaletteCommand is one entry of the command palette.
type PaletteCommand struct {
	Command keyboard.Command
	Label   string
	Group   string
}

var paletteCommands = []PaletteCommand{
	{keyboard.FocusNewTask, "Add New Task", "Tasks"},
	{keyboard.FocusSubtaskInput, "Add Subtask", "Tasks"},
	{keyboard.ToggleHelp, "Show Keyboard Shortcuts", "General"},
}

type Controller struct {
	tasks      usecase.TaskUsecase
	dispatcher *keyboard.Dispatcher
	log        *zap.SugaredLogger

	mu            sync.Mutex
	focused       *int
	showCompleted bool
	showHelp      bool
	paletteOpen   bool
	onFocusInput  func(Input)
}

// NewController wires the keyboard commands to dashboard actions.
// onFocusInput is called when a command asks for a text field; it may be nil.
func NewController(tasks usecase.TaskUsecase, onFocusInput func(Input), log *zap.SugaredLogger) *Controller {
	c := &Controller{
		tasks:        tasks,
		log:          log.Named("dashboard"),
		onFocusInput: onFocusInput,
	}
	d := keyboard.NewDispatcher(c.hasActive, log)
	d.Register(keyboard.FocusNewTask, c.FocusNewTask)
	d.Register(keyboard.NavigateUp, func() { c.Navigate(-1) })
	d.Register(keyboard.NavigateDown, func() { c.Navigate(1) })
	d.Register(keyboard.OpenDetail, c.OpenDetail)
	d.Register(keyboard.CloseDetail, c.CloseDetail)
	d.Register(keyboard.ToggleHelp, c.ToggleHelp)
	d.Register(keyboard.FocusSubtaskInput, c.FocusSubTask)
	d.Register(keyboard.ToggleCommandPalette, c.TogglePalette)
	c.dispatcher = d
	return c
}

// HandleKey dispatches a key event and reports whether it was consumed.
func (c *Controller) HandleKey(ev keyboard.KeyEvent, focus keyboard.Focus) bool {
	return c.dispatcher.Dispatch(ev, focus)
}

// hasActive checks the selection itself, so a dangling id still counts.
func (c *Controller) hasActive() bool {
	return c.tasks.ActiveTaskID() != nil
}

// Visible returns the tasks shown in the list.
func (c *Controller) Visible() []domain.Task {
	c.mu.Lock()
	show := c.showCompleted
	c.mu.Unlock()
	return c.tasks.ListTasks(show)
}

// Focused returns the focused list index, or -1.
func (c *Controller) Focused() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.focused == nil {
		return -1
	}
	n := len(c.tasks.ListTasks(c.showCompleted))
	if n == 0 {
		return -1
	}
	return clamp(*c.focused, 0, n-1)
}

// FocusedTask returns the task under the list focus.
func (c *Controller) FocusedTask() (domain.Task, bool) {
	i := c.Focused()
	if i < 0 {
		return domain.Task{}, false
	}
	visible := c.Visible()
	if i >= len(visible) {
		return domain.Task{}, false
	}
	return visible[i], true
}

// Navigate moves the list focus by delta. With nothing focused, moving down
// starts at the top and moving up at the bottom.
func (c *Controller) Navigate(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.tasks.ListTasks(c.showCompleted))
	if n == 0 {
		return
	}
	var next int
	switch {
	case c.focused == nil && delta > 0:
		next = 0
	case c.focused == nil:
		next = n - 1
	default:
		next = *c.focused + delta
	}
	next = clamp(next, 0, n-1)
	c.focused = &next
}

// OpenDetail activates the focused task and clears the list focus.
func (c *Controller) OpenDetail() {
	task, ok := c.FocusedTask()
	if !ok {
		return
	}
	id := task.ID
	c.tasks.SetActiveTask(&id)

	c.mu.Lock()
	c.focused = nil
	c.mu.Unlock()
}

// CloseDetail clears the active task and puts the list focus back on it
// when it is still visible.
func (c *Controller) CloseDetail() {
	activeID := c.tasks.ActiveTaskID()
	if activeID == nil {
		return
	}
	c.tasks.SetActiveTask(nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = nil
	for i, t := range c.tasks.ListTasks(c.showCompleted) {
		if t.ID == *activeID {
			i := i
			c.focused = &i
			break
		}
	}
}

// FocusNewTask moves input focus to the new-task field.
func (c *Controller) FocusNewTask() {
	c.mu.Lock()
	c.focused = nil
	fn := c.onFocusInput
	c.mu.Unlock()
	if fn != nil {
		fn(InputNewTask)
	}
}

// FocusSubTask moves input focus to the subtask field of the open task.
func (c *Controller) FocusSubTask() {
	if !c.hasActive() {
		c.log.Debugw("cannot focus subtask input: no task open")
		return
	}
	c.mu.Lock()
	fn := c.onFocusInput
	c.mu.Unlock()
	if fn != nil {
		fn(InputSubTask)
	}
}

func (c *Controller) ToggleHelp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showHelp = !c.showHelp
}

func (c *Controller) ShowHelp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showHelp
}

// ToggleShowCompleted flips the completed filter. The focus index is kept
// and clamped on read.
func (c *Controller) ToggleShowCompleted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showCompleted = !c.showCompleted
}

func (c *Controller) ShowCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showCompleted
}

func (c *Controller) TogglePalette() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paletteOpen = !c.paletteOpen
}

func (c *Controller) PaletteOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paletteOpen
}

// Palette lists the palette entries matching query. Add Subtask is only
// offered while a task is open.
func (c *Controller) Palette(query string) []PaletteCommand {
	active := c.hasActive()
	var out []PaletteCommand
	for _, pc := range paletteCommands {
		if pc.Command == keyboard.FocusSubtaskInput && !active {
			continue
		}
		if query != "" && !fuzzy.MatchAny(query, pc.Label, string(pc.Command)) {
			continue
		}
		out = append(out, pc)
	}
	return out
}

// RunPalette closes the palette and runs cmd.
func (c *Controller) RunPalette(cmd keyboard.Command) {
	c.mu.Lock()
	c.paletteOpen = false
	c.mu.Unlock()

	switch cmd {
	case keyboard.FocusNewTask:
		c.FocusNewTask()
	case keyboard.FocusSubtaskInput:
		c.FocusSubTask()
	case keyboard.ToggleHelp:
		c.ToggleHelp()
	default:
		c.log.Warnw("command not available in palette", "command", cmd)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
