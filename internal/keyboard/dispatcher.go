package keyboard

import (
	"sync"

	"go.uber.org/zap"
)

// KeyEvent is a key press as reported by the front end. Key uses DOM key
// names ("n", "ArrowUp", "Escape").
type KeyEvent struct {
	Key  string
	Meta bool
	Ctrl bool
}

// Chord returns the keymap lookup string: Meta+ is applied first, then
// Control+ wraps it, so both modifiers give "Control+Meta+<key>".
func (e KeyEvent) Chord() string {
	chord := e.Key
	if e.Meta {
		chord = "Meta+" + chord
	}
	if e.Ctrl {
		chord = "Control+" + chord
	}
	return chord
}

type FocusKind int

const (
	FocusNone FocusKind = iota
	FocusTextInput
	FocusTextArea
	FocusSelect
	FocusContentEditable
)

// Focus describes the element holding input focus when the key was pressed.
type Focus struct {
	Kind FocusKind
	// PrimaryInput marks the new-task title input.
	PrimaryInput bool
}

// Editing reports whether focus is on a control that consumes typing.
func (f Focus) Editing() bool {
	return f.Kind != FocusNone
}

type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[Command]func()
	hasActive func() bool
	log       *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher. hasActive reports whether a task
// detail view is open.
func NewDispatcher(hasActive func() bool, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		handlers:  make(map[Command]func()),
		hasActive: hasActive,
		log:       log.Named("keyboard"),
	}
}

// Register binds fn to cmd, replacing any previous handler.
func (d *Dispatcher) Register(cmd Command, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[cmd] = fn
}

// Dispatch runs the handler for ev and reports whether the event was
// consumed. Unknown chords, suppressed keys and inapplicable commands
// return false so the front end can apply the default action.
func (d *Dispatcher) Dispatch(ev KeyEvent, focus Focus) bool {
	cmd, ok := Keymap[ev.Chord()]
	if !ok {
		return false
	}

	active := d.hasActive()
	if focus.Editing() && !escapesEditing(ev, cmd, focus, active) {
		return false
	}

	switch cmd {
	case OpenDetail:
		if active {
			return false
		}
	case CloseDetail, FocusSubtaskInput:
		if !active {
			return false
		}
	}

	d.mu.RLock()
	fn := d.handlers[cmd]
	d.mu.RUnlock()
	if fn == nil {
		d.log.Warnw("no handler registered for command", "command", cmd, "chord", ev.Chord())
		return false
	}
	fn()
	return true
}

// escapesEditing lets Escape close the open task from any text control
// except the new-task input.
func escapesEditing(ev KeyEvent, cmd Command, focus Focus, active bool) bool {
	return cmd == CloseDetail && ev.Key == "Escape" && active && !focus.PrimaryInput
}
