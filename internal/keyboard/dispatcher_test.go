package keyboard

import (
	"testing"

	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	active bool
	calls  []Command
}

func newDispatcher(r *recorder, cmds ...Command) *Dispatcher {
	d := NewDispatcher(func() bool { return r.active }, logger.Nop())
	for _, c := range cmds {
		c := c
		d.Register(c, func() { r.calls = append(r.calls, c) })
	}
	return d
}

var all = []Command{FocusNewTask, NavigateUp, NavigateDown, OpenDetail, CloseDetail, ToggleHelp, FocusSubtaskInput, ToggleCommandPalette}

func TestChord(t *testing.T) {
	assert.Equal(t, "n", KeyEvent{Key: "n"}.Chord())
	assert.Equal(t, "Meta+n", KeyEvent{Key: "n", Meta: true}.Chord())
	assert.Equal(t, "Control+n", KeyEvent{Key: "n", Ctrl: true}.Chord())
	assert.Equal(t, "Control+Meta+n", KeyEvent{Key: "n", Meta: true, Ctrl: true}.Chord())
}

func TestDispatch_Keymap(t *testing.T) {
	tests := []struct {
		ev     KeyEvent
		active bool
		want   Command
	}{
		{KeyEvent{Key: "n"}, false, FocusNewTask},
		{KeyEvent{Key: "n", Meta: true}, false, FocusNewTask},
		{KeyEvent{Key: "n", Ctrl: true}, false, FocusNewTask},
		{KeyEvent{Key: "k"}, false, NavigateUp},
		{KeyEvent{Key: "ArrowUp"}, false, NavigateUp},
		{KeyEvent{Key: "j"}, false, NavigateDown},
		{KeyEvent{Key: "ArrowDown"}, false, NavigateDown},
		{KeyEvent{Key: "l"}, false, OpenDetail},
		{KeyEvent{Key: "Enter"}, false, OpenDetail},
		{KeyEvent{Key: "h"}, true, CloseDetail},
		{KeyEvent{Key: "Escape"}, true, CloseDetail},
		{KeyEvent{Key: "?"}, false, ToggleHelp},
		{KeyEvent{Key: "/"}, false, ToggleHelp},
		{KeyEvent{Key: "s"}, true, FocusSubtaskInput},
		{KeyEvent{Key: "k", Ctrl: true}, false, ToggleCommandPalette},
	}
	for _, tt := range tests {
		r := &recorder{active: tt.active}
		d := newDispatcher(r, all...)
		assert.True(t, d.Dispatch(tt.ev, Focus{}), tt.ev.Chord())
		assert.Equal(t, []Command{tt.want}, r.calls, tt.ev.Chord())
	}
}

func TestDispatch_UnknownChord(t *testing.T) {
	r := &recorder{}
	d := newDispatcher(r, all...)
	assert.False(t, d.Dispatch(KeyEvent{Key: "q"}, Focus{}))
	assert.False(t, d.Dispatch(KeyEvent{Key: "n", Meta: true, Ctrl: true}, Focus{}))
	assert.Empty(t, r.calls)
}

func TestDispatch_SuppressedWhileEditing(t *testing.T) {
	for _, kind := range []FocusKind{FocusTextInput, FocusTextArea, FocusSelect, FocusContentEditable} {
		r := &recorder{active: true}
		d := newDispatcher(r, all...)
		focus := Focus{Kind: kind}

		assert.False(t, d.Dispatch(KeyEvent{Key: "n"}, focus))
		assert.False(t, d.Dispatch(KeyEvent{Key: "j"}, focus))
		assert.False(t, d.Dispatch(KeyEvent{Key: "h"}, focus), "h is text while editing")
		assert.False(t, d.Dispatch(KeyEvent{Key: "k", Ctrl: true}, focus))
		assert.Empty(t, r.calls)

		assert.True(t, d.Dispatch(KeyEvent{Key: "Escape"}, focus))
		assert.Equal(t, []Command{CloseDetail}, r.calls)
	}
}

func TestDispatch_EscapeOnPrimaryInput(t *testing.T) {
	r := &recorder{active: true}
	d := newDispatcher(r, all...)

	assert.False(t, d.Dispatch(KeyEvent{Key: "Escape"}, Focus{Kind: FocusTextInput, PrimaryInput: true}))
	assert.Empty(t, r.calls)

	assert.True(t, d.Dispatch(KeyEvent{Key: "Escape"}, Focus{Kind: FocusTextInput}))
	assert.True(t, d.Dispatch(KeyEvent{Key: "Escape"}, Focus{}))
	assert.Equal(t, []Command{CloseDetail, CloseDetail}, r.calls)
}

func TestDispatch_Applicability(t *testing.T) {
	r := &recorder{}
	d := newDispatcher(r, all...)

	assert.False(t, d.Dispatch(KeyEvent{Key: "Escape"}, Focus{}), "close with nothing open")
	assert.False(t, d.Dispatch(KeyEvent{Key: "s"}, Focus{}), "subtask input with nothing open")

	r.active = true
	assert.False(t, d.Dispatch(KeyEvent{Key: "Enter"}, Focus{}), "open while a task is open")
	assert.Empty(t, r.calls)
}

func TestDispatch_UnregisteredIsIgnored(t *testing.T) {
	r := &recorder{}
	d := newDispatcher(r, NavigateDown)

	assert.False(t, d.Dispatch(KeyEvent{Key: "?"}, Focus{}))
	assert.True(t, d.Dispatch(KeyEvent{Key: "j"}, Focus{}))
	assert.Equal(t, []Command{NavigateDown}, r.calls)
}
