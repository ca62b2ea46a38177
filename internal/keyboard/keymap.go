// Package keyboard turns raw key events into dashboard commands without
// getting in the way of text editing.
package keyboard

type Command string

const (
	FocusNewTask         Command = "focus-new-task"
	NavigateUp           Command = "navigate-up"
	NavigateDown         Command = "navigate-down"
	OpenDetail           Command = "open-detail"
	CloseDetail          Command = "close-detail"
	ToggleHelp           Command = "toggle-help"
	FocusSubtaskInput    Command = "focus-subtask-input"
	ToggleCommandPalette Command = "toggle-command-palette"
)

// Keymap maps chords to commands. Chords are built by KeyEvent.Chord.
var Keymap = map[string]Command{
	"n":         FocusNewTask,
	"Meta+n":    FocusNewTask,
	"Control+n": FocusNewTask,
	"k":         NavigateUp,
	"ArrowUp":   NavigateUp,
	"j":         NavigateDown,
	"ArrowDown": NavigateDown,
	"l":         OpenDetail,
	"Enter":     OpenDetail,
	"h":         CloseDetail,
	"Escape":    CloseDetail,
	"?":         ToggleHelp,
	"/":         ToggleHelp,
	"s":         FocusSubtaskInput,
	"Control+k": ToggleCommandPalette,
}

// Binding is one row of the shortcut help.
type Binding struct {
	Keys        []string
	Command     Command
	Description string
}

// Help lists the shortcuts in display order.
var Help = []Binding{
	{[]string{"n", "⌘N", "Ctrl+N"}, FocusNewTask, "New task"},
	{[]string{"k", "↑"}, NavigateUp, "Previous task"},
	{[]string{"j", "↓"}, NavigateDown, "Next task"},
	{[]string{"l", "Enter"}, OpenDetail, "Open task"},
	{[]string{"h", "Esc"}, CloseDetail, "Close task"},
	{[]string{"s"}, FocusSubtaskInput, "Add subtask"},
	{[]string{"?", "/"}, ToggleHelp, "Toggle shortcuts"},
	{[]string{"Ctrl+K"}, ToggleCommandPalette, "Command palette"},
}
