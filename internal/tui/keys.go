package tui

import (
	"github.com/Yukaii/vibers-goal/internal/keyboard"
	tea "github.com/charmbracelet/bubbletea"
)

// keyEvent translates a terminal key into the dispatcher's DOM-style event.
// Alt stands in for Meta since terminals don't report the command key.
func keyEvent(msg tea.KeyMsg) (keyboard.KeyEvent, bool) {
	ev := keyboard.KeyEvent{Meta: msg.Alt}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return ev, false
		}
		ev.Key = string(msg.Runes)
	case tea.KeyUp:
		ev.Key = "ArrowUp"
	case tea.KeyDown:
		ev.Key = "ArrowDown"
	case tea.KeyEnter:
		ev.Key = "Enter"
	case tea.KeyEsc:
		ev.Key = "Escape"
	case tea.KeyCtrlN:
		ev.Key, ev.Ctrl = "n", true
	case tea.KeyCtrlK:
		ev.Key, ev.Ctrl = "k", true
	default:
		return ev, false
	}
	return ev, true
}

// extraHelp lists the terminal-only bindings shown under the shortcuts.
var extraHelp = []keyboard.Binding{
	{Keys: []string{"x"}, Description: "Toggle focused task done"},
	{Keys: []string{"c"}, Description: "Show/hide completed"},
	{Keys: []string{"Ctrl+R"}, Description: "Start/stop dictation"},
	{Keys: []string{"Ctrl+B"}, Description: "AI breakdown of open task"},
	{Keys: []string{"Ctrl+C"}, Description: "Quit"},
}
