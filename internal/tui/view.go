package tui

import (
	"fmt"
	"strings"

	"github.com/Yukaii/vibers-goal/internal/keyboard"
	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	focusedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Background(lipgloss.Color("236"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("243"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	recordStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	overlayStyle  = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("212")).Padding(0, 1)
	priorityStyle = map[domain.Priority]lipgloss.Style{
		domain.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		domain.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
	}
)

func (m *Model) View() string {
	var b strings.Builder

	stats := m.tasks.Stats()
	b.WriteString(titleStyle.Render("vibers-goal"))
	b.WriteString(faintStyle.Render(fmt.Sprintf("  %d active · %d done", stats.Active, stats.Completed)))
	if m.ctrl.ShowCompleted() {
		b.WriteString(faintStyle.Render(" · showing completed"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.newTask.View())
	b.WriteString("\n\n")

	list := m.renderList()
	if active, ok := m.tasks.ActiveTask(); ok {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.renderDetail(active)))
	} else {
		b.WriteString(list)
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())

	switch {
	case m.ctrl.PaletteOpen():
		b.WriteString("\n\n" + m.renderPalette())
	case m.ctrl.ShowHelp():
		b.WriteString("\n\n" + renderHelp())
	}
	return b.String()
}

func (m *Model) renderList() string {
	visible := m.ctrl.Visible()
	if len(visible) == 0 {
		return paneStyle.Render(faintStyle.Render("No tasks yet. Press n to add one."))
	}

	focused := m.ctrl.Focused()
	activeID := m.tasksActiveID()

	lines := make([]string, 0, len(visible))
	for i, t := range visible {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		title := t.Title
		if t.Completed {
			title = doneStyle.Render(title)
		}
		line := fmt.Sprintf("%s %s %s", check, priorityStyle[t.Priority].Render("●"), title)
		if n := len(t.SubTasks); n > 0 {
			line += faintStyle.Render(fmt.Sprintf(" (%d/%d)", t.CompletedSubTasks(), n))
		}
		if t.Reminder != nil && t.Reminder.Enabled {
			line += " ⏰"
		}
		switch {
		case i == focused:
			line = focusedStyle.Render("› " + line)
		case t.ID == activeID:
			line = "» " + line
		default:
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return paneStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) tasksActiveID() string {
	if t, ok := m.tasks.ActiveTask(); ok {
		return t.ID
	}
	return ""
}

func (m *Model) renderDetail(t domain.Task) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title))
	b.WriteString("\n")
	b.WriteString(priorityStyle[t.Priority].Render(string(t.Priority) + " priority"))
	if t.Reminder != nil {
		b.WriteString(faintStyle.Render("  " + describeReminder(*t.Reminder)))
	}
	if t.Description != "" {
		b.WriteString("\n\n" + t.Description)
	}
	b.WriteString("\n\n")
	if len(t.SubTasks) == 0 {
		b.WriteString(faintStyle.Render("No subtasks. Ctrl+B asks AI for some."))
	}
	for _, st := range t.SubTasks {
		if st.Completed {
			b.WriteString("[x] " + doneStyle.Render(st.Title) + "\n")
		} else {
			b.WriteString("[ ] " + st.Title + "\n")
		}
	}
	b.WriteString("\n" + m.subTask.View())
	return paneStyle.Render(b.String())
}

func describeReminder(r domain.Reminder) string {
	state := ""
	if !r.Enabled {
		state = " (off)"
	}
	if r.Type == domain.ReminderRecurring {
		return fmt.Sprintf("⏰ %s at %s%s", r.Frequency, r.Time, state)
	}
	return fmt.Sprintf("⏰ %s %s%s", r.Date, r.Time, state)
}

func (m *Model) renderStatus() string {
	var parts []string
	switch m.voicePhase {
	case voice.PhaseRecording:
		parts = append(parts, recordStyle.Render("● recording (Ctrl+R to stop)"))
	case voice.PhaseProcessing:
		parts = append(parts, faintStyle.Render("… transcribing"))
	}
	if m.status != "" {
		if m.statusErr {
			parts = append(parts, errorStyle.Render(m.status))
		} else {
			parts = append(parts, okStyle.Render(m.status))
		}
	}
	parts = append(parts, faintStyle.Render("? shortcuts · Ctrl+K commands · Ctrl+C quit"))
	return strings.Join(parts, "\n")
}

func (m *Model) renderPalette() string {
	var b strings.Builder
	b.WriteString(m.palette.View())
	b.WriteString("\n")
	entries := m.ctrl.Palette(m.palette.Value())
	if len(entries) == 0 {
		b.WriteString(faintStyle.Render("No results found."))
	}
	group := ""
	for i, e := range entries {
		if e.Group != group {
			group = e.Group
			b.WriteString("\n" + faintStyle.Render(group) + "\n")
		}
		line := "  " + e.Label
		if i == 0 {
			line = focusedStyle.Render("› " + e.Label)
		}
		b.WriteString(line + "\n")
	}
	return overlayStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard shortcuts") + "\n\n")
	for _, bindings := range [][]keyboard.Binding{keyboard.Help, extraHelp} {
		for _, h := range bindings {
			b.WriteString(fmt.Sprintf("%-18s %s\n", strings.Join(h.Keys, " / "), h.Description))
		}
		b.WriteString("\n")
	}
	return overlayStyle.Render(strings.TrimRight(b.String(), "\n"))
}
