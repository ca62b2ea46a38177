package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

var ErrInvalidPriority = errors.New("invalid priority")

// ParsePriority accepts high, medium or low in any case. Empty input means medium.
func ParsePriority(p string) (Priority, error) {
	switch v := Priority(strings.ToLower(strings.TrimSpace(p))); {
	case v == "":
		return PriorityMedium, nil
	case v.Valid():
		return v, nil
	default:
		return "", fmt.Errorf("%w %q: want high, medium or low", ErrInvalidPriority, p)
	}
}

type ReminderType string

const (
	ReminderOnce      ReminderType = "once"
	ReminderRecurring ReminderType = "recurring"
)

type ReminderFrequency string

const (
	FrequencyHourly  ReminderFrequency = "hourly"
	FrequencyDaily   ReminderFrequency = "daily"
	FrequencyWeekly  ReminderFrequency = "weekly"
	FrequencyMonthly ReminderFrequency = "monthly"
)

const (
	DefaultReminderTime      = "09:00"
	DefaultReminderFrequency = FrequencyDaily

	dateLayout = "2006-01-02"
)

var ErrInvalidReminder = errors.New("invalid reminder")

// Reminder is attached to a task. Date is set only for once reminders,
// Frequency only for recurring ones.
type Reminder struct {
	Type      ReminderType      `json:"type"`
	Date      string            `json:"date,omitempty"`
	Time      string            `json:"time"`
	Frequency ReminderFrequency `json:"frequency,omitempty"`
	Enabled   bool              `json:"enabled"`
}

// SubTask is owned by exactly one Task.
type SubTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task represents a to-do item
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	Reminder    *Reminder `json:"reminder,omitempty"`
	SubTasks    []SubTask `json:"subTasks"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (t Task) Clone() Task {
	out := t
	if t.Reminder != nil {
		r := *t.Reminder
		out.Reminder = &r
	}
	out.SubTasks = make([]SubTask, len(t.SubTasks))
	copy(out.SubTasks, t.SubTasks)
	return out
}

// SubTaskIndex returns the position of the subtask or -1.
func (t Task) SubTaskIndex(id string) int {
	for i, st := range t.SubTasks {
		if st.ID == id {
			return i
		}
	}
	return -1
}

// CompletedSubTasks counts finished subtasks.
func (t Task) CompletedSubTasks() int {
	n := 0
	for _, st := range t.SubTasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// State is everything persisted under the task snapshot key.
type State struct {
	Tasks        []Task  `json:"tasks"`
	ActiveTaskID *string `json:"activeTaskId"`
}

func (s State) Clone() State {
	out := State{Tasks: make([]Task, len(s.Tasks))}
	for i, t := range s.Tasks {
		out.Tasks[i] = t.Clone()
	}
	if s.ActiveTaskID != nil {
		id := *s.ActiveTaskID
		out.ActiveTaskID = &id
	}
	return out
}

// NewReminder returns the editor defaults: a one-off reminder today at 09:00.
func NewReminder(now time.Time) Reminder {
	return Reminder{
		Type:    ReminderOnce,
		Date:    now.Format(dateLayout),
		Time:    DefaultReminderTime,
		Enabled: true,
	}
}

// WithDefaults fills whichever of Date/Frequency the type needs and clears
// the other one.
func (r Reminder) WithDefaults(now time.Time) Reminder {
	if r.Time == "" {
		r.Time = DefaultReminderTime
	}
	switch r.Type {
	case ReminderRecurring:
		r.Date = ""
		if r.Frequency == "" {
			r.Frequency = DefaultReminderFrequency
		}
	default:
		r.Type = ReminderOnce
		r.Frequency = ""
		if r.Date == "" {
			r.Date = now.Format(dateLayout)
		}
	}
	return r
}

func (r Reminder) Validate() error {
	if _, _, err := parseClock(r.Time); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReminder, err)
	}
	switch r.Type {
	case ReminderOnce:
		if r.Frequency != "" {
			return fmt.Errorf("%w: once reminder must not have a frequency", ErrInvalidReminder)
		}
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			return fmt.Errorf("%w: bad date %q", ErrInvalidReminder, r.Date)
		}
	case ReminderRecurring:
		if r.Date != "" {
			return fmt.Errorf("%w: recurring reminder must not have a date", ErrInvalidReminder)
		}
		switch r.Frequency {
		case FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		default:
			return fmt.Errorf("%w: bad frequency %q", ErrInvalidReminder, r.Frequency)
		}
	default:
		return fmt.Errorf("%w: bad type %q", ErrInvalidReminder, r.Type)
	}
	return nil
}

// NextOccurrence returns the first fire time strictly after `after`, in
// after's location. Weekly and monthly reminders repeat on the weekday and
// day-of-month of anchor (the task's creation time).
func (r Reminder) NextOccurrence(anchor, after time.Time) (time.Time, bool) {
	h, m, err := parseClock(r.Time)
	if err != nil {
		return time.Time{}, false
	}
	loc := after.Location()
	y, mon, d := after.Date()

	switch r.Type {
	case ReminderOnce:
		day, err := time.ParseInLocation(dateLayout, r.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		at := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
		return at, at.After(after)

	case ReminderRecurring:
		switch r.Frequency {
		case FrequencyHourly:
			next := time.Date(y, mon, d, after.Hour(), m, 0, 0, loc)
			if !next.After(after) {
				next = next.Add(time.Hour)
			}
			return next, true
		case FrequencyDaily:
			next := time.Date(y, mon, d, h, m, 0, 0, loc)
			if !next.After(after) {
				next = next.AddDate(0, 0, 1)
			}
			return next, true
		case FrequencyWeekly:
			today := time.Date(y, mon, d, h, m, 0, 0, loc)
			shift := (int(anchor.In(loc).Weekday()) - int(today.Weekday()) + 7) % 7
			next := today.AddDate(0, 0, shift)
			if !next.After(after) {
				next = next.AddDate(0, 0, 7)
			}
			return next, true
		case FrequencyMonthly:
			want := anchor.In(loc).Day()
			for off := 0; off <= 12; off++ {
				first := time.Date(y, mon+time.Month(off), 1, h, m, 0, 0, loc)
				day := want
				if last := daysIn(first); day > last {
					day = last
				}
				next := time.Date(first.Year(), first.Month(), day, h, m, 0, 0, loc)
				if next.After(after) {
					return next, true
				}
			}
		}
	}
	return time.Time{}, false
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("bad time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("bad time %q", s)
	}
	return h, m, nil
}
