package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{
		"HIGH":   PriorityHigh,
		" low ":  PriorityLow,
		"medium": PriorityMedium,
		"":       PriorityMedium,
	} {
		got, err := ParsePriority(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"urgent", "hi", "3"} {
		_, err := ParsePriority(in)
		assert.ErrorIs(t, err, ErrInvalidPriority, in)
	}
	assert.False(t, Priority("urgent").Valid())
}

func TestReminderValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       Reminder
		wantErr bool
	}{
		{"once ok", Reminder{Type: ReminderOnce, Date: "2025-03-01", Time: "09:00"}, false},
		{"once with frequency", Reminder{Type: ReminderOnce, Date: "2025-03-01", Time: "09:00", Frequency: FrequencyDaily}, true},
		{"once missing date", Reminder{Type: ReminderOnce, Time: "09:00"}, true},
		{"recurring ok", Reminder{Type: ReminderRecurring, Frequency: FrequencyWeekly, Time: "18:30"}, false},
		{"recurring with date", Reminder{Type: ReminderRecurring, Frequency: FrequencyDaily, Date: "2025-03-01", Time: "09:00"}, true},
		{"recurring bad frequency", Reminder{Type: ReminderRecurring, Frequency: "yearly", Time: "09:00"}, true},
		{"bad time", Reminder{Type: ReminderOnce, Date: "2025-03-01", Time: "25:00"}, true},
		{"bad type", Reminder{Type: "sometimes", Time: "09:00"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReminder)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewReminderDefaults(t *testing.T) {
	now := time.Date(2025, 3, 14, 16, 0, 0, 0, time.UTC)
	r := NewReminder(now)
	assert.Equal(t, ReminderOnce, r.Type)
	assert.Equal(t, "2025-03-14", r.Date)
	assert.Equal(t, "09:00", r.Time)
	assert.NoError(t, r.Validate())

	rec := Reminder{Type: ReminderRecurring, Date: "2025-03-14"}.WithDefaults(now)
	assert.Equal(t, FrequencyDaily, rec.Frequency)
	assert.Empty(t, rec.Date)
	assert.Equal(t, "09:00", rec.Time)
	assert.NoError(t, rec.Validate())
}

func TestNextOccurrence(t *testing.T) {
	// Friday 2025-03-14
	anchor := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) // Monday
	after := time.Date(2025, 3, 14, 10, 15, 0, 0, time.UTC)

	tests := []struct {
		name string
		r    Reminder
		want time.Time
		ok   bool
	}{
		{"once in future", Reminder{Type: ReminderOnce, Date: "2025-03-14", Time: "11:00"}, time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC), true},
		{"once in past", Reminder{Type: ReminderOnce, Date: "2025-03-14", Time: "09:00"}, time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), false},
		{"hourly", Reminder{Type: ReminderRecurring, Frequency: FrequencyHourly, Time: "00:05"}, time.Date(2025, 3, 14, 11, 5, 0, 0, time.UTC), true},
		{"daily later today", Reminder{Type: ReminderRecurring, Frequency: FrequencyDaily, Time: "18:00"}, time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC), true},
		{"daily tomorrow", Reminder{Type: ReminderRecurring, Frequency: FrequencyDaily, Time: "09:00"}, time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC), true},
		{"weekly on anchor weekday", Reminder{Type: ReminderRecurring, Frequency: FrequencyWeekly, Time: "09:00"}, time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC), true},
		{"monthly on anchor day", Reminder{Type: ReminderRecurring, Frequency: FrequencyMonthly, Time: "09:00"}, time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.r.NextOccurrence(anchor, after)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
			}
		})
	}
}

func TestNextOccurrence_MonthlyClampsToMonthEnd(t *testing.T) {
	anchor := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	after := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	r := Reminder{Type: ReminderRecurring, Frequency: FrequencyMonthly, Time: "07:30"}

	got, ok := r.NextOccurrence(anchor, after)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 28, 7, 30, 0, 0, time.UTC), got)
}

func TestTaskClone(t *testing.T) {
	orig := Task{
		ID:       "t1",
		Reminder: &Reminder{Type: ReminderOnce, Date: "2025-03-14", Time: "09:00"},
		SubTasks: []SubTask{{ID: "s1", Title: "a"}},
	}
	c := orig.Clone()
	c.SubTasks[0].Title = "changed"
	c.Reminder.Time = "10:00"

	assert.Equal(t, "a", orig.SubTasks[0].Title)
	assert.Equal(t, "09:00", orig.Reminder.Time)
}
