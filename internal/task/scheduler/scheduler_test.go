package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Yukaii/vibers-goal/internal/notification"
	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTasks []domain.Task

func (s staticTasks) Tasks() []domain.Task { return s }

type recorder struct {
	mu  sync.Mutex
	got []notification.Reminder
}

func (r *recorder) NotifyReminder(_ context.Context, rem notification.Reminder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, rem)
}

var created = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) // Monday

func task(id string, r *domain.Reminder) domain.Task {
	return domain.Task{ID: id, Title: id, Priority: domain.PriorityMedium, CreatedAt: created, Reminder: r}
}

func TestDue(t *testing.T) {
	once := &domain.Reminder{Type: domain.ReminderOnce, Date: "2025-03-14", Time: "09:00", Enabled: true}
	daily := &domain.Reminder{Type: domain.ReminderRecurring, Frequency: domain.FrequencyDaily, Time: "09:00", Enabled: true}
	disabled := &domain.Reminder{Type: domain.ReminderRecurring, Frequency: domain.FrequencyDaily, Time: "09:00"}
	weekly := &domain.Reminder{Type: domain.ReminderRecurring, Frequency: domain.FrequencyWeekly, Time: "09:00", Enabled: true}

	done := task("done", daily)
	done.Completed = true

	tasks := []domain.Task{task("once", once), task("daily", daily), task("off", disabled), done, task("weekly", weekly), task("none", nil)}

	from := time.Date(2025, 3, 14, 8, 59, 0, 0, time.UTC)
	to := from.Add(time.Minute)
	due := Due(tasks, from, to)

	var ids []string
	for _, r := range due {
		ids = append(ids, r.TaskID)
		assert.Equal(t, to, r.DueAt)
	}
	assert.Equal(t, []string{"once", "daily"}, ids)

	// the next Monday fires the weekly one
	from = time.Date(2025, 3, 17, 8, 59, 0, 0, time.UTC)
	due = Due(tasks, from, from.Add(time.Minute))
	require.Len(t, due, 2)
	assert.Equal(t, "daily", due[0].TaskID)
	assert.Equal(t, "weekly", due[1].TaskID)
	assert.Equal(t, domain.FrequencyWeekly, due[1].Frequency)
}

func TestTick_WindowAdvances(t *testing.T) {
	daily := &domain.Reminder{Type: domain.ReminderRecurring, Frequency: domain.FrequencyDaily, Time: "09:00", Enabled: true}
	rec := &recorder{}
	s := NewTaskReminderScheduler(staticTasks{task("daily", daily)}, rec, time.Minute, logger.Nop())

	now := time.Date(2025, 3, 14, 8, 58, 30, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	// first tick only opens the window
	assert.Equal(t, 0, s.Tick(context.Background()))

	now = now.Add(time.Minute)
	assert.Equal(t, 0, s.Tick(context.Background()))

	now = now.Add(time.Minute)
	assert.Equal(t, 1, s.Tick(context.Background()))

	now = now.Add(time.Minute)
	assert.Equal(t, 0, s.Tick(context.Background()), "same occurrence must not fire twice")
	assert.Len(t, rec.got, 1)
}

func TestStartStop(t *testing.T) {
	hourly := &domain.Reminder{Type: domain.ReminderRecurring, Frequency: domain.FrequencyHourly, Time: "00:00", Enabled: true}
	rec := &recorder{}
	s := NewTaskReminderScheduler(staticTasks{task("h", hourly)}, rec, 10*time.Millisecond, logger.Nop())

	var mu sync.Mutex
	now := time.Date(2025, 3, 14, 9, 59, 58, 0, time.UTC)
	s.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.got) == 1
	}, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()
}
