package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Yukaii/vibers-goal/internal/notification"
	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"go.uber.org/zap"
)

const DefaultInterval = time.Minute

// TaskSource is the read side of the task store.
type TaskSource interface {
	Tasks() []domain.Task
}

type Notifier interface {
	NotifyReminder(ctx context.Context, r notification.Reminder)
}

// TaskReminderScheduler fires reminders whose next occurrence falls inside
// the window since the previous tick.
type TaskReminderScheduler struct {
	tasks    TaskSource
	notifier Notifier
	interval time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger

	mu       sync.Mutex
	lastTick time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTaskReminderScheduler creates a new scheduler
func NewTaskReminderScheduler(tasks TaskSource, notifier Notifier, interval time.Duration, log *zap.SugaredLogger) *TaskReminderScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &TaskReminderScheduler{
		tasks:    tasks,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		log:      log.Named("scheduler"),
	}
}

// SetClock replaces time.Now. Call before Start.
func (s *TaskReminderScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start begins the scheduler loop. The first window opens now: reminders
// that came due while the process was down are not replayed.
func (s *TaskReminderScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.lastTick = s.now()
	done := s.done
	s.mu.Unlock()

	s.log.Infow("starting task reminder scheduler", "interval", s.interval)

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Tick(ctx)
			case <-ctx.Done():
				s.log.Info("scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *TaskReminderScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Tick checks the window (lastTick, now] and returns how many reminders
// fired.
func (s *TaskReminderScheduler) Tick(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	from := s.lastTick
	if from.IsZero() {
		from = now
	}
	s.lastTick = now
	s.mu.Unlock()

	due := Due(s.tasks.Tasks(), from, now)
	for _, r := range due {
		s.notifier.NotifyReminder(ctx, r)
	}
	if len(due) > 0 {
		s.log.Infow("reminders fired", "count", len(due))
	}
	return len(due)
}

// Due lists reminders of open tasks whose next occurrence after from is at
// or before to.
func Due(tasks []domain.Task, from, to time.Time) []notification.Reminder {
	var out []notification.Reminder
	for _, t := range tasks {
		if t.Completed || t.Reminder == nil || !t.Reminder.Enabled {
			continue
		}
		next, ok := t.Reminder.NextOccurrence(t.CreatedAt, from)
		if !ok || next.After(to) {
			continue
		}
		out = append(out, notification.Reminder{
			TaskID:    t.ID,
			Title:     t.Title,
			Priority:  t.Priority,
			Type:      t.Reminder.Type,
			Frequency: t.Reminder.Frequency,
			DueAt:     next,
		})
	}
	return out
}
