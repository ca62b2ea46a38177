// Package notification fans reminder and change events out to every
// configured sink: log, SSE clients, FCM and Cloud Pub/Sub.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/pkg/fcm"
	"go.uber.org/zap"
)

const (
	EventReminder = "reminder"
	EventTasks    = "tasks"

	sendTimeout = 10 * time.Second
)

// Reminder is one due reminder for a task.
type Reminder struct {
	TaskID    string                   `json:"taskId"`
	Title     string                   `json:"title"`
	Priority  domain.Priority          `json:"priority"`
	Type      domain.ReminderType      `json:"type"`
	Frequency domain.ReminderFrequency `json:"frequency,omitempty"`
	DueAt     time.Time                `json:"dueAt"`
}

// Broadcaster pushes an event to connected clients.
type Broadcaster interface {
	Broadcast(name string, data any)
}

// Pusher sends mobile/web push notifications.
type Pusher interface {
	SendToTopic(ctx context.Context, topic string, n fcm.NotificationData) error
	SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error)
}

// Publisher forwards events to a message bus.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

type Service struct {
	log       *zap.SugaredLogger
	sse       Broadcaster
	push      Pusher
	topic     string
	publisher Publisher

	mu     sync.Mutex
	tokens []string
	wg     sync.WaitGroup
}

func NewService(log *zap.SugaredLogger) *Service {
	return &Service{log: log.Named("notification")}
}

// SetBroadcaster enables the SSE sink
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.sse = b
}

// SetPusher enables FCM delivery to topic and/or tokens
func (s *Service) SetPusher(p Pusher, topic string, tokens []string) {
	s.push = p
	s.topic = topic
	s.tokens = append([]string(nil), tokens...)
}

// SetPublisher enables the Pub/Sub sink
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// NotifyReminder delivers r to every sink. A failing sink is logged and
// never blocks the others.
func (s *Service) NotifyReminder(ctx context.Context, r Reminder) {
	s.log.Infow("reminder due", "task", r.TaskID, "title", r.Title, "type", r.Type, "due", r.DueAt)

	if s.sse != nil {
		s.sse.Broadcast(EventReminder, r)
	}
	if s.push != nil {
		s.pushReminder(ctx, r)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, EventReminder, r); err != nil {
			s.log.Errorw("failed to publish reminder", "task", r.TaskID, "error", err)
		}
	}
}

func (s *Service) pushReminder(ctx context.Context, r Reminder) {
	n := fcm.NotificationData{
		Title: priorityBadge(r.Priority) + " Reminder: " + r.Title,
		Body:  "Due " + r.DueAt.Format("Mon Jan 2 15:04"),
		Data: map[string]string{
			"type":     "task_reminder",
			"task_id":  r.TaskID,
			"priority": string(r.Priority),
		},
		ClickAction: "/tasks/" + r.TaskID,
	}

	if s.topic != "" {
		if err := s.push.SendToTopic(ctx, s.topic, n); err != nil {
			s.log.Errorw("failed to push reminder to topic", "topic", s.topic, "error", err)
		}
	}

	s.mu.Lock()
	tokens := append([]string(nil), s.tokens...)
	s.mu.Unlock()
	if len(tokens) == 0 {
		return
	}

	failed, err := s.push.SendToDevices(ctx, tokens, n)
	if err != nil {
		s.log.Errorw("failed to push reminder to devices", "error", err)
		return
	}
	if len(failed) > 0 {
		s.dropTokens(failed)
	}
}

// dropTokens forgets tokens FCM rejected so later reminders skip them.
func (s *Service) dropTokens(failed []string) {
	bad := make(map[string]bool, len(failed))
	for _, t := range failed {
		bad[t] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tokens[:0]
	for _, t := range s.tokens {
		if !bad[t] {
			kept = append(kept, t)
		}
	}
	s.tokens = kept
	s.log.Warnw("dropped rejected device tokens", "dropped", len(failed), "remaining", len(kept))
}

// Tokens returns the device tokens still in use.
func (s *Service) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

// TasksChanged is a task store listener. It runs under the store lock, so
// the bus publish happens on its own goroutine.
func (s *Service) TasksChanged(state domain.State) {
	if s.sse != nil {
		s.sse.Broadcast(EventTasks, state)
	}
	if s.publisher == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		payload := map[string]any{"tasks": len(state.Tasks), "activeTaskId": state.ActiveTaskID}
		if err := s.publisher.Publish(ctx, EventTasks, payload); err != nil {
			s.log.Errorw("failed to publish task change", "error", err)
		}
	}()
}

// Wait blocks until in-flight publishes finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func priorityBadge(p domain.Priority) string {
	switch p {
	case domain.PriorityHigh:
		return "🔴"
	case domain.PriorityLow:
		return "🟢"
	default:
		return "🟡"
	}
}
