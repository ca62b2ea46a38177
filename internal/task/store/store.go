// Package store holds the in-memory task collection. It is the only writer of
// task state: every mutation is persisted as a full snapshot and then
// broadcast to subscribers.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/internal/task/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const saveTimeout = 5 * time.Second

// Listener receives a copy of the state after each applied mutation. It runs
// under the store lock and must not call back into store mutators.
type Listener func(domain.State)

type subscription struct {
	id int
	fn Listener
}

type Store struct {
	mu     sync.Mutex
	state  domain.State
	repo   repository.TaskRepository
	log    *zap.SugaredLogger
	subs   []subscription
	nextID int
	now    func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New loads the persisted snapshot. A snapshot that can't be read is logged
// and replaced by an empty collection.
func New(ctx context.Context, repo repository.TaskRepository, log *zap.SugaredLogger, opts ...Option) *Store {
	s := &Store{
		repo: repo,
		log:  log.Named("task-store"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		s.log.Errorw("failed to load task snapshot, starting empty", "error", err)
		state = domain.State{}
	}
	if state.Tasks == nil {
		state.Tasks = []domain.Task{}
	}
	s.state = state
	s.log.Infow("task store ready", "tasks", len(state.Tasks))
	return s
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// commit must be called with s.mu held.
func (s *Store) commit() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, s.state); err != nil {
		s.log.Errorw("failed to persist task snapshot", "error", err)
	}

	if len(s.subs) == 0 {
		return
	}
	snap := s.state.Clone()
	for _, sub := range s.subs {
		sub.fn(snap)
	}
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.state.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// State returns a deep copy of the whole collection.
func (s *Store) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) Tasks() []domain.Task {
	return s.State().Tasks
}

func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Task{}, false
	}
	return s.state.Tasks[i].Clone(), true
}

func (s *Store) ActiveTaskID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ActiveTaskID == nil {
		return nil
	}
	id := *s.state.ActiveTaskID
	return &id
}

// ActiveTask resolves the active id. The id may point at nothing.
func (s *Store) ActiveTask() (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.ActiveTaskID == nil {
		return domain.Task{}, false
	}
	i := s.indexOf(*s.state.ActiveTaskID)
	if i < 0 {
		return domain.Task{}, false
	}
	return s.state.Tasks[i].Clone(), true
}

// AddTask prepends a new task and returns its id. Title validation is the
// caller's job.
func (s *Store) AddTask(title string, priority domain.Priority, makeActive bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := domain.Task{
		ID:        uuid.New().String(),
		Title:     title,
		Priority:  priority,
		CreatedAt: s.now(),
		SubTasks:  []domain.SubTask{},
	}
	s.state.Tasks = append([]domain.Task{task}, s.state.Tasks...)
	if makeActive {
		id := task.ID
		s.state.ActiveTaskID = &id
	}
	s.commit()
	return task.ID
}

// UpdateTask replaces the task with the same id wholesale.
func (s *Store) UpdateTask(task domain.Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(task.ID)
	if i < 0 {
		return false
	}
	next := task.Clone()
	if next.SubTasks == nil {
		next.SubTasks = []domain.SubTask{}
	}
	s.state.Tasks[i] = next
	s.commit()
	return true
}

// SetReminder replaces only the task's reminder; nil removes it.
func (s *Store) SetReminder(id string, reminder *domain.Reminder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if reminder != nil {
		r := *reminder
		reminder = &r
	}
	s.state.Tasks[i].Reminder = reminder
	s.commit()
	return true
}

// DeleteTask removes the task with its subtasks and clears the active id if
// it pointed at it.
func (s *Store) DeleteTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.state.Tasks = append(s.state.Tasks[:i], s.state.Tasks[i+1:]...)
	if s.state.ActiveTaskID != nil && *s.state.ActiveTaskID == id {
		s.state.ActiveTaskID = nil
	}
	s.commit()
	return true
}

func (s *Store) ToggleTaskCompletion(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.state.Tasks[i].Completed = !s.state.Tasks[i].Completed
	s.commit()
	return true
}

// AddSubTask appends to the task's subtask list.
func (s *Store) AddSubTask(taskID, title string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return "", false
	}
	st := domain.SubTask{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: s.now(),
	}
	s.state.Tasks[i].SubTasks = append(s.state.Tasks[i].SubTasks, st)
	s.commit()
	return st.ID, true
}

// UpdateSubTask replaces the subtask with the same id.
func (s *Store) UpdateSubTask(taskID string, subTask domain.SubTask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return false
	}
	j := s.state.Tasks[i].SubTaskIndex(subTask.ID)
	if j < 0 {
		return false
	}
	s.state.Tasks[i].SubTasks[j] = subTask
	s.commit()
	return true
}

// RenameSubTask changes the title and leaves completion alone.
func (s *Store) RenameSubTask(taskID, subTaskID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return false
	}
	j := s.state.Tasks[i].SubTaskIndex(subTaskID)
	if j < 0 {
		return false
	}
	s.state.Tasks[i].SubTasks[j].Title = title
	s.commit()
	return true
}

func (s *Store) DeleteSubTask(taskID, subTaskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return false
	}
	subs := s.state.Tasks[i].SubTasks
	j := s.state.Tasks[i].SubTaskIndex(subTaskID)
	if j < 0 {
		return false
	}
	s.state.Tasks[i].SubTasks = append(subs[:j], subs[j+1:]...)
	s.commit()
	return true
}

func (s *Store) ToggleSubTaskCompletion(taskID, subTaskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return false
	}
	j := s.state.Tasks[i].SubTaskIndex(subTaskID)
	if j < 0 {
		return false
	}
	s.state.Tasks[i].SubTasks[j].Completed = !s.state.Tasks[i].SubTasks[j].Completed
	s.commit()
	return true
}

// SetActiveTaskID stores id as given; it is not checked against the
// collection. nil clears the selection.
func (s *Store) SetActiveTaskID(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != nil {
		v := *id
		id = &v
	}
	s.state.ActiveTaskID = id
	s.commit()
}

// ReorderTasks moves the task at oldIndex to newIndex. Indices outside the
// list are rejected.
func (s *Store) ReorderTasks(oldIndex, newIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !move(s.state.Tasks, oldIndex, newIndex) {
		return false
	}
	s.commit()
	return true
}

// ReorderSubTasks is ReorderTasks for one task's subtasks.
func (s *Store) ReorderSubTasks(taskID string, oldIndex, newIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(taskID)
	if i < 0 {
		return false
	}
	if !move(s.state.Tasks[i].SubTasks, oldIndex, newIndex) {
		return false
	}
	s.commit()
	return true
}

// move relocates items[from] to position to in place, shifting the elements
// in between. It reports false when either index is out of range.
func move[T any](items []T, from, to int) bool {
	n := len(items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	item := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
	return true
}
