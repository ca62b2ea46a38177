package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/internal/task/store"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/Yukaii/vibers-goal/pkg/fuzzy"
	"go.uber.org/zap"
)

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	store     *store.Store
	breakdown ai.BreakdownService
	apiKey    KeyFunc
	index     SemanticIndex
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewTaskUsecase creates a new instance of taskUsecase
func NewTaskUsecase(s *store.Store, log *zap.SugaredLogger) TaskUsecase {
	return &taskUsecase{
		store:  s,
		apiKey: func() string { return "" },
		log:    log.Named("task-usecase"),
		now:    time.Now,
	}
}

func (u *taskUsecase) SetBreakdownService(svc ai.BreakdownService, key KeyFunc) {
	u.breakdown = svc
	if key != nil {
		u.apiKey = key
	}
}

func (u *taskUsecase) SetSemanticIndex(idx SemanticIndex) {
	u.index = idx
}

func (u *taskUsecase) CreateTask(title, priority string, makeActive bool) (domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, ErrEmptyTitle
	}
	prio, err := domain.ParsePriority(priority)
	if err != nil {
		return domain.Task{}, err
	}
	id := u.store.AddTask(title, prio, makeActive)
	task, _ := u.store.Task(id)
	return task, nil
}

func (u *taskUsecase) GetTask(id string) (domain.Task, error) {
	task, ok := u.store.Task(id)
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (u *taskUsecase) ListTasks(showCompleted bool) []domain.Task {
	return visible(u.store.Tasks(), showCompleted)
}

func visible(tasks []domain.Task, showCompleted bool) []domain.Task {
	if showCompleted {
		return tasks
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func (u *taskUsecase) Search(query string, showCompleted bool) []domain.Task {
	tasks := u.ListTasks(showCompleted)
	query = strings.TrimSpace(query)
	if query == "" {
		return tasks
	}

	type scored struct {
		task  domain.Task
		score float64
	}
	var hits []scored
	for _, t := range tasks {
		fields := []string{t.Title, t.Description}
		for _, st := range t.SubTasks {
			fields = append(fields, st.Title)
		}
		if !fuzzy.MatchAny(query, fields...) {
			continue
		}
		hits = append(hits, scored{task: t, score: fuzzy.Score(query, t.Title, t.Description)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]domain.Task, len(hits))
	for i, h := range hits {
		out[i] = h.task
	}
	return out
}

func (u *taskUsecase) UpdateTask(task domain.Task) (domain.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return domain.Task{}, ErrEmptyTitle
	}
	existing, ok := u.store.Task(task.ID)
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	// id and createdAt are immutable
	task.CreatedAt = existing.CreatedAt
	prio, err := domain.ParsePriority(string(task.Priority))
	if err != nil {
		return domain.Task{}, err
	}
	task.Priority = prio
	if task.Reminder != nil {
		if err := task.Reminder.Validate(); err != nil {
			return domain.Task{}, err
		}
	}
	if !u.store.UpdateTask(task) {
		return domain.Task{}, ErrTaskNotFound
	}
	return u.GetTask(task.ID)
}

func (u *taskUsecase) DeleteTask(id string) error {
	if !u.store.DeleteTask(id) {
		return ErrTaskNotFound
	}
	return nil
}

func (u *taskUsecase) ToggleTask(id string) (domain.Task, error) {
	if !u.store.ToggleTaskCompletion(id) {
		return domain.Task{}, ErrTaskNotFound
	}
	return u.GetTask(id)
}

func (u *taskUsecase) SetReminder(id string, reminder domain.Reminder) (domain.Task, error) {
	r := reminder.WithDefaults(u.now())
	if err := r.Validate(); err != nil {
		return domain.Task{}, err
	}
	if !u.store.SetReminder(id, &r) {
		return domain.Task{}, ErrTaskNotFound
	}
	return u.GetTask(id)
}

func (u *taskUsecase) ClearReminder(id string) (domain.Task, error) {
	if !u.store.SetReminder(id, nil) {
		return domain.Task{}, ErrTaskNotFound
	}
	return u.GetTask(id)
}

func (u *taskUsecase) ReorderTasks(oldIndex, newIndex int) error {
	if !u.store.ReorderTasks(oldIndex, newIndex) {
		return ErrInvalidReorder
	}
	return nil
}

func (u *taskUsecase) AddSubTask(taskID, title string) (domain.SubTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.SubTask{}, ErrEmptyTitle
	}
	id, ok := u.store.AddSubTask(taskID, title)
	if !ok {
		return domain.SubTask{}, ErrTaskNotFound
	}
	return u.subTask(taskID, id)
}

func (u *taskUsecase) subTask(taskID, subTaskID string) (domain.SubTask, error) {
	task, err := u.GetTask(taskID)
	if err != nil {
		return domain.SubTask{}, err
	}
	i := task.SubTaskIndex(subTaskID)
	if i < 0 {
		return domain.SubTask{}, ErrSubTaskNotFound
	}
	return task.SubTasks[i], nil
}

func (u *taskUsecase) RenameSubTask(taskID, subTaskID, title string) (domain.SubTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.SubTask{}, ErrEmptyTitle
	}
	if _, err := u.GetTask(taskID); err != nil {
		return domain.SubTask{}, err
	}
	if !u.store.RenameSubTask(taskID, subTaskID, title) {
		return domain.SubTask{}, ErrSubTaskNotFound
	}
	return u.subTask(taskID, subTaskID)
}

func (u *taskUsecase) DeleteSubTask(taskID, subTaskID string) error {
	if _, err := u.GetTask(taskID); err != nil {
		return err
	}
	if !u.store.DeleteSubTask(taskID, subTaskID) {
		return ErrSubTaskNotFound
	}
	return nil
}

func (u *taskUsecase) ToggleSubTask(taskID, subTaskID string) (domain.SubTask, error) {
	if _, err := u.GetTask(taskID); err != nil {
		return domain.SubTask{}, err
	}
	if !u.store.ToggleSubTaskCompletion(taskID, subTaskID) {
		return domain.SubTask{}, ErrSubTaskNotFound
	}
	return u.subTask(taskID, subTaskID)
}

func (u *taskUsecase) ReorderSubTasks(taskID string, oldIndex, newIndex int) error {
	if _, err := u.GetTask(taskID); err != nil {
		return err
	}
	if !u.store.ReorderSubTasks(taskID, oldIndex, newIndex) {
		return ErrInvalidReorder
	}
	return nil
}

func (u *taskUsecase) ActiveTask() (domain.Task, bool) {
	return u.store.ActiveTask()
}

func (u *taskUsecase) ActiveTaskID() *string {
	return u.store.ActiveTaskID()
}

func (u *taskUsecase) SetActiveTask(id *string) {
	u.store.SetActiveTaskID(id)
}

func (u *taskUsecase) GenerateBreakdown(ctx context.Context, taskID, customPrompt string) ([]domain.SubTask, error) {
	if u.breakdown == nil {
		return nil, ErrAIUnavailable
	}
	task, err := u.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	u.log.Infow("generating breakdown", "task", taskID)
	items, err := u.breakdown.GenerateBreakdown(ctx, ai.BreakdownRequest{
		Title:        task.Title,
		Description:  task.Description,
		CustomPrompt: strings.TrimSpace(customPrompt),
		APIKey:       u.apiKey(),
	})
	if err != nil {
		u.log.Warnw("breakdown failed", "task", taskID, "error", err)
		if errors.Is(err, ai.ErrAPIKeyMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrBreakdownFailed, ai.ReasonFromError(err))
	}

	added := make([]domain.SubTask, 0, len(items))
	for _, title := range items {
		st, err := u.AddSubTask(taskID, title)
		if err != nil {
			// task deleted while the call was in flight
			return added, err
		}
		added = append(added, st)
	}
	return added, nil
}

func (u *taskUsecase) SemanticSearch(ctx context.Context, query string, limit int) ([]domain.Task, error) {
	if u.index == nil {
		return nil, ErrSearchNotEnabled
	}
	if limit <= 0 {
		limit = 10
	}
	ids, err := u.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := u.store.Task(id); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (u *taskUsecase) Stats() Stats {
	tasks := u.store.Tasks()
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		}
	}
	st.Active = st.Total - st.Completed
	return st
}
