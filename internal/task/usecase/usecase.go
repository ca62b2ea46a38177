package usecase

import (
	"context"
	"errors"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/pkg/ai"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrSubTaskNotFound  = errors.New("subtask not found")
	ErrEmptyTitle       = errors.New("title must not be empty")
	ErrBreakdownFailed  = errors.New("failed to generate task breakdown")
	ErrAIUnavailable    = errors.New("AI service not configured")
	ErrInvalidReorder   = errors.New("index out of range")
	ErrSearchNotEnabled = errors.New("semantic search not configured")
)

// TaskUsecase defines the interface for task business logic. It validates
// input before handing it to the store, which never fails.
type TaskUsecase interface {
	// CreateTask trims the title and rejects blank ones
	CreateTask(title, priority string, makeActive bool) (domain.Task, error)

	GetTask(id string) (domain.Task, error)

	// ListTasks returns tasks in display order, hiding completed ones unless showCompleted
	ListTasks(showCompleted bool) []domain.Task

	// Search fuzzy-matches title and description
	Search(query string, showCompleted bool) []domain.Task

	// UpdateTask replaces the task; title is trimmed and must be non-empty
	UpdateTask(task domain.Task) (domain.Task, error)

	DeleteTask(id string) error
	ToggleTask(id string) (domain.Task, error)

	SetReminder(id string, reminder domain.Reminder) (domain.Task, error)
	ClearReminder(id string) (domain.Task, error)

	ReorderTasks(oldIndex, newIndex int) error

	AddSubTask(taskID, title string) (domain.SubTask, error)
	RenameSubTask(taskID, subTaskID, title string) (domain.SubTask, error)
	DeleteSubTask(taskID, subTaskID string) error
	ToggleSubTask(taskID, subTaskID string) (domain.SubTask, error)
	ReorderSubTasks(taskID string, oldIndex, newIndex int) error

	ActiveTask() (domain.Task, bool)
	// ActiveTaskID is the raw selection; it may name a task that no longer exists
	ActiveTaskID() *string
	SetActiveTask(id *string)

	// GenerateBreakdown asks the AI service for subtasks and appends them in order
	GenerateBreakdown(ctx context.Context, taskID, customPrompt string) ([]domain.SubTask, error)

	// SemanticSearch returns tasks ranked by the vector index
	SemanticSearch(ctx context.Context, query string, limit int) ([]domain.Task, error)

	Stats() Stats

	// SetBreakdownService sets the AI service and where to read the user's key from
	SetBreakdownService(svc ai.BreakdownService, key KeyFunc)

	// SetSemanticIndex enables SemanticSearch
	SetSemanticIndex(idx SemanticIndex)
}

// Stats summarises the collection for list headers.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}

// KeyFunc returns the user's current OpenAI key, or "".
type KeyFunc func() string

// SemanticIndex ranks task ids by similarity to a query.
type SemanticIndex interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}
