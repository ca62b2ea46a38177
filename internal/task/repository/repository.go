package repository

import (
	"context"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
)

// StorageKey is the snapshot key holding tasks and the active task id.
const StorageKey = "voice-todo-storage"

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Load returns the last saved state, or an empty state if none was saved
	Load(ctx context.Context) (domain.State, error)

	// Save overwrites the persisted state
	Save(ctx context.Context, state domain.State) error
}
