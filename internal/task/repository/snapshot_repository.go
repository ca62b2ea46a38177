package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/pkg/snapshot"
)

// envelope matches the layout written by the web client: {"state": ..., "version": 0}.
type envelope struct {
	State   domain.State `json:"state"`
	Version int          `json:"version"`
}

type snapshotTaskRepository struct {
	backend snapshot.Backend
}

// NewSnapshotTaskRepository creates a TaskRepository on top of a snapshot backend
func NewSnapshotTaskRepository(backend snapshot.Backend) TaskRepository {
	return &snapshotTaskRepository{backend: backend}
}

func (r *snapshotTaskRepository) Load(ctx context.Context) (domain.State, error) {
	data, err := r.backend.Load(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return domain.State{Tasks: []domain.Task{}}, nil
		}
		return domain.State{}, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.State{}, fmt.Errorf("failed to decode task snapshot: %w", err)
	}
	if env.State.Tasks == nil {
		env.State.Tasks = []domain.Task{}
	}
	for i := range env.State.Tasks {
		if env.State.Tasks[i].SubTasks == nil {
			env.State.Tasks[i].SubTasks = []domain.SubTask{}
		}
	}
	return env.State, nil
}

func (r *snapshotTaskRepository) Save(ctx context.Context, state domain.State) error {
	data, err := json.Marshal(envelope{State: state})
	if err != nil {
		return err
	}
	return r.backend.Save(ctx, StorageKey, data)
}
