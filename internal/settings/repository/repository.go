package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Yukaii/vibers-goal/internal/settings/domain"
	"github.com/Yukaii/vibers-goal/pkg/snapshot"
)

const StorageKey = "settings-storage"

// ErrNotSaved is returned by Load, together with the defaults, when no
// settings have been saved yet.
var ErrNotSaved = snapshot.ErrNotFound

type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

type envelope struct {
	State   domain.Settings `json:"state"`
	Version int             `json:"version"`
}

type snapshotSettingsRepository struct {
	backend snapshot.Backend
}

func NewSnapshotSettingsRepository(backend snapshot.Backend) SettingsRepository {
	return &snapshotSettingsRepository{backend: backend}
}

func (r *snapshotSettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	data, err := r.backend.Load(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return domain.Default(), ErrNotSaved
		}
		return domain.Settings{}, err
	}

	env := envelope{State: domain.Default()}
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to decode settings snapshot: %w", err)
	}
	if _, err := domain.ParseVoiceInputProvider(string(env.State.VoiceInputProvider)); err != nil {
		env.State.VoiceInputProvider = domain.VoiceProviderAuto
	}
	return env.State, nil
}

func (r *snapshotSettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	data, err := json.Marshal(envelope{State: settings})
	if err != nil {
		return err
	}
	return r.backend.Save(ctx, StorageKey, data)
}
