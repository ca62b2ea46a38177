package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Yukaii/vibers-goal/internal/settings/domain"
	"github.com/Yukaii/vibers-goal/internal/settings/repository"
	"go.uber.org/zap"
)

type Store struct {
	mu       sync.Mutex
	settings domain.Settings
	repo     repository.SettingsRepository
	log      *zap.SugaredLogger
	subs     []func(domain.Settings)
	// saved is false until settings exist in storage.
	saved bool
}

func New(ctx context.Context, repo repository.SettingsRepository, log *zap.SugaredLogger) *Store {
	s := &Store{repo: repo, log: log.Named("settings-store")}

	settings, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotSaved):
		settings = domain.Default()
	case err != nil:
		s.log.Errorw("failed to load settings snapshot, using defaults", "error", err)
		settings = domain.Default()
		s.saved = true
	default:
		s.saved = true
	}
	s.settings = settings
	return s
}

// SeedOpenAIAPIKey stores key only when no settings were ever saved, so a
// key the user later cleared is not brought back. It reports whether the
// key was stored.
func (s *Store) SeedOpenAIAPIKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved || key == "" {
		return false
	}
	s.settings.OpenAIAPIKey = &key
	s.commit()
	return true
}

func (s *Store) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySettings(s.settings)
}

// Subscribe registers fn for every change. There is no unsubscribe; settings
// listeners live as long as the process.
func (s *Store) Subscribe(fn func(domain.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SetOpenAIAPIKey stores key verbatim; nil clears it.
func (s *Store) SetOpenAIAPIKey(key *string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != nil {
		v := *key
		key = &v
	}
	s.settings.OpenAIAPIKey = key
	s.commit()
}

func (s *Store) SetVoiceInputProvider(p domain.VoiceInputProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.VoiceInputProvider = p
	s.commit()
}

func (s *Store) commit() {
	s.saved = true
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Save(ctx, s.settings); err != nil {
		s.log.Errorw("failed to persist settings", "error", err)
	}
	for _, fn := range s.subs {
		fn(copySettings(s.settings))
	}
}

func copySettings(in domain.Settings) domain.Settings {
	out := in
	if in.OpenAIAPIKey != nil {
		k := *in.OpenAIAPIKey
		out.OpenAIAPIKey = &k
	}
	return out
}
