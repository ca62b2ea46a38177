package store

import (
	"context"
	"testing"

	"github.com/Yukaii/vibers-goal/internal/settings/domain"
	"github.com/Yukaii/vibers-goal/internal/settings/repository"
	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/Yukaii/vibers-goal/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := New(context.Background(), repository.NewSnapshotSettingsRepository(snapshot.NewMemoryBackend()), logger.Nop())

	got := s.Settings()
	assert.Nil(t, got.OpenAIAPIKey)
	assert.Equal(t, domain.VoiceProviderAuto, got.VoiceInputProvider)
	assert.False(t, got.HasAPIKey())
}

func TestSettersPersist(t *testing.T) {
	ctx := context.Background()
	backend := snapshot.NewMemoryBackend()
	repo := repository.NewSnapshotSettingsRepository(backend)
	s := New(ctx, repo, logger.Nop())

	var notified int
	s.Subscribe(func(domain.Settings) { notified++ })

	key := "sk-test-1234"
	s.SetOpenAIAPIKey(&key)
	s.SetVoiceInputProvider(domain.VoiceProviderWebSpeech)
	assert.Equal(t, 2, notified)

	reloaded := New(ctx, repo, logger.Nop()).Settings()
	require.True(t, reloaded.HasAPIKey())
	assert.Equal(t, "sk-test-1234", reloaded.APIKey())
	assert.Equal(t, "****1234", reloaded.MaskedAPIKey())
	assert.Equal(t, domain.VoiceProviderWebSpeech, reloaded.VoiceInputProvider)

	raw, err := backend.Load(ctx, repository.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"openaiApiKey":"sk-test-1234","voiceInputProvider":"webspeech"},"version":0}`, string(raw))

	s.SetOpenAIAPIKey(nil)
	assert.False(t, New(ctx, repo, logger.Nop()).Settings().HasAPIKey())
}

func TestSeedOpenAIAPIKey(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSnapshotSettingsRepository(snapshot.NewMemoryBackend())

	s := New(ctx, repo, logger.Nop())
	assert.False(t, s.SeedOpenAIAPIKey(""))
	require.True(t, s.SeedOpenAIAPIKey("sk-env"))
	assert.Equal(t, "sk-env", s.Settings().APIKey())
	assert.False(t, s.SeedOpenAIAPIKey("sk-other"), "only the first start seeds")

	s.SetOpenAIAPIKey(nil)
	reopened := New(ctx, repo, logger.Nop())
	assert.False(t, reopened.SeedOpenAIAPIKey("sk-env"), "a cleared key stays cleared")
	assert.False(t, reopened.Settings().HasAPIKey())
}

func TestSeedSkippedWhenOtherSettingsSaved(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSnapshotSettingsRepository(snapshot.NewMemoryBackend())
	New(ctx, repo, logger.Nop()).SetVoiceInputProvider(domain.VoiceProviderWebSpeech)

	s := New(ctx, repo, logger.Nop())
	assert.False(t, s.SeedOpenAIAPIKey("sk-env"))
	assert.Nil(t, s.Settings().OpenAIAPIKey)
}

func TestSettingsCopyIsDetached(t *testing.T) {
	s := New(context.Background(), repository.NewSnapshotSettingsRepository(snapshot.NewMemoryBackend()), logger.Nop())
	key := "sk-a"
	s.SetOpenAIAPIKey(&key)
	key = "sk-b"

	got := s.Settings()
	*got.OpenAIAPIKey = "sk-c"
	assert.Equal(t, "sk-a", s.Settings().APIKey())
}

func TestParseVoiceInputProvider(t *testing.T) {
	p, err := domain.ParseVoiceInputProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, domain.VoiceProviderOpenAI, p)

	_, err = domain.ParseVoiceInputProvider("siri")
	assert.Error(t, err)
}
