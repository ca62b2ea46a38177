package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yukaii/vibers-goal/internal/notification"
	settingsdomain "github.com/Yukaii/vibers-goal/internal/settings/domain"
	settingsrepo "github.com/Yukaii/vibers-goal/internal/settings/repository"
	settingsstore "github.com/Yukaii/vibers-goal/internal/settings/store"
	"github.com/Yukaii/vibers-goal/internal/task/domain"
	taskrepo "github.com/Yukaii/vibers-goal/internal/task/repository"
	"github.com/Yukaii/vibers-goal/internal/task/scheduler"
	"github.com/Yukaii/vibers-goal/internal/task/search"
	taskstore "github.com/Yukaii/vibers-goal/internal/task/store"
	"github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/Yukaii/vibers-goal/pkg/chroma"
	"github.com/Yukaii/vibers-goal/pkg/config"
	"github.com/Yukaii/vibers-goal/pkg/fcm"
	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/Yukaii/vibers-goal/pkg/snapshot"
	"github.com/Yukaii/vibers-goal/pkg/sse"
	"go.uber.org/zap"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	log      *zap.SugaredLogger
	backend  snapshot.Backend
	store    *taskstore.Store
	tasks    usecase.TaskUsecase
	settings *settingsstore.Store
	openai   *ai.OpenAIService
	ollama   *ai.OllamaService

	closers []func() error
}

type logMode int

const (
	// logConsole writes to stdout (and LOG_FILE).
	logConsole logMode = iota
	// logStderr keeps stdout free for a protocol.
	logStderr
	// logQuiet only writes to LOG_FILE, for the TUI and one-shot commands.
	logQuiet
)

// newApp loads config and state and wires the task use case to the AI
// provider.
func newApp(ctx context.Context, mode logMode) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var log *zap.SugaredLogger
	switch {
	case mode == logConsole:
		log, err = logger.New(cfg.LogLevel, cfg.LogFile)
	case mode == logStderr || cfg.LogFile != "":
		log, err = logger.NewStderr(cfg.LogLevel, cfg.LogFile)
	default:
		log = logger.Nop()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	backend, err := snapshot.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		backend:  backend,
		store:    taskstore.New(ctx, taskrepo.NewSnapshotTaskRepository(backend), log),
		settings: settingsstore.New(ctx, settingsrepo.NewSnapshotSettingsRepository(backend), log),
		openai:   ai.NewOpenAIService(cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.TranscriptionModel, log),
		closers:  []func() error{backend.Close},
	}
	a.tasks = usecase.NewTaskUsecase(a.store, log)
	if a.settings.SeedOpenAIAPIKey(cfg.OpenAIAPIKey) {
		log.Info("OpenAI API key seeded from OPENAI_API_KEY")
	}

	if ollama, err := ai.NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel); err == nil {
		a.ollama = ollama
	}

	breakdown, err := ai.NewBreakdownService(ai.Config{
		Provider:           ai.ProviderType(cfg.AIProvider),
		OpenAIBaseURL:      cfg.OpenAIBaseURL,
		OpenAIModel:        cfg.OpenAIModel,
		TranscriptionModel: cfg.TranscriptionModel,
		GeminiAPIKey:       cfg.GeminiAPIKey,
		OllamaBaseURL:      cfg.OllamaBaseURL,
		OllamaModel:        cfg.OllamaModel,
	}, log)
	if err != nil {
		log.Warnw("AI breakdown disabled", "provider", cfg.AIProvider, "error", err)
	} else {
		a.tasks.SetBreakdownService(breakdown, a.apiKey)
		log.Infow("AI service initialized", "provider", cfg.AIProvider)
	}
	return a, nil
}

// apiKey reads the key from settings. OPENAI_API_KEY only seeds it.
func (a *app) apiKey() string {
	return a.settings.Settings().APIKey()
}

func (a *app) subscribe(fn func(domain.State)) func() {
	return a.store.Subscribe(fn)
}

func (a *app) voiceConfig() *voice.Config {
	caps, canRecord := voice.DetectCapabilities(a.cfg.VoiceRecordCmd, a.cfg.VoiceRecognizerCmd)
	cfg := &voice.Config{
		Preferences: func() (settingsdomain.VoiceInputProvider, string) {
			return a.settings.Settings().VoiceInputProvider, a.apiKey()
		},
		Capabilities: caps,
		Transcriber:  a.openai,
		Log:          a.log,
	}
	if canRecord {
		cmd := a.cfg.VoiceRecordCmd
		cfg.NewRecorder = func() (voice.Source, error) { return voice.NewExecRecorder(cmd), nil }
	}
	if caps.SpeechRecognition {
		cmd := a.cfg.VoiceRecognizerCmd
		cfg.NewRecognizer = func() (voice.Source, error) { return voice.NewExecRecognizer(cmd), nil }
	}
	return cfg
}

// startServices brings up the long-running parts used by serve: SSE
// fan-out, push and Pub/Sub notifications, the semantic index and the
// reminder scheduler. Optional integrations that fail to start are logged
// and skipped.
func (a *app) startServices(ctx context.Context) (*sse.Manager, error) {
	events := sse.NewManager(a.log)
	go events.Run(ctx)

	notifier := notification.NewService(a.log)
	notifier.SetBroadcaster(events)

	if a.cfg.FirebaseCredentials != "" {
		client, err := fcm.NewClient(ctx, a.cfg.FirebaseCredentials, a.log)
		if err != nil {
			a.log.Warnw("failed to initialize FCM client, push notifications disabled", "error", err)
		} else {
			notifier.SetPusher(client, a.cfg.FCMTopic, a.cfg.DeviceTokens())
		}
	}

	if a.cfg.GoogleProjectID != "" && a.cfg.PubSubTopic != "" {
		// accept either a short name or projects/<p>/topics/<name>
		topic := a.cfg.PubSubTopic
		if parts := strings.Split(topic, "/"); len(parts) > 1 {
			topic = parts[len(parts)-1]
		}
		publisher, err := notification.NewPubSubPublisher(ctx, a.cfg.GoogleProjectID, topic, a.cfg.GoogleCredentials, a.log)
		if err != nil {
			a.log.Warnw("failed to initialize Pub/Sub publisher", "error", err)
		} else {
			notifier.SetPublisher(publisher)
			a.closers = append(a.closers, publisher.Close)
		}
	}

	a.store.Subscribe(notifier.TasksChanged)
	a.closers = append(a.closers, func() error { notifier.Wait(); return nil })

	if a.cfg.ChromaAPIKey != "" {
		client, err := chroma.NewChromaClient(ctx, chroma.Config{
			APIKey:       a.cfg.ChromaAPIKey,
			Tenant:       a.cfg.ChromaTenant,
			Database:     a.cfg.ChromaDatabase,
			GeminiAPIKey: a.cfg.GeminiAPIKey,
		}, a.log)
		if err != nil {
			a.log.Warnw("failed to initialize Chroma client, semantic search disabled", "error", err)
		} else {
			indexer := search.NewIndexer(client, a.log)
			a.store.Subscribe(indexer.Listen)
			indexer.Listen(a.store.State())
			go indexer.Run(ctx)
			a.tasks.SetSemanticIndex(indexer)
			a.closers = append(a.closers, client.Close)
		}
	} else {
		a.log.Info("CHROMA_API_KEY not set, semantic search disabled")
	}

	reminders := scheduler.NewTaskReminderScheduler(a.store, notifier, a.cfg.ReminderInterval, a.log)
	reminders.Start(ctx)
	a.closers = append(a.closers, func() error { reminders.Stop(); return nil })

	return events, nil
}

// Close runs the registered closers in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnw("shutdown step failed", "error", err)
		}
	}
	_ = a.log.Sync()
}
