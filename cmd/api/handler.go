package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	authUsecase "github.com/Yukaii/vibers-goal/internal/auth/usecase"
	settingsstore "github.com/Yukaii/vibers-goal/internal/settings/store"
	taskDelivery "github.com/Yukaii/vibers-goal/internal/task/delivery"
	taskUsecase "github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/Yukaii/vibers-goal/pkg/config"
	"github.com/Yukaii/vibers-goal/pkg/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// Deps are the collaborators the HTTP surface is built from. Auth,
// Events, Transcriber, KeyChecker and Ollama are optional.
type Deps struct {
	Config      *config.Config
	Tasks       taskUsecase.TaskUsecase
	Settings    *settingsstore.Store
	Auth        authUsecase.AuthUsecase
	Events      *sse.Manager
	Transcriber ai.Transcriber
	KeyChecker  KeyChecker
	Ollama      Pinger
	Voice       voice.Capabilities
	Log         *zap.SugaredLogger
}

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	taskHandler     *taskDelivery.TaskHandler
	settingsHandler *SettingsHandler
	voiceHandler    *VoiceHandler
	config          *config.Config
	log             *zap.SugaredLogger
}

func NewHandler(d Deps) *Handler {
	var events gin.HandlerFunc
	if d.Events != nil {
		events = d.Events.ServeHTTP
	}

	return &Handler{
		authUsecase:     d.Auth,
		taskHandler:     taskDelivery.NewTaskHandler(d.Tasks, events),
		settingsHandler: NewSettingsHandler(d.Settings, d.KeyChecker, d.Ollama),
		voiceHandler:    NewVoiceHandler(d.Settings, d.Transcriber, d.Voice),
		config:          d.Config,
		log:             d.Log.Named("http"),
	}
}

// Router builds the gin engine with middleware and routes.
func (h *Handler) Router() *gin.Engine {
	if h.config != nil && h.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(h.log), gin.Recovery(), CORS())
	SetupRoutes(r, h.authUsecase, h.taskHandler, h.settingsHandler, h.voiceHandler)
	return r
}

// Start serves on addr until ctx is cancelled, then drains in-flight
// requests for up to 30 seconds.
func (h *Handler) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Infow("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	h.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
