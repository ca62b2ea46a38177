package cli

import (
	"os"
	"os/signal"
	"syscall"

	api "github.com/Yukaii/vibers-goal/cmd/api"
	authUsecase "github.com/Yukaii/vibers-goal/internal/auth/usecase"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, reminder scheduler and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, logConsole)
			if err != nil {
				return err
			}
			defer a.Close()

			events, err := a.startServices(ctx)
			if err != nil {
				return err
			}

			var auth authUsecase.AuthUsecase
			if a.cfg.AuthEnabled() {
				auth = authUsecase.NewAuthUsecase(a.cfg.AuthPasswordHash, a.cfg.JWTSecret, a.cfg.JWTAccessExpiry)
			} else {
				a.log.Warn("AUTH_PASSWORD_HASH not set, API is open to anyone who can reach it")
			}

			var ollama api.Pinger
			if a.ollama != nil {
				ollama = a.ollama
			}
			caps, _ := voice.DetectCapabilities(a.cfg.VoiceRecordCmd, a.cfg.VoiceRecognizerCmd)

			h := api.NewHandler(api.Deps{
				Config:      a.cfg,
				Tasks:       a.tasks,
				Settings:    a.settings,
				Auth:        auth,
				Events:      events,
				Transcriber: a.openai,
				KeyChecker:  a.openai,
				Ollama:      ollama,
				Voice:       caps,
				Log:         a.log,
			})

			if port == "" {
				port = a.cfg.Port
			}
			return h.Start(ctx, ":"+port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PORT or 8080)")
	return cmd
}
