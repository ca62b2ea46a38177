package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	settingsdomain "github.com/Yukaii/vibers-goal/internal/settings/domain"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/spf13/cobra"
)

const transcribeTimeout = 2 * time.Minute

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change user settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show settings (the API key is masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.settings.Settings()
			key := s.MaskedAPIKey()
			if key == "" {
				key = "(not set)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "openai api key:  %s\nvoice provider:  %s\n", key, s.VoiceInputProvider)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <key>",
		Short: "Store the OpenAI API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			key := strings.TrimSpace(args[0])
			if key == "" {
				a.settings.SetOpenAIAPIKey(nil)
			} else {
				a.settings.SetOpenAIAPIKey(&key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key saved (%s)\n", a.settings.Settings().MaskedAPIKey())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored OpenAI API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			a.settings.SetOpenAIAPIKey(nil)
			fmt.Fprintln(cmd.OutOrStdout(), "API key cleared")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set-voice <auto|openai|webspeech>",
		Short:     "Choose how dictation is transcribed",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"auto", "openai", "webspeech"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := settingsdomain.ParseVoiceInputProvider(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			a.settings.SetVoiceInputProvider(p)
			fmt.Fprintf(cmd.OutOrStdout(), "Voice provider set to %s\n", p)
			return nil
		},
	})

	return cmd
}

func newTranscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file with the stored OpenAI key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), logQuiet)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), transcribeTimeout)
			defer cancel()
			text, err := a.openai.Transcribe(ctx, audio, filepath.Base(args[0]), a.apiKey())
			if err != nil {
				return fmt.Errorf("transcription failed: %s", ai.ReasonFromError(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
