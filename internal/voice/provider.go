// Package voice captures a spoken utterance and turns it into text, either by
// recording audio for remote transcription or through a local speech
// recognizer.
package voice

import (
	"errors"

	settings "github.com/Yukaii/vibers-goal/internal/settings/domain"
	"github.com/Yukaii/vibers-goal/pkg/ai"
)

// Provider is the resolved capture path.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderWebSpeech Provider = "webspeech"
)

var ErrNoVoiceInput = errors.New("no voice input method available: configure an OpenAI API key or a speech recognizer")

// Capabilities describes what the host can do. Microphone access is not
// listed: it is only known once the recorder is opened.
type Capabilities struct {
	SpeechRecognition bool `json:"speechRecognition"`
}

// Resolve picks the capture path from the user's preference.
func Resolve(pref settings.VoiceInputProvider, hasKey bool, caps Capabilities) (Provider, error) {
	switch pref {
	case settings.VoiceProviderOpenAI:
		if !hasKey {
			return "", ai.ErrAPIKeyMissing
		}
		return ProviderOpenAI, nil
	case settings.VoiceProviderWebSpeech:
		if !caps.SpeechRecognition {
			return "", ErrNoVoiceInput
		}
		return ProviderWebSpeech, nil
	default:
		if hasKey {
			return ProviderOpenAI, nil
		}
		if caps.SpeechRecognition {
			return ProviderWebSpeech, nil
		}
		return "", ErrNoVoiceInput
	}
}
