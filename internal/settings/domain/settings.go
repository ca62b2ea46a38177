package domain

import "fmt"

// VoiceInputProvider selects how dictation is turned into text.
type VoiceInputProvider string

const (
	VoiceProviderAuto      VoiceInputProvider = "auto"
	VoiceProviderOpenAI    VoiceInputProvider = "openai"
	VoiceProviderWebSpeech VoiceInputProvider = "webspeech"
)

func ParseVoiceInputProvider(s string) (VoiceInputProvider, error) {
	switch p := VoiceInputProvider(s); p {
	case VoiceProviderAuto, VoiceProviderOpenAI, VoiceProviderWebSpeech:
		return p, nil
	}
	return "", fmt.Errorf("unknown voice input provider %q", s)
}

type Settings struct {
	OpenAIAPIKey       *string            `json:"openaiApiKey"`
	VoiceInputProvider VoiceInputProvider `json:"voiceInputProvider"`
}

func Default() Settings {
	return Settings{VoiceInputProvider: VoiceProviderAuto}
}

func (s Settings) HasAPIKey() bool {
	return s.OpenAIAPIKey != nil && *s.OpenAIAPIKey != ""
}

func (s Settings) APIKey() string {
	if s.OpenAIAPIKey == nil {
		return ""
	}
	return *s.OpenAIAPIKey
}

// MaskedAPIKey shows only the last four characters.
func (s Settings) MaskedAPIKey() string {
	key := s.APIKey()
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
