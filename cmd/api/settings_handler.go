package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	settingsdomain "github.com/Yukaii/vibers-goal/internal/settings/domain"
	settingsstore "github.com/Yukaii/vibers-goal/internal/settings/store"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/gin-gonic/gin"
)

const checkTimeout = 15 * time.Second

// KeyChecker validates an OpenAI key against the API.
type KeyChecker interface {
	CheckKey(ctx context.Context, apiKey string) error
}

// Pinger checks that a local model server answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type SettingsHandler struct {
	store  *settingsstore.Store
	keys   KeyChecker
	ollama Pinger
}

// NewSettingsHandler creates a SettingsHandler. keys and ollama may be nil,
// in which case their test endpoints answer 503.
func NewSettingsHandler(store *settingsstore.Store, keys KeyChecker, ollama Pinger) *SettingsHandler {
	return &SettingsHandler{store: store, keys: keys, ollama: ollama}
}

func (h *SettingsHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("", h.GetSettings)
	g.PUT("/openai-key", h.SetOpenAIKey)
	g.DELETE("/openai-key", h.ClearOpenAIKey)
	g.POST("/openai-key/test", h.TestOpenAIKey)
	g.PUT("/voice-provider", h.SetVoiceProvider)
	g.POST("/ollama/test", h.TestOllamaConnection)
}

type SettingsResponse struct {
	OpenAIAPIKey       string                            `json:"openai_api_key"`
	HasAPIKey          bool                              `json:"has_api_key"`
	VoiceInputProvider settingsdomain.VoiceInputProvider `json:"voice_input_provider"`
}

type SetOpenAIKeyRequest struct {
	Key string `json:"key"`
}

type SetVoiceProviderRequest struct {
	Provider string `json:"provider" binding:"required"`
}

type TestOpenAIKeyRequest struct {
	// Key is tested instead of the stored one when set
	Key string `json:"key"`
}

func (h *SettingsHandler) response() SettingsResponse {
	s := h.store.Settings()
	return SettingsResponse{
		OpenAIAPIKey:       s.MaskedAPIKey(),
		HasAPIKey:          s.HasAPIKey(),
		VoiceInputProvider: s.VoiceInputProvider,
	}
}

// GetSettings returns the settings with the key masked
// GET /api/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.response())
}

// SetOpenAIKey stores the key; a blank key clears it
// PUT /api/settings/openai-key
func (h *SettingsHandler) SetOpenAIKey(c *gin.Context) {
	var req SetOpenAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		h.store.SetOpenAIAPIKey(nil)
	} else {
		h.store.SetOpenAIAPIKey(&key)
	}
	c.JSON(http.StatusOK, h.response())
}

// DELETE /api/settings/openai-key
func (h *SettingsHandler) ClearOpenAIKey(c *gin.Context) {
	h.store.SetOpenAIAPIKey(nil)
	c.JSON(http.StatusOK, h.response())
}

// SetVoiceProvider
// PUT /api/settings/voice-provider
func (h *SettingsHandler) SetVoiceProvider(c *gin.Context) {
	var req SetVoiceProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := settingsdomain.ParseVoiceInputProvider(req.Provider)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.store.SetVoiceInputProvider(p)
	c.JSON(http.StatusOK, h.response())
}

// TestOpenAIKey checks the given or stored key against the OpenAI API
// POST /api/settings/openai-key/test
func (h *SettingsHandler) TestOpenAIKey(c *gin.Context) {
	if h.keys == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"valid": false, "error": "OpenAI provider not configured"})
		return
	}

	var req TestOpenAIKeyRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)
	key := strings.TrimSpace(req.Key)
	if key == "" {
		key = h.store.Settings().APIKey()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()
	if err := h.keys.CheckKey(ctx, key); err != nil {
		status := http.StatusOK
		if errors.Is(err, ai.ErrAPIKeyMissing) {
			status = http.StatusPreconditionFailed
		}
		c.JSON(status, gin.H{"valid": false, "error": ai.ReasonFromError(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// TestOllamaConnection tests connection to the configured Ollama server
// POST /api/settings/ollama/test
func (h *SettingsHandler) TestOllamaConnection(c *gin.Context) {
	if h.ollama == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"connected": false, "error": "Ollama provider not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()
	if err := h.ollama.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true})
}
