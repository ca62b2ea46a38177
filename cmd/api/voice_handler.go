package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	settingsstore "github.com/Yukaii/vibers-goal/internal/settings/store"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/gin-gonic/gin"
)

// maxAudioBytes matches the transcription API upload limit.
const maxAudioBytes = 25 << 20

const transcribeTimeout = 2 * time.Minute

type VoiceHandler struct {
	settings    *settingsstore.Store
	transcriber ai.Transcriber
	caps        voice.Capabilities
}

// NewVoiceHandler creates a VoiceHandler. caps describes the server host and
// is used when a client asks which capture path applies.
func NewVoiceHandler(settings *settingsstore.Store, transcriber ai.Transcriber, caps voice.Capabilities) *VoiceHandler {
	return &VoiceHandler{settings: settings, transcriber: transcriber, caps: caps}
}

func (h *VoiceHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/transcribe", h.Transcribe)
	g.GET("/provider", h.GetProvider)
}

// Transcribe sends the uploaded recording to the transcription service
// POST /api/voice/transcribe (multipart field "audio")
func (h *VoiceHandler) Transcribe(c *gin.Context) {
	if h.transcriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription not configured"})
		return
	}

	key := h.settings.Settings().APIKey()
	if key == "" {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": ai.ErrAPIKeyMissing.Error()})
		return
	}

	header, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	if header.Size > maxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(audio) == 0 {
		c.JSON(http.StatusOK, gin.H{"text": ""})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), transcribeTimeout)
	defer cancel()
	text, err := h.transcriber.Transcribe(ctx, audio, header.Filename, key)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ai.ErrAPIKeyMissing) {
			status = http.StatusPreconditionFailed
		}
		c.JSON(status, gin.H{"error": "transcription failed: " + ai.ReasonFromError(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// GetProvider reports which capture path the current settings resolve to
// GET /api/voice/provider
func (h *VoiceHandler) GetProvider(c *gin.Context) {
	s := h.settings.Settings()
	provider, err := voice.Resolve(s.VoiceInputProvider, s.HasAPIKey(), h.caps)

	resp := gin.H{
		"preference":   s.VoiceInputProvider,
		"capabilities": h.caps,
		"available":    err == nil,
	}
	if err != nil {
		resp["provider"] = nil
		resp["error"] = err.Error()
	} else {
		resp["provider"] = provider
	}
	c.JSON(http.StatusOK, resp)
}
