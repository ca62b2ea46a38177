package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authdto "github.com/Yukaii/vibers-goal/internal/auth/dto"
	authUsecase "github.com/Yukaii/vibers-goal/internal/auth/usecase"
	settingsrepo "github.com/Yukaii/vibers-goal/internal/settings/repository"
	settingsstore "github.com/Yukaii/vibers-goal/internal/settings/store"
	taskrepo "github.com/Yukaii/vibers-goal/internal/task/repository"
	taskstore "github.com/Yukaii/vibers-goal/internal/task/store"
	taskUsecase "github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/internal/voice"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/Yukaii/vibers-goal/pkg/config"
	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/Yukaii/vibers-goal/pkg/snapshot"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	gotAudio []byte
	gotKey   string
	gotName  string
	text     string
	err      error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, filename, apiKey string) (string, error) {
	f.gotAudio, f.gotName, f.gotKey = audio, filename, apiKey
	return f.text, f.err
}

type fakeChecker struct{ err error }

func (f fakeChecker) CheckKey(_ context.Context, key string) error {
	if key == "" {
		return ai.ErrAPIKeyMissing
	}
	return f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	backend := snapshot.NewMemoryBackend()

	tasks := taskUsecase.NewTaskUsecase(taskstore.New(ctx, taskrepo.NewSnapshotTaskRepository(backend), logger.Nop()), logger.Nop())
	settings := settingsstore.New(ctx, settingsrepo.NewSnapshotSettingsRepository(backend), logger.Nop())

	return Deps{
		Config:   &config.Config{Environment: "test"},
		Tasks:    tasks,
		Settings: settings,
		Log:      logger.Nop(),
	}
}

func send(r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndRequestID(t *testing.T) {
	r := NewHandler(newTestDeps(t)).Router()

	w := send(r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","auth":false}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = send(r, http.MethodGet, "/api/health", nil, requestIDHeader, "abc")
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r := NewHandler(newTestDeps(t)).Router()

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOpenWithoutAuth(t *testing.T) {
	r := NewHandler(newTestDeps(t)).Router()

	w := send(r, http.MethodPost, "/api/tasks", gin.H{"title": "Buy milk"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = send(r, http.MethodPost, "/api/auth/login", gin.H{"password": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	d := newTestDeps(t)
	hash, err := authUsecase.HashPassword("open sesame")
	require.NoError(t, err)
	d.Auth = authUsecase.NewAuthUsecase(hash, "secret", time.Hour)
	r := NewHandler(d).Router()

	w := send(r, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = send(r, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodPost, "/api/auth/login", gin.H{"password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodPost, "/api/auth/login", gin.H{"password": "open sesame"})
	require.Equal(t, http.StatusOK, w.Code)
	var token authdto.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))

	w = send(r, http.MethodGet, "/api/tasks", nil, "Authorization", "Bearer "+token.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	w = send(r, http.MethodGet, "/api/tasks?access_token="+token.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSettingsRoutes(t *testing.T) {
	d := newTestDeps(t)
	d.KeyChecker = fakeChecker{}
	d.Ollama = fakePinger{err: errors.New("connection refused")}
	r := NewHandler(d).Router()

	w := send(r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"openai_api_key":"","has_api_key":false,"voice_input_provider":"auto"}`, w.Body.String())

	w = send(r, http.MethodPost, "/api/settings/openai-key/test", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = send(r, http.MethodPut, "/api/settings/openai-key", gin.H{"key": "  sk-test-1234  "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"openai_api_key":"****1234","has_api_key":true,"voice_input_provider":"auto"}`, w.Body.String())
	assert.Equal(t, "sk-test-1234", d.Settings.Settings().APIKey())

	w = send(r, http.MethodPost, "/api/settings/openai-key/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())

	w = send(r, http.MethodPut, "/api/settings/voice-provider", gin.H{"provider": "webspeech"})
	require.Equal(t, http.StatusOK, w.Code)
	w = send(r, http.MethodPut, "/api/settings/voice-provider", gin.H{"provider": "siri"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPut, "/api/settings/openai-key", gin.H{"key": "   "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"openai_api_key":"","has_api_key":false,"voice_input_provider":"webspeech"}`, w.Body.String())
	assert.Nil(t, d.Settings.Settings().OpenAIAPIKey)

	w = send(r, http.MethodPost, "/api/settings/ollama/test", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSettingsRoutes_InvalidKey(t *testing.T) {
	d := newTestDeps(t)
	d.KeyChecker = fakeChecker{err: &ai.APIError{Provider: "openai", StatusCode: 401, Body: `{"error":{"message":"Incorrect API key provided"}}`}}
	r := NewHandler(d).Router()

	w := send(r, http.MethodPost, "/api/settings/openai-key/test", gin.H{"key": "sk-bad"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false,"error":"Incorrect API key provided"}`, w.Body.String())
}

func upload(r http.Handler, audio []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if audio != nil {
		fw, _ := mw.CreateFormFile("audio", "clip.webm")
		fw.Write(audio)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/voice/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTranscribe(t *testing.T) {
	d := newTestDeps(t)
	tr := &fakeTranscriber{text: "buy milk"}
	d.Transcriber = tr
	r := NewHandler(d).Router()

	w := upload(r, []byte("RIFF"))
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	key := "sk-abc"
	d.Settings.SetOpenAIAPIKey(&key)

	w = upload(r, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(r, []byte("RIFF"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text":"buy milk"}`, w.Body.String())
	assert.Equal(t, []byte("RIFF"), tr.gotAudio)
	assert.Equal(t, "clip.webm", tr.gotName)
	assert.Equal(t, "sk-abc", tr.gotKey)

	tr.err = &ai.APIError{Provider: "openai", StatusCode: 400, Body: `{"error":{"message":"Audio file is too short"}}`}
	w = upload(r, []byte("RIFF"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"transcription failed: Audio file is too short"}`, w.Body.String())
}

func TestVoiceProvider(t *testing.T) {
	d := newTestDeps(t)
	r := NewHandler(d).Router()

	w := send(r, http.MethodGet, "/api/voice/provider", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Provider  *string `json:"provider"`
		Available bool    `json:"available"`
		Error     string  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.Nil(t, resp.Provider)
	assert.Equal(t, voice.ErrNoVoiceInput.Error(), resp.Error)

	key := "sk-abc"
	d.Settings.SetOpenAIAPIKey(&key)
	w = send(r, http.MethodGet, "/api/voice/provider", nil)
	resp.Provider, resp.Error = nil, ""
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
	require.NotNil(t, resp.Provider)
	assert.Equal(t, string(voice.ProviderOpenAI), *resp.Provider)
}

func TestStartShutsDownOnCancel(t *testing.T) {
	h := NewHandler(newTestDeps(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.Start(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
