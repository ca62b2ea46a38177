package api

import (
	"net/http"
	"time"

	"github.com/Yukaii/vibers-goal/internal/auth/delivery"
	authUsecase "github.com/Yukaii/vibers-goal/internal/auth/usecase"
	taskDelivery "github.com/Yukaii/vibers-goal/internal/task/delivery"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// SetupRoutes mounts every route. When authUsecase is nil the API is open.
func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, taskHandler *taskDelivery.TaskHandler, settingsHandler *SettingsHandler, voiceHandler *VoiceHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "auth": authUsecase != nil})
		})

		protected := api.Group("")
		if authUsecase != nil {
			authHandler := delivery.NewAuthHandler(authUsecase)
			api.POST("/auth/login", authHandler.Login)
			protected.Use(delivery.AuthMiddleware(authUsecase))
		}

		taskHandler.RegisterRoutes(protected.Group("/tasks"))
		settingsHandler.RegisterRoutes(protected.Group("/settings"))
		voiceHandler.RegisterRoutes(protected.Group("/voice"))
	}
}

// CORS reflects the caller's origin so the web client can send credentials
// from any host it is served from.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "Cache-Control", "X-Requested-With", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(requestIDHeader, id)

		c.Next()

		fields := []interface{}{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case len(c.Errors) > 0:
			log.Errorw("request failed", append(fields, "error", c.Errors.String())...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Warnw("request", fields...)
		default:
			log.Infow("request", fields...)
		}
	}
}
