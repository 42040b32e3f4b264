package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/bootstrap"
	"supportdesk/internal/transport/http/handler"
	"supportdesk/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = app.Config.MaxUploadBytes()

	healthHandler := handler.NewHealthHandler(handler.HealthInfo{
		App:       app.Config.App.Name,
		Env:       app.Config.App.Env,
		StartedAt: app.StartedAt,
		LLMKeySet: app.Config.LLM.APIKey != "",
	}, healthProbes(app)...)
	router.GET("/healthz", healthHandler.Check)
	RegisterUploads(router, app.Uploads.PublicPrefix(), app.Uploads.Dir())

	RegisterAPI(
		router,
		handler.NewChatHandler(app.ChatService, app.Config.MaxUploadBytes()),
		handler.NewDocumentHandler(app.DocumentService, app.Config.MaxUploadBytes()),
		app.Config.Auth.AdminKey,
	)
	return router
}

// RegisterAPI mounts the chat and admin routes under /api.
func RegisterAPI(router gin.IRouter, chatHandler *handler.ChatHandler, documentHandler *handler.DocumentHandler, adminKey string) {
	api := router.Group("/api")
	api.POST("/chat", chatHandler.SendMessage)
	api.GET("/history/:sessionId", chatHandler.GetHistory)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(adminKey))
	admin.POST("/upload", documentHandler.Upload)
	admin.GET("/docs", documentHandler.List)
}

// RegisterUploads serves stored uploads as downloads only.
func RegisterUploads(router gin.IRouter, prefix, dir string) {
	router.Group(prefix, middleware.DownloadOnly()).Static("/", dir)
}

func healthProbes(app *bootstrap.App) []handler.Probe {
	probes := []handler.Probe{{
		Name: "mysql",
		Check: func(ctx context.Context) error {
			sqlDB, err := app.MySQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	redisProbe := handler.Probe{Name: "redis"}
	if app.Redis != nil {
		redisProbe.Check = func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}
	}

	mqProbe := handler.Probe{Name: "rabbitmq"}
	if app.MQConn != nil {
		mqProbe.Check = func(context.Context) error {
			if app.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	return append(probes, redisProbe, mqProbe)
}
