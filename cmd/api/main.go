package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/app"
	"github.com/imrishuroy/go-checkout-orderflow/internal/config"
	"github.com/imrishuroy/go-checkout-orderflow/internal/handlers"
	"github.com/imrishuroy/go-checkout-orderflow/internal/logger"
)

func setupRouter(cfg handlers.HandlerConfig, l *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logger.RequestID(), logger.RequestLogger(l), gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrdersRoutes(r, cfg)
	handlers.RegisterPaymentsRoutes(r, cfg)
	handlers.RegisterCartRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	l, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	a, err := app.Build(context.Background(), cfg, l)
	if err != nil {
		l.Fatal("failed to build app", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	r := setupRouter(a.HandlerConfig(), l)

	// RUN_LOCAL=true serves plain HTTP for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		l.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			l.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
