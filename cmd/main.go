package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kdduha/image-captioner/internal/config"
	"github.com/kdduha/image-captioner/internal/handler"
	"github.com/kdduha/image-captioner/internal/logger"
	"github.com/kdduha/image-captioner/internal/metrics"
	"github.com/kdduha/image-captioner/internal/provider"
	"github.com/kdduha/image-captioner/internal/service"
	"github.com/kdduha/image-captioner/internal/tracing"
	"github.com/kdduha/image-captioner/internal/upload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	_ "github.com/joho/godotenv/autoload"
	_ "github.com/kdduha/image-captioner/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Image Captioning API
// @version 1.0
// @description Upload an image and get five numbered captions from a multimodal model.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, lg)
	if err != nil {
		lg.Error("tracing init failed, continuing without export", zap.Error(err))
	}

	httpClient := &http.Client{}
	if cfg.Tracing.Enable {
		httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	captioner, err := provider.New(ctx, cfg, httpClient)
	if err != nil {
		lg.Fatal("failed to create caption provider", zap.Error(err))
	}
	if cfg.APIKey() == "" {
		lg.Warn("API key is missing, caption requests will fail", zap.String("provider", captioner.Name()))
	}

	stager := upload.NewStager(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err := stager.EnsureDir(); err != nil {
		lg.Fatal("failed to prepare upload directory", zap.String("dir", stager.Dir()), zap.Error(err))
	}

	captionService := service.NewCaptionService(lg, captioner)
	h := handler.NewCaptionHandler(lg, stager, captionService, cfg.Caption.Output == config.OutputJSON)

	var root http.Handler = newRouter(lg, h, handler.Health(captioner.Name(), cfg.APIKey() != ""))
	if cfg.Tracing.Enable {
		root = otelhttp.NewHandler(root, "http.server")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           root,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		lg.Info("server started",
			zap.String("addr", fmt.Sprintf("http://localhost:%s", cfg.Server.Port)),
			zap.String("provider", captioner.Name()),
			zap.String("upload_dir", stager.Dir()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Error("tracing shutdown failed", zap.Error(err))
	}
	lg.Info("server stopped")
}

func newRouter(lg *zap.Logger, h *handler.CaptionHandler, health http.HandlerFunc) chi.Router {
	r := chi.NewRouter()
	r.Use([]func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		handler.RequestLogger(lg),
		middleware.Recoverer,
		metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		}),
	}...)

	r.Get("/", handler.Welcome)
	r.Post("/caption-image", h.Caption)
	r.Get("/health", health)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Handle("/metrics", promhttp.Handler())
	return r
}
