package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/sparlo/reportd/internal/chat"
	"github.com/sparlo/reportd/internal/config"
	"github.com/sparlo/reportd/internal/httpapi"
	"github.com/sparlo/reportd/internal/logger"
	"github.com/sparlo/reportd/internal/pdf"
	"github.com/sparlo/reportd/internal/share"
	"github.com/sparlo/reportd/internal/store"
	"github.com/sparlo/reportd/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	applog, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	shutdownTraces, err := telemetry.Init(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		applog.WithError(err).Warn("trace export disabled")
		shutdownTraces = func(context.Context) error { return nil }
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		applog.WithError(err).Fatal("open store")
	}
	defer st.Close()

	shares := share.NewService(st, cfg.BaseURL, share.RateLimits{
		PerHour: cfg.Share.PerHour,
		PerDay:  cfg.Share.PerDay,
	}, applog)

	var chatSvc httpapi.ChatService
	if svc, err := chat.NewServiceFromEnv(); err != nil {
		applog.WithError(err).Warn("chat endpoint disabled")
	} else {
		chatSvc = svc
	}

	handler := httpapi.NewServer(httpapi.Config{
		Store:             st,
		Shares:            shares,
		Chat:              chatSvc,
		PDFRenderer:       pdf.NewChromiumRenderer(cfg.ChromePath),
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Log:               applog,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
		_ = shutdownTraces(shutdownCtx)
	}()

	applog.WithField("addr", cfg.ListenAddr).Info("reportd listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		applog.WithError(err).Fatal("server stopped")
	}
}
