package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/opendota-tools/internal/opendota"
	"github.com/radieske/opendota-tools/internal/shared/config"
	"github.com/radieske/opendota-tools/internal/shared/logger"
	"github.com/radieske/opendota-tools/internal/shared/metrics"
	httpapi "github.com/radieske/opendota-tools/internal/ward-service/http"
)

func main() {
	// carrega config
	cfg := config.Load("ward-service")

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	requests := httpapi.NewRequestCounter()
	prometheus.MustRegister(requests)

	// sobe servidor de métricas e health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
	log.Info("metrics/health server started", zap.String("addr", msrv.Addr))

	api := &httpapi.API{
		Log:      log,
		OpenDota: opendota.New(cfg.OpenDotaBaseURL, cfg.OpenDotaUserAgent, opendota.WithTimeout(cfg.HTTPTimeout)),
		Requests: requests,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("ward-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	_ = msrv.Shutdown(sctx)
}
