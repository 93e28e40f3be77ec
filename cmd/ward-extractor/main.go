package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/opendota-tools/internal/opendota"
	"github.com/radieske/opendota-tools/internal/shared/config"
	"github.com/radieske/opendota-tools/internal/shared/logger"
	"github.com/radieske/opendota-tools/internal/shared/metrics"
	"github.com/radieske/opendota-tools/internal/sink"
	"github.com/radieske/opendota-tools/internal/wards"
)

const usage = `Usage: ward-extractor <match_id>

Fetches a match from OpenDota and prints its observer/sentry placements as a
compact JSON array on stdout, ready for the heatmap tool:

  ward-extractor 8678990124 > wards.json

The match must already be parsed by OpenDota, otherwise obs_log/sen_log are empty.`

// Métricas Prometheus da extração
var (
	wardsExtracted = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ward_extractor_wards_total", Help: "wards extraídas por tipo"}, []string{"ward_type"})
	fetchErrors    = prometheus.NewCounter(prometheus.CounterOpts{Name: "ward_extractor_fetch_errors_total", Help: "falhas ao buscar a partida"})
)

// buildSinks é trocado nos testes por publishers em memória
var buildSinks = sink.Build

func main() {
	cfg := config.Load("ward-extractor")
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}

	prometheus.MustRegister(wardsExtracted, fetchErrors)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, log, os.Args[1:], os.Stdout, os.Stderr)
	cancel()

	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		log.Warn("metrics textfile", zap.Error(err))
	}
	_ = log.Sync()
	os.Exit(code)
}

// run executa a extração e devolve o exit code
func run(ctx context.Context, cfg config.Config, log *zap.Logger, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	matchID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "match_id must be an integer, got %q\n\n%s\n", args[0], usage)
		return 1
	}

	if cfg.MetricsPort != "" {
		srv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
		defer srv.Close()
	}

	api := opendota.New(cfg.OpenDotaBaseURL, cfg.OpenDotaUserAgent, opendota.WithTimeout(cfg.HTTPTimeout))

	match, err := api.GetMatch(ctx, matchID)
	if err != nil {
		fetchErrors.Inc()
		log.Error("fetch opendota match failed", zap.Int64("match_id", matchID), zap.Error(err))
		return 1
	}

	records := wards.Extract(matchID, match)
	if err := wards.WriteJSON(stdout, records); err != nil {
		log.Error("write wards failed", zap.Error(err))
		return 1
	}
	for _, r := range records {
		wardsExtracted.WithLabelValues(r.WardType).Inc()
	}
	log.Info("wards extracted", zap.Int("count", len(records)), zap.Int64("match_id", matchID))

	publish(ctx, cfg, log, matchID, records)
	return 0
}

// publish entrega o lote aos sinks opcionais; falhas aqui não mudam o exit code
func publish(ctx context.Context, cfg config.Config, log *zap.Logger, matchID int64, v any) {
	if len(cfg.Sinks) == 0 {
		return
	}
	pubs := buildSinks(ctx, cfg, sink.Target{Topic: cfg.TopicWardEvents, Channel: cfg.ChannelWardEvents}, log)
	defer pubs.Close()

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sink.PublishJSON(pctx, pubs, strconv.FormatInt(matchID, 10), v); err != nil {
		log.Warn("publish wards failed", zap.Error(err))
	}
}
