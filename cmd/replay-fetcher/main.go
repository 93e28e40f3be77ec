package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/opendota-tools/internal/opendota"
	"github.com/radieske/opendota-tools/internal/replays"
	"github.com/radieske/opendota-tools/internal/shared/config"
	"github.com/radieske/opendota-tools/internal/shared/logger"
	"github.com/radieske/opendota-tools/internal/shared/metrics"
	"github.com/radieske/opendota-tools/internal/sink"
	"github.com/radieske/opendota-tools/pkg/contracts/events"
)

// Métricas Prometheus de resolução e download
var (
	lookups   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "replay_fetcher_lookups_total", Help: "consultas de replay_url por resultado"}, []string{"result"})
	downloads = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "replay_fetcher_downloads_total", Help: "downloads por resultado"}, []string{"result"})
	bytesIn   = prometheus.NewCounter(prometheus.CounterOpts{Name: "replay_fetcher_downloaded_bytes_total", Help: "bytes gravados em disco"})
)

// buildSinks é trocado nos testes por publishers em memória
var buildSinks = sink.Build

func main() {
	cfg := config.Load("replay-fetcher")
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}

	prometheus.MustRegister(lookups, downloads, bytesIn)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, log, os.Args[1:], os.Stdout, os.Stderr)
	cancel()

	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		log.Warn("metrics textfile", zap.Error(err))
	}
	_ = log.Sync()
	os.Exit(code)
}

type options struct {
	matchID    int64
	proMatches int
	download   bool
	outDir     string
	delay      float64
}

func parseFlags(args []string, stderr io.Writer) (*flag.FlagSet, options, error) {
	var o options
	fs := flag.NewFlagSet("replay-fetcher", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Int64Var(&o.matchID, "match-id", 0, "single match_id")
	fs.IntVar(&o.proMatches, "pro-matches", 0, "resolve the N most recent pro matches (0 disables)")
	fs.BoolVar(&o.download, "download", false, "download replays to --out-dir")
	fs.StringVar(&o.outDir, "out-dir", "./replays", "download directory")
	fs.Float64Var(&o.delay, "delay", 1.0, "seconds to wait before each request, avoids rate limiting")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), `Usage: replay-fetcher (--match-id ID | --pro-matches N) [--download] [--out-dir DIR] [--delay SEC]

Resolves replay_url through OpenDota and optionally downloads the replays.
Valve keeps replays for roughly 7-14 days, download early.

Examples:
  replay-fetcher --match-id 789654321
  replay-fetcher --pro-matches 50 --download --out-dir ./replays
  replay-fetcher --pro-matches 20

Flags:`)
		fs.PrintDefaults()
	}
	err := fs.Parse(args)
	return fs, o, err
}

// run executa resolução e download e devolve o exit code
func run(ctx context.Context, cfg config.Config, log *zap.Logger, args []string, stdout, stderr io.Writer) int {
	fs, opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	sel := replays.Selection{MatchID: opts.matchID, ProMatches: opts.proMatches}
	if err := sel.Validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n\n", err)
		fs.Usage()
		return 1
	}

	if cfg.MetricsPort != "" {
		srv := metrics.StartMetricsServer(cfg.MetricsPort, nil)
		defer srv.Close()
	}

	delay := time.Duration(opts.delay * float64(time.Second))
	if delay < 0 {
		delay = 0
	}

	api := opendota.New(cfg.OpenDotaBaseURL, cfg.OpenDotaUserAgent, opendota.WithTimeout(cfg.HTTPTimeout))

	var pubs sink.Multi
	if len(cfg.Sinks) > 0 {
		pubs = buildSinks(ctx, cfg, sink.Target{Topic: cfg.TopicReplayResolved, Channel: cfg.ChannelReplayResolved}, log)
		defer pubs.Close()
	}

	resolver := &replays.Resolver{
		API:     api,
		Log:     log,
		Out:     stdout,
		Delay:   delay,
		WithIDs: opts.download,
		OnResolved: func(ref replays.Ref) {
			lookups.WithLabelValues("resolved").Inc()
			if len(pubs) == 0 {
				return
			}
			ev := events.ReplayResolved{MatchID: ref.MatchID, ReplayURL: ref.URL, ResolvedAt: time.Now().UTC()}
			if err := sink.PublishJSON(ctx, pubs, strconv.FormatInt(ref.MatchID, 10), ev); err != nil {
				log.Warn("publish replay failed", zap.Int64("match_id", ref.MatchID), zap.Error(err))
			}
		},
		OnMissing: func(int64) { lookups.WithLabelValues("missing").Inc() },
		OnError:   func(stage string) { lookups.WithLabelValues("error_" + stage).Inc() },
	}

	ids, err := resolver.MatchIDs(ctx, sel)
	if err != nil {
		log.Error("match list unavailable", zap.Error(err))
		return 1
	}

	refs := resolver.Resolve(ctx, ids)
	log.Info("replay urls resolved", zap.Int("requested", len(ids)), zap.Int("resolved", len(refs)))

	if !opts.download || len(refs) == 0 {
		return 0
	}

	dl := &replays.Downloader{
		API:       api,
		Log:       log,
		Dir:       opts.outDir,
		Delay:     delay,
		OnSaved:   func(n int64) { downloads.WithLabelValues("saved").Inc(); bytesIn.Add(float64(n)) },
		OnSkipped: func() { downloads.WithLabelValues("skipped").Inc() },
		OnFailed:  func() { downloads.WithLabelValues("failed").Inc() },
	}
	saved := dl.DownloadAll(ctx, refs)
	log.Info("downloads finished", zap.Int("available", saved), zap.Int("total", len(refs)), zap.String("dir", opts.outDir))
	return 0
}
