package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/danielhkuo/pollgate/captcha"
	"github.com/danielhkuo/pollgate/challenge"
	"github.com/danielhkuo/pollgate/cliparse"
	"github.com/danielhkuo/pollgate/db"
	"github.com/danielhkuo/pollgate/display"
	"github.com/danielhkuo/pollgate/ledger"
	"github.com/danielhkuo/pollgate/logging"
	"github.com/danielhkuo/pollgate/metrics"
	"github.com/danielhkuo/pollgate/middleware"
	"github.com/danielhkuo/pollgate/notify"
	"github.com/danielhkuo/pollgate/polls"
	"github.com/danielhkuo/pollgate/router"
	"github.com/danielhkuo/pollgate/session"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing flags:", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg cliparse.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.CreateSchema(ctx, conn, dialect); err != nil {
		return err
	}
	logger.Info("database schema ready", zap.String("dialect", string(dialect)))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := captcha.DefaultOptions()
	opts.Watermark = cfg.Watermark
	synth, err := captcha.NewSynthesizer(opts)
	if err != nil {
		return err
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return err
		}
		defer rs.Close()
		sessions = rs
		logger.Info("challenge sessions in redis")
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kn.Close()
		notifiers = append(notifiers, kn)
		logger.Info("publishing votes to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	pollStore := polls.NewStore(conn, dialect)
	voteLedger := ledger.New(conn, dialect, logger, m)
	mailbox := display.NewMailbox()

	controller := challenge.New(challenge.Deps{
		Polls:    pollStore,
		Ledger:   voteLedger,
		Puzzles:  captcha.NewPool(synth, cfg.CaptchaWorkers, m),
		Sessions: sessions,
		Display:  mailbox,
		Notifier: notifiers,
		Logger:   logger,
		Metrics:  m,
	}, cfg.CaptchaRounds)

	mux := router.NewRouter(router.Deps{
		Config:     cfg,
		Polls:      pollStore,
		Ledger:     voteLedger,
		Controller: controller,
		Mailbox:    mailbox,
		Gatherer:   reg,
		Logger:     logger,
	})

	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.Int("port", cfg.Port),
			zap.Int("rounds", controller.Rounds()),
			zap.Int("workers", cfg.CaptchaWorkers),
		)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
