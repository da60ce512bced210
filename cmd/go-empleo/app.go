package main

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rsilvagit/go-empleo/internal/apply"
	"github.com/rsilvagit/go-empleo/internal/auth"
	"github.com/rsilvagit/go-empleo/internal/config"
	"github.com/rsilvagit/go-empleo/internal/filter"
	"github.com/rsilvagit/go-empleo/internal/gateway"
	"github.com/rsilvagit/go-empleo/internal/httpclient"
	"github.com/rsilvagit/go-empleo/internal/output"
	"github.com/rsilvagit/go-empleo/internal/search"
	"github.com/rsilvagit/go-empleo/internal/session"
	"github.com/rsilvagit/go-empleo/internal/source"
	"github.com/rsilvagit/go-empleo/internal/telemetry"
)

const serviceName = "go-empleo"

// offlineMode marks runs served from the in-memory sample data.
type offlineMode bool

// deps is everything a command may need.
type deps struct {
	fx.In

	Config       *config.Config
	Logger       *zap.Logger
	Session      *session.Session
	Source       source.Source
	Filters      *filter.State
	Orchestrator *search.Orchestrator
	Auth         *auth.Service
	Apply        *apply.Service
	Printer      *output.ConsolePrinter
	Writers      []output.ResultWriter
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogLevel == "debug" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// accountStore keeps the token, profiles and applications between runs.
type accountStore interface {
	session.TokenStore
	apply.Ledger
}

func newAccountStore(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) accountStore {
	store, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionProfile)
	if err != nil {
		logger.Warn("redis unavailable, session kept in memory", zap.Error(err))
		return session.NewMemoryStore()
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return store.Close() },
	})
	return store
}

func newSession(cfg *config.Config, store accountStore, logger *zap.Logger, lc fx.Lifecycle) *session.Session {
	sess := session.New(store, cfg.SessionTTL, logger)
	lc.Append(fx.Hook{
		OnStart: sess.Init,
	})
	return sess
}

func newHTTPClient(cfg *config.Config, sess *session.Session, logger *zap.Logger) (*httpclient.Client, error) {
	return httpclient.New(httpclient.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.APITimeout,
		ProxyURL: cfg.HTTPProxyURL,
		Tokens:   sess,
	}, logger)
}

func newGateway(cfg *config.Config, hc *httpclient.Client, logger *zap.Logger) *gateway.Client {
	return gateway.New(hc, gateway.Options{LookupFallback: cfg.LookupFallback}, logger)
}

func newSource(offline offlineMode, gw *gateway.Client) source.Source {
	if offline {
		return source.NewFixture(source.Sample(120, time.Now()))
	}
	return gw
}

func newOrchestrator(cfg *config.Config, src source.Source, filters *filter.State, logger *zap.Logger) *search.Orchestrator {
	return search.New(src, filters, search.Options{
		PageSize:       cfg.PageSize,
		TopN:           cfg.TopN,
		RequestTimeout: cfg.APITimeout,
	}, logger)
}

func newAuthService(gw *gateway.Client, sess *session.Session, logger *zap.Logger) *auth.Service {
	return auth.NewService(gw, sess, logger)
}

// newApplyService restores the signed-in account's applications once the
// session is up. Its start hook runs after the session's.
func newApplyService(src source.Source, store accountStore, sess *session.Session, logger *zap.Logger, lc fx.Lifecycle) *apply.Service {
	account := func() string {
		if u := sess.User(); u != nil {
			return u.Email
		}
		return ""
	}
	svc := apply.NewService(src, store, account, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := svc.Restore(ctx); err != nil {
				logger.Warn("failed to restore applications", zap.Error(err))
			}
			return nil
		},
	})
	return svc
}

// newWriters returns the extra destinations configured for results.
func newWriters(cfg *config.Config) []output.ResultWriter {
	var writers []output.ResultWriter
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		writers = append(writers, output.NewTelegramWriter(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		writers = append(writers, output.NewDiscordWriter(cfg.DiscordWebhookURL))
	}
	return writers
}

func registerTracer(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, serviceName, cfg.OTELCollectorURL)
			if err != nil {
				logger.Warn("tracing disabled", zap.Error(err))
				shutdown = nil
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

// newApp assembles the application. Commands run between Start and Stop.
func newApp(offline bool, target *deps) *fx.App {
	return fx.New(
		fx.NopLogger,
		fx.Supply(offlineMode(offline)),
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newAccountStore,
			newSession,
			newHTTPClient,
			newGateway,
			newSource,
			filter.NewState,
			newOrchestrator,
			newAuthService,
			newApplyService,
			output.NewConsolePrinter,
			newWriters,
		),
		fx.Invoke(
			registerTracer,
			func(d deps) { *target = d },
		),
	)
}
