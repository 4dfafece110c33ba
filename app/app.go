package app

import (
	"context"
	"fmt"
	"time"

	"mikhailche/lurelog/config"
	"mikhailche/lurelog/handlers"
	lhttp "mikhailche/lurelog/lib/http"
	"mikhailche/lurelog/lib/session"
	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/logger"
	"mikhailche/lurelog/repository/sqlite"
	ydbstore "mikhailche/lurelog/repository/ydb"
	"mikhailche/lurelog/services"

	"github.com/mikhailche/telebot"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	_ services.Store = (*sqlite.Store)(nil)
	_ services.Store = (*ydbstore.Store)(nil)
)

type App struct {
	Config  config.Config
	Log     *zap.Logger
	Store   services.Store
	Words   *services.WordList
	Filter  *services.SensitiveFilter
	Audit   *services.AuditLog
	Auth    *services.AuthService
	Journal *services.JournalService
	Gear    *services.GearService
	Links   *services.ShortLinkService
	Species *services.SpeciesService
	Admin   *services.AdminService
	Handler *handlers.Server
}

// NewLogger builds the process logger. Error-level entries also go to the developer chat when alerts are configured.
func NewLogger(ctx context.Context, cfg config.Config) (*zap.Logger, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("app::NewLogger"))
	defer span.Close()
	log, err := logger.New(ctx, cfg.Log)
	if err != nil {
		return nil, err
	}
	if !cfg.Alerts.Enabled() {
		return log, nil
	}
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.Alerts.TelegramToken,
		Offline: true,
		Client:  lhttp.TracedHttpClient(ctx, 10*time.Second, cfg.Alerts.TelegramToken),
	})
	if err != nil {
		return nil, fmt.Errorf("alert bot: %w", err)
	}
	log.Info("Sending error logs to developer chat", zap.Int64("chat", cfg.Alerts.DeveloperChatID))
	return logger.WithAlerts(log, logger.NewTelegramCore(zapcore.ErrorLevel, bot, cfg.Alerts.DeveloperChatID)), nil
}

func OpenStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (services.Store, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("app::OpenStore"))
	defer span.Close()
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, log.Named("sqlite"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverYDB:
		store, err := ydbstore.Open(ctx, cfg.YDBDSN, log.Named("ydb"))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// New wires the application on top of an open store.
// It gives up loading the species catalog once ctx is done.
func New(ctx context.Context, cfg config.Config, log *zap.Logger, store services.Store) (*App, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("app::New"))
	defer span.Close()

	a := &App{Config: cfg, Log: log, Store: store}
	a.Words = services.NewWordList(cfg.Content.BannedWordsPath, log.Named("words"))
	a.Filter = services.NewSensitiveFilter(a.Words)
	a.Audit = services.NewAuditLog(store, log.Named("audit"))

	species, err := services.NewSpeciesService(ctx, store, log.Named("species"))
	if err != nil {
		a.Audit.Close()
		return nil, err
	}
	a.Species = species
	codec := session.NewCodec([]byte(cfg.Session.Secret), cfg.Session.TTL)
	a.Auth = services.NewAuthService(store, codec, a.Filter, a.Audit, log.Named("auth"))
	a.Journal = services.NewJournalService(store, a.Filter, a.Audit)
	a.Gear = services.NewGearService(store, a.Filter, a.Audit)
	a.Links = services.NewShortLinkService(store, a.Audit, log.Named("links"))
	a.Admin = services.NewAdminService(store, a.Filter, a.Species, a.Audit, log.Named("admin"))

	a.Handler = handlers.NewServer(log.Named("http"), handlers.Services{
		Auth:    a.Auth,
		Journal: a.Journal,
		Gear:    a.Gear,
		Links:   a.Links,
		Species: a.Species,
		Admin:   a.Admin,
	}, handlers.Options{
		BaseURL:      cfg.HTTP.BaseURL,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.Secure,
		SlowRequest:  cfg.Log.SlowRequest,
	})
	// warm the word list before the first request
	log.Info("Content filter ready", zap.Int("bannedWords", len(a.Words.Words())))
	return a, nil
}

// Close flushes the audit log and closes the store.
func (a *App) Close() error {
	a.Audit.Close()
	err := a.Store.Close()
	_ = a.Log.Sync()
	return err
}
