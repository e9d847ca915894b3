package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/waiver-wire/external/discord"
	"github.com/riskibarqy/waiver-wire/internal/config"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/waiver-wire/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/waiver-wire/internal/interfaces/httpapi"
	"github.com/riskibarqy/waiver-wire/internal/platform/logging"
	"github.com/riskibarqy/waiver-wire/internal/platform/resilience"
	"github.com/riskibarqy/waiver-wire/internal/platform/scheduler"
	"github.com/riskibarqy/waiver-wire/internal/usecase"
)

const (
	// JobAnnounce surfaces pending players inside the daily window.
	JobAnnounce = "announce"
	// JobClearing resolves the oldest expired announcement per run.
	JobClearing = "clearing"
)

// App holds the wired service: the HTTP server, the job scheduler and
// the resources that need closing on shutdown.
type App struct {
	Server    *http.Server
	Scheduler *scheduler.Scheduler

	db       *sqlx.DB
	notifier *discord.WebhookClient
}

// New builds the full application from configuration. ctx bounds the
// startup work only (database ping, bootstrap seeding).
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, core *logging.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if core == nil {
		core = logging.Default()
	}

	entries := directoryEntries(cfg)
	directory, err := team.NewDirectory(entries)
	if err != nil {
		return nil, fmt.Errorf("build team directory: %w", err)
	}

	a := &App{}

	store, err := a.openStore(ctx, cfg, logger, entries)
	if err != nil {
		return nil, err
	}

	notifier := usecase.NewNoopNotifier()
	if cfg.DiscordEnabled {
		client, err := discord.NewWebhookClient(discord.WebhookConfig{
			WebhookURLByChannel: cfg.DiscordWebhookURLByChannel,
			Timeout:             cfg.DiscordTimeout,
			Retries:             cfg.DiscordRetries,
			SendWorkers:         cfg.DiscordSendWorkers,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.DiscordCircuitEnabled,
				FailureThreshold: cfg.DiscordCircuitFailureCount,
				OpenTimeout:      cfg.DiscordCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.DiscordCircuitHalfOpenMaxReq,
			},
		}, logger)
		if err != nil {
			a.closeDB()
			return nil, fmt.Errorf("build discord client: %w", err)
		}
		a.notifier = client
		notifier = client
	}

	location, err := time.LoadLocation(cfg.AnnounceTimezone)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load announce timezone %q: %w", cfg.AnnounceTimezone, err)
	}

	prioritySvc := usecase.NewPriorityService(store, core)
	playerSvc := usecase.NewPlayerService(store, directory, core)
	claimSvc := usecase.NewClaimService(store, notifier, prioritySvc, directory, core)
	announcer := usecase.NewAnnouncementService(store, notifier, usecase.AnnouncementConfig{
		WindowStartHour: cfg.AnnounceWindowStartHour,
		WindowEndHour:   cfg.AnnounceWindowEndHour,
		Location:        location,
		ClearingOffset:  cfg.ClearingOffset,
		MentionRoleID:   cfg.AnnounceMentionRoleID,
	}, core)
	clearer := usecase.NewClearingService(store, notifier, prioritySvc, directory, cfg.AnnounceMentionRoleID, core)

	sched := scheduler.New(scheduler.RetryPolicy{
		Attempts: cfg.JobRetryAttempts,
		Delay:    cfg.JobRetryDelay,
		Transient: func(err error) bool {
			return errors.Is(err, usecase.ErrDependencyUnavailable)
		},
	}, core)

	if err := sched.Register(scheduler.Job{
		Name:     JobAnnounce,
		Interval: cfg.AnnounceInterval,
		Run:      announcer.RunOnce,
	}); err != nil {
		a.Close()
		return nil, fmt.Errorf("register announce job: %w", err)
	}

	// Each clearing run resolves at most one player. When one resolved,
	// the job is kicked again after a short cooldown so a backlog drains
	// without waiting a full interval per player.
	if err := sched.Register(scheduler.Job{
		Name:     JobClearing,
		Interval: cfg.ClearingInterval,
		Run: func(ctx context.Context) error {
			resolved, err := clearer.RunOnce(ctx)
			if err != nil {
				return err
			}
			if resolved {
				sched.Kick(JobClearing, cfg.ResolveCooldown)
			}
			return nil
		},
	}); err != nil {
		a.Close()
		return nil, fmt.Errorf("register clearing job: %w", err)
	}

	a.Scheduler = sched

	handler := httpapi.NewHandler(playerSvc, claimSvc, prioritySvc, announcer, clearer, sched, logger)
	bodyCaptureLimit := 0
	if cfg.UptraceCaptureRequestBody {
		bodyCaptureLimit = cfg.UptraceRequestBodyMaxBytes
	}
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken, bodyCaptureLimit)

	if cfg.HTTPAddr == "" {
		a.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

// Close releases resources created by New. Safe to call more than once.
func (a *App) Close() {
	if a.notifier != nil {
		a.notifier.Close()
		a.notifier = nil
	}
	a.closeDB()
}

func (a *App) closeDB() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

func (a *App) openStore(ctx context.Context, cfg config.Config, logger *slog.Logger, entries []team.Entry) (usecase.Store, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

		db, err := otelsqlx.Open("postgres", dsn,
			otelsql.WithDBName(dbNameFromURL(dsn)),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(4)
		db.SetConnMaxLifetime(30 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		if err := postgres.BootstrapSeed(ctx, db, seedTeamsFromEntries(entries)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap seed: %w", err)
		}

		a.db = db
		logger.Info("storage ready", "driver", cfg.StorageDriver, "database", dbNameFromURL(dsn))

		return postgres.NewStore(db), nil
	default:
		logger.Info("storage ready", "driver", config.StorageMemory)
		return memory.NewStore(nil, nil, seedTeamsFromEntries(entries)), nil
	}
}

// directoryEntries prefers the configured directory and falls back to
// the built-in development league.
func directoryEntries(cfg config.Config) []team.Entry {
	if len(cfg.TeamDirectory) == 0 {
		return memory.SeedDirectory()
	}

	out := make([]team.Entry, 0, len(cfg.TeamDirectory))
	for _, e := range cfg.TeamDirectory {
		out = append(out, team.Entry{Code: e.Code, RoleID: e.RoleID, Name: e.Name})
	}
	return out
}

// seedTeamsFromEntries assigns initial priorities in configured order.
func seedTeamsFromEntries(entries []team.Entry) []team.Team {
	teams := make([]team.Team, 0, len(entries))
	for i, e := range entries {
		teams = append(teams, team.Team{
			Code:     e.Code,
			Name:     e.Name,
			RoleID:   e.RoleID,
			Priority: i + 1,
		})
	}
	return teams
}
