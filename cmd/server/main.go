package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // panic recovery
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/seatplan/internal/auth"
	"github.com/iliyamo/seatplan/internal/config" // Internal config loader
	"github.com/iliyamo/seatplan/internal/database"
	"github.com/iliyamo/seatplan/internal/handler"
	"github.com/iliyamo/seatplan/internal/logger"
	"github.com/iliyamo/seatplan/internal/metrics"
	"github.com/iliyamo/seatplan/internal/middleware"
	"github.com/iliyamo/seatplan/internal/queue"
	"github.com/iliyamo/seatplan/internal/repository"
	"github.com/iliyamo/seatplan/internal/router" // Internal router setup
	"github.com/iliyamo/seatplan/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	log, err := logger.Init(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		ServiceName: "seatplan",
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── storage ─────────────────────────────────────────────────────────
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := database.CreateSchema(ctx, db, cfg.DBDriver); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	// ── events ──────────────────────────────────────────────────────────
	var pub service.EventPublisher = queue.NoopPublisher{}
	if cfg.EventsEnabled {
		p := queue.NewPublisher(cfg.RabbitMQURL, log)
		defer func() { _ = p.Close() }()
		pub = p
	}

	// ── services ────────────────────────────────────────────────────────
	m := metrics.New("seatplan")
	deps := service.Deps{
		DB:        db,
		Publisher: pub,
		Metrics:   m,
		Log:       log,
		Timeouts: service.Timeouts{
			Bulk:    cfg.BulkTxTimeout,
			Assign:  cfg.AssignTxTimeout,
			Default: cfg.DefaultTxTimeout,
		},
	}
	az := auth.NewRoleAuthorizer()
	seating := service.NewSeatingService(deps)
	assign := service.NewAssignmentService(deps)
	guests := service.NewGuestService(deps)
	checkin := service.NewCheckInService(deps, cfg.CheckIn)
	queries := service.NewQueryService(deps)
	floorMap := service.NewFloorMapService(deps, cfg.FloorMapMaxBytes)
	accounts := service.NewAccountService(deps, az, cfg.BcryptCost)

	if err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	// ── http ────────────────────────────────────────────────────────────
	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(m.Middleware())

	rl := config.LoadRateLimitConfig()
	router.RegisterRoutes(e, db, m)
	router.RegisterAuth(e,
		handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)),
		cfg.JWTSecret,
		middleware.LoginLimiter(rl, rdb),
	)
	router.RegisterSeating(e, router.Protected{
		JWTSecret:  cfg.JWTSecret,
		Authorizer: az,
		Middlewares: []echo.MiddlewareFunc{
			middleware.NewTokenBucket(rl, rdb),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		},
		Tables:   handler.NewTableHandler(seating),
		Seats:    handler.NewSeatHandler(assign, checkin, queries),
		Guests:   handler.NewGuestHandler(guests),
		FloorMap: handler.NewFloorMapHandler(floorMap),
		Users:    handler.NewUserHandler(accounts),
	})

	g, gctx := errgroup.WithContext(ctx)

	addr := ":" + cfg.Port // Address string with port
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if cfg.EventsEnabled {
		g.Go(func() error {
			c := &queue.Consumer{URL: cfg.RabbitMQURL, LogPath: "logs/checkin.log", Log: log}
			if err := c.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
