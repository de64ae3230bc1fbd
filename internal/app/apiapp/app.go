package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avolkau/sparkmatch/internal/config"
	"github.com/avolkau/sparkmatch/internal/domain/model"
	s3infra "github.com/avolkau/sparkmatch/internal/infra/s3"
	pgrepo "github.com/avolkau/sparkmatch/internal/repo/postgres"
	redrepo "github.com/avolkau/sparkmatch/internal/repo/redis"
	authsvc "github.com/avolkau/sparkmatch/internal/services/auth"
	"github.com/avolkau/sparkmatch/internal/services/browse"
	discoverysvc "github.com/avolkau/sparkmatch/internal/services/discovery"
	matchsvc "github.com/avolkau/sparkmatch/internal/services/match"
	matchessvc "github.com/avolkau/sparkmatch/internal/services/matches"
	mediasvc "github.com/avolkau/sparkmatch/internal/services/media"
	quotasvc "github.com/avolkau/sparkmatch/internal/services/quota"
	ratesvc "github.com/avolkau/sparkmatch/internal/services/rate"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewTapRepo(redisClient)
	profileRepo := pgrepo.NewProfileRepo(pool)
	decisionRepo := pgrepo.NewDecisionRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	quotaRepo := pgrepo.NewQuotaRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing without photos", zap.Error(err))
	} else {
		s3Client = c
	}

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	if s3Client != nil {
		if err := mediaStorage.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed, continuing without photos", zap.Error(err))
		}
	}
	mediaService := mediasvc.NewService(mediaStorage)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Engine.TapRatePerMinute, cfg.Engine.TapRatePer10Seconds)

	resolver, err := matchsvc.NewResolver(matchsvc.Dependencies{
		Decisions: decisionRepo,
		Matches:   matchRepo,
		RunInTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init match resolver: %w", err)
	}

	matchesService, err := matchessvc.NewService(matchessvc.Dependencies{
		Matches: matchRepo,
		Blocks:  blockRepo,
		RunInTx: func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
			return pgrepo.WithTx(ctx, pool, fn)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init matches service: %w", err)
	}

	sink := &logSink{log: log}
	registry, err := browse.NewRegistry(func(userID string) (*browse.Session, error) {
		discoveryService := discoverysvc.NewService(profileRepo, discoverysvc.Config{
			PageLimit:     cfg.Engine.CandidatePageLimit,
			DefaultAgeMin: cfg.Engine.Filters.AgeMin,
			DefaultAgeMax: cfg.Engine.Filters.AgeMax,
			DefaultMaxKM:  cfg.Engine.Filters.RadiusDefaultKM,
		})
		quotaManager, err := quotasvc.NewManager(quotaRepo, userID, cfg.Engine.SuperLikesPerDay)
		if err != nil {
			return nil, err
		}
		return browse.NewSession(browse.Dependencies{
			UserID:         userID,
			ViewportWidth:  cfg.Engine.Viewport.Width,
			ViewportHeight: cfg.Engine.Viewport.Height,
			Discovery:      discoveryService,
			Quota:          quotaManager,
			Resolver:       resolver,
			Limiter:        rateLimiter,
			Sink:           sink,
			Logger:         log,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("init session registry: %w", err)
	}

	RegisterRoutes(r, Dependencies{
		JWTManager:   jwtManager,
		Sessions:     registry,
		Matches:      matchRepo,
		Likes:        decisionRepo,
		MatchActions: matchesService,
		Photos:       mediaService,
		Logger:       log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// logSink turns session events into structured log entries.
type logSink struct {
	log *zap.Logger
}

func (s *logSink) CardDecided(userID string, decision model.Decision) {
	s.log.Info("card_decided",
		zap.String("user_id", userID),
		zap.String("candidate_id", decision.CandidateID),
		zap.String("kind", string(decision.Kind)),
	)
}

func (s *logSink) MatchFound(event model.MatchEvent) {
	s.log.Info("match_found",
		zap.String("match_id", event.MatchID),
		zap.String("user_id", event.UserID),
		zap.String("candidate_id", event.CandidateID),
	)
}

func (s *logSink) QuotaExhausted(userID string, nextReset time.Time) {
	s.log.Info("superlike_quota_exhausted",
		zap.String("user_id", userID),
		zap.Time("next_reset", nextReset),
	)
}

func (s *logSink) QueueExhausted(userID string) {
	s.log.Info("queue_exhausted", zap.String("user_id", userID))
}
