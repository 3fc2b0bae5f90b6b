package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/config"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/chain"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/httpclient"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/pinata"
	s3infra "github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/s3"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/jobs/ledgerstats"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/memory"
	pgrepo "github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/postgres"
	redrepo "github.com/Maliot100X/CastLaunchEarn/backend/internal/repo/redis"
	aisvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/ai"
	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	entsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/entitlements"
	mediasvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/media"
	paymentsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/payments"
	ratesvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/rate"
	scoringsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/scoring"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
)

const postgresPingTimeout = 3 * time.Second

var migrateSchema = pgrepo.Migrate

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	statsJob   *ledgerstats.Job
	jobCtx     context.Context
	stopJobs   context.CancelFunc
	httpRouter http.Handler
}

// stores groups the persistence ports so Postgres and the in-process
// fallback are interchangeable.
type stores struct {
	users        userssvc.Store
	scores       scoringsvc.Store
	coins        coinssvc.Store
	entitlements entsvc.Store
	activeCount  ledgerstats.ActiveCounter
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, cfg.HTTP.RequestTimeout)
	r.Use(metricsMiddleware)

	pool, st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	activityRepo := redrepo.NewActivityRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)

	userService := userssvc.NewService(st.users)
	if cfg.Scoring.LeaderboardCacheTTL > 0 {
		userService.AttachCache(cacheRepo, cfg.Scoring.LeaderboardCacheTTL)
	}
	scoringService := scoringsvc.NewService(st.scores, activityRepo)

	pinClient := pinata.NewClient(pinata.Config{
		APIURL:  cfg.Pinata.APIURL,
		JWT:     cfg.Pinata.JWT,
		Timeout: cfg.Pinata.Timeout,
	})
	coinService := coinssvc.NewService(coinssvc.Dependencies{
		Store:  st.coins,
		Scorer: scoringService,
		Pinner: pinClient,
		Logger: log,
	}, coinssvc.Config{
		PlatformName:     cfg.Coins.PlatformName,
		PlatformReferrer: cfg.Coins.PlatformReferrer,
		DefaultImageURI:  cfg.Coins.DefaultImageURI,
		DefaultChainID:   cfg.Coins.DefaultChainID,
	})

	entitlementService := entsvc.NewService(st.entitlements, st.coins)

	var verifier paymentsvc.PaymentVerifier
	if chainClient, err := chain.NewClient(chain.Config{
		RPCURL:  cfg.Chain.RPCURL,
		Timeout: cfg.Chain.Timeout,
	}); err != nil {
		log.Warn("chain client init failed, purchases disabled", zap.Error(err))
	} else {
		verifier = paymentsvc.NewVerifier(chainClient, paymentsvc.VerifierConfig{
			Recipient:      cfg.Payments.Recipient,
			StrictAmount:   cfg.Payments.StrictAmount,
			PollInterval:   cfg.Payments.PollInterval,
			ConfirmTimeout: cfg.Payments.ConfirmTimeout,
			MaxPolls:       cfg.Payments.MaxPolls,
		}, log)
	}
	purchaseLimiter := ratesvc.NewLimiter(
		rateRepo,
		"purchase",
		cfg.RateLimit.PurchasePerMinute,
		cfg.RateLimit.PurchasePer10Sec,
	)
	paymentService := paymentsvc.NewService(paymentsvc.Dependencies{
		Ledger:   entitlementService,
		Verifier: verifier,
		Coins:    coinService,
		Limiter:  purchaseLimiter,
		Logger:   log,
	}, paymentsvc.Config{
		Recipient: cfg.Payments.Recipient,
		ETHUSD:    cfg.Payments.ETHUSD,
	})
	shareLimiter := ratesvc.NewLimiter(
		rateRepo,
		"share",
		cfg.RateLimit.SharePerMinute,
		cfg.RateLimit.SharePer10Sec,
	)

	var identity authsvc.IdentityVerifier
	if keys, err := authsvc.NewJWKSCache(ctx, cfg.Identity.JWKSURL, httpclient.New(cfg.Identity.Timeout)); err != nil {
		log.Warn("quick auth jwks init failed, sign-in disabled", zap.Error(err))
	} else {
		identity = authsvc.NewQuickAuthVerifier(keys, cfg.Identity.Issuer, cfg.Identity.Domain)
	}
	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:      jwtManager,
		Sessions: sessionRepo,
		Identity: identity,
		Users:    userService,
		Activity: scoringService,
		Logger:   log,
	}, cfg.Auth.RefreshTTL)

	aiService := aisvc.NewService(
		aisvc.DefaultProviders([3]string{cfg.AI.AIMLAPIKey, cfg.AI.OpenRouterKey, cfg.AI.GroqKey}, cfg.AI.Timeout),
		aisvc.Config{MaxAttempts: cfg.AI.MaxAttempts, ImageBaseURL: cfg.AI.ImageBaseURL},
		log,
	)

	var storage mediasvc.ObjectStorage
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, image uploads disabled", zap.Error(err))
	} else {
		storage = mediasvc.NewS3Storage(c, cfg.S3.Bucket)
	}
	mediaService := mediasvc.NewService(storage, pinClient, mediasvc.Config{
		PublicBaseURL: cfg.S3.PublicBaseURL,
		URLTTL:        cfg.S3.URLTTL,
		MaxImageSize:  cfg.S3.MaxImageSize,
	})

	RegisterRoutes(r, Dependencies{
		AIService:          aiService,
		AuthService:        authService,
		CoinService:        coinService,
		EntitlementService: entitlementService,
		MediaService:       mediaService,
		PaymentService:     paymentService,
		ScoringService:     scoringService,
		UserService:        userService,
		ShareLimiter:       shareLimiter,
		Logger:             log,
		Config:             cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	jobCtx, stopJobs := context.WithCancel(context.Background())

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		statsJob:   ledgerstats.New(st.activeCount, ledgerstats.DefaultInterval, log),
		jobCtx:     jobCtx,
		stopJobs:   stopJobs,
		httpRouter: r,
	}, nil
}

// openStores prefers Postgres. Outside prod an unreachable database falls
// back to the in-process store, which loses all data on restart; in prod
// paid grants must never land there, so startup fails instead.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*pgxpool.Pool, stores, error) {
	prod := cfg.Env == "prod"

	pool, err := pgrepo.Open(ctx, cfg.Postgres.DSN, postgresPingTimeout)
	if err != nil {
		if prod {
			return nil, stores{}, fmt.Errorf("postgres unavailable: %w", err)
		}
		log.Warn("postgres unavailable, using in-memory ledger", zap.Error(err))
		mem := memory.NewStore()
		return nil, stores{users: mem, scores: mem, coins: mem, entitlements: mem, activeCount: mem}, nil
	}

	if cfg.Postgres.AutoMigrate {
		version, err := migrateSchema(cfg.Postgres.DSN)
		switch {
		case err != nil && prod:
			pool.Close()
			return nil, stores{}, fmt.Errorf("auto migrate: %w", err)
		case err != nil:
			log.Error("auto migrate failed", zap.Error(err))
		default:
			log.Info("schema migrated", zap.Uint("version", version))
		}
	}

	userRepo := pgrepo.NewUserRepo(pool)
	entitlementRepo := pgrepo.NewEntitlementRepo(pool)
	return pool, stores{
		users:        userRepo,
		scores:       userRepo,
		coins:        pgrepo.NewCoinRepo(pool),
		entitlements: entitlementRepo,
		activeCount:  entitlementRepo,
	}, nil
}

func (a *App) Run() error {
	go a.statsJob.Start(a.jobCtx)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	a.stopJobs()
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
