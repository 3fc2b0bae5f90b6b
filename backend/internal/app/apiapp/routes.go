package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Maliot100X/CastLaunchEarn/backend/internal/config"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/infra/metrics"
	aisvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/ai"
	authsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/auth"
	coinssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/coins"
	entsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/entitlements"
	mediasvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/media"
	paymentsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/payments"
	ratesvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/rate"
	scoringsvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/scoring"
	userssvc "github.com/Maliot100X/CastLaunchEarn/backend/internal/services/users"
	"github.com/Maliot100X/CastLaunchEarn/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AIService          *aisvc.Service
	AuthService        *authsvc.Service
	CoinService        *coinssvc.Service
	EntitlementService *entsvc.Service
	MediaService       *mediasvc.Service
	PaymentService     *paymentsvc.Service
	ScoringService     *scoringsvc.Service
	UserService        *userssvc.Service
	ShareLimiter       *ratesvc.Limiter
	Logger             *zap.Logger
	Config             config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	aiHandler := handlers.NewAIHandler(deps.AIService)
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	boostHandler := handlers.NewBoostHandler(deps.EntitlementService, deps.PaymentService, deps.Logger)
	coinsHandler := handlers.NewCoinsHandler(deps.CoinService, deps.UserService, deps.Logger)
	entitlementHandler := handlers.NewEntitlementHandler(deps.EntitlementService, deps.Logger)
	healthHandler := handlers.NewHealthHandler()
	leaderboardHandler := handlers.NewLeaderboardHandler(
		deps.UserService,
		deps.ScoringService,
		deps.CoinService,
		deps.ShareLimiter,
		deps.Logger,
	)
	meHandler := handlers.NewMeHandler(deps.UserService, deps.EntitlementService, deps.Logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.EntitlementService, deps.PaymentService, deps.Logger)
	uploadHandler := handlers.NewUploadHandler(deps.MediaService, deps.Logger)
	webhookHandler := handlers.NewWebhookHandler(deps.UserService, deps.Logger)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	internalMW := InternalTokenMiddleware(deps.Config.Internal.Token, deps.Logger)
	clientLimitMW := ClientRateLimitMiddleware(deps.Config.RateLimit.ClientRPS, deps.Config.RateLimit.ClientBurst)

	r.Get("/healthz", healthHandler.Get)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/share", handlers.SharePage)
	r.Get("/webhook", webhookHandler.Status)
	r.Post("/webhook", webhookHandler.Receive)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/farcaster", authHandler.Farcaster)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
	})

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Get("/me", meHandler.Handle)

		r.Get("/coins", coinsHandler.List)
		r.With(authMW).Post("/coins", coinsHandler.Create)
		r.With(authMW).Post("/coins/prepare", coinsHandler.Prepare)
		r.Get("/coins/{id}", coinsHandler.Get)

		r.Get("/boosts", boostHandler.List)
		r.Get("/boosts/king", boostHandler.King)
		r.Get("/boosts/packages", boostHandler.Packages)
		r.With(authMW).Post("/boosts", boostHandler.Purchase)

		r.Get("/subscriptions/plans", subscriptionHandler.Plans)
		r.With(authMW).Get("/subscriptions/me", subscriptionHandler.Me)
		r.With(authMW).Post("/subscriptions", subscriptionHandler.Purchase)

		r.With(authMW).Get("/entitlements/payments/{tx_hash}", entitlementHandler.ByPayment)

		r.Get("/leaderboard", leaderboardHandler.List)
		r.With(internalMW).Post("/leaderboard/score", leaderboardHandler.Score)
		r.With(authMW).Post("/score/share", leaderboardHandler.Share)

		r.With(clientLimitMW).Post("/ai", aiHandler.Handle)
		r.With(authMW, clientLimitMW).Post("/upload", uploadHandler.Metadata)
		r.With(authMW, clientLimitMW).Post("/upload/image", uploadHandler.Image)
	})
}
