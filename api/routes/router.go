package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/taxchat-backend/api/controllers"
	"github.com/angelmondragon/taxchat-backend/api/middleware"
	"github.com/angelmondragon/taxchat-backend/internal/auth"
	"github.com/angelmondragon/taxchat-backend/internal/chat"
	"github.com/angelmondragon/taxchat-backend/internal/conversations"
	"github.com/angelmondragon/taxchat-backend/internal/qa"
	"github.com/angelmondragon/taxchat-backend/internal/users"
	"github.com/angelmondragon/taxchat-backend/pkg/config"
	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"github.com/angelmondragon/taxchat-backend/pkg/redis"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Chat          chat.Service
	QA            qa.Service
	Conversations conversations.Service
	Auth          auth.Service
	Users         users.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.Origins()),
		middleware.Logging(logg),
	)

	// keep interfaces nil when redis is not configured
	var (
		limiter     middleware.RateLimiter
		redisPinger redis.Pinger
	)
	if redisClient != nil {
		limiter = redisClient
		redisPinger = redisClient
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	profilePolicy := middleware.NewAuthRateLimitPolicy(
		"profile",
		cfg.AuthRateLimit.ProfileWindow,
		cfg.AuthRateLimit.ProfileIPLimit,
		cfg.AuthRateLimit.ProfileEmailLimit,
	)
	requireAuth := middleware.Auth(cfg.JWT, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/chat", func(r chi.Router) {
		r.Post("/", controllers.Chat(svc.Chat, logg))
		r.Get("/history/{email}", controllers.ChatHistory(svc.QA, logg))
		r.Post("/feedback/{qa_id}", controllers.ChatFeedback(svc.QA, logg))
		r.Get("/qa/stats", controllers.QAStats(svc.QA, logg))
		r.Get("/qa/search", controllers.QASearch(svc.QA, logg))
		r.Get("/conversations/{email}", controllers.ListConversations(svc.Conversations, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/session", controllers.StartSession(svc.Conversations, logg))
			r.Post("/session/{session_id}/close", controllers.CloseSession(svc.Conversations, logg))
			r.Delete("/conversation/{session_id}", controllers.DeleteConversation(svc.Conversations, logg))
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.UserLogin(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(profilePolicy, limiter, logg)).Post("/profile", controllers.UserProfileUpsert(svc.Users, logg))
		r.Post("/validate-token", controllers.ValidateToken(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile/{email}", controllers.UserProfile(svc.Users, logg))
			r.Get("/profile/{email}/chat-stats", controllers.UserChatStats(svc.Users, logg))
		})
	})

	return r
}
