package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appMiddleware "github.com/stackit/backend/internal/middleware"
	"github.com/stackit/backend/internal/realtime"
	"github.com/stackit/backend/internal/services"
)

type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Services groups everything the HTTP layer calls into.
type Services struct {
	Questions     *services.QuestionService
	Answers       *services.AnswerService
	Voting        *services.VotingService
	Users         *services.UserService
	Tags          *services.TagService
	Notifications *services.NotificationService
	Admin         *services.AdminService
}

// NewRouter builds the full HTTP surface: /health, /metrics, /ws and /api.
func NewRouter(cfg RouterConfig, svc Services, hub *realtime.Hub) http.Handler {
	questionHandler := NewQuestionHandler(svc.Questions, svc.Voting)
	answerHandler := NewAnswerHandler(svc.Answers, svc.Voting)
	userHandler := NewUserHandler(svc.Users)
	tagHandler := NewTagHandler(svc.Tags)
	notificationHandler := NewNotificationHandler(svc.Notifications)
	adminHandler := NewAdminHandler(svc.Admin, svc.Users)
	wsHandler := NewWSHandler(hub)

	requireUser := func(r chi.Router) {
		r.Use(appMiddleware.JWTAuth(cfg.JWTSecret))
		r.Use(appMiddleware.ActiveUser(svc.Users))
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(appMiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Live connections outlive any request timeout.
	r.Group(func(r chi.Router) {
		requireUser(r)
		r.Get("/ws", wsHandler.Connect)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))

		r.Post("/users/register", userHandler.Register)

		// Public reads, personalized when a token is present
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.OptionalJWTAuth(cfg.JWTSecret))

			r.Get("/questions", questionHandler.ListQuestions)
			r.Get("/questions/{id}", questionHandler.GetQuestion)

			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/leaderboard/top", userHandler.Leaderboard)
			r.Get("/users/{id}", userHandler.GetUser)
			r.Get("/users/{id}/questions", userHandler.UserQuestions)
			r.Get("/users/{id}/answers", userHandler.UserAnswers)

			r.Get("/tags", tagHandler.ListTags)
			r.Get("/tags/popular", tagHandler.PopularTags)
			r.Get("/tags/{name}", tagHandler.GetTag)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			requireUser(r)

			r.Get("/users/me", userHandler.Me)
			r.Put("/users/me", userHandler.UpdateMe)

			r.Post("/questions", questionHandler.CreateQuestion)
			r.Put("/questions/{id}/vote", questionHandler.VoteQuestion)
			r.Delete("/questions/{id}", questionHandler.DeleteQuestion)
			r.Put("/questions/{id}/answers/{answerId}/accept", answerHandler.AcceptOnQuestion)

			r.Post("/answers", answerHandler.CreateAnswer)
			r.Put("/answers/{id}/vote", answerHandler.VoteAnswer)
			r.Put("/answers/{id}/accept", answerHandler.AcceptAnswer)
			r.Delete("/answers/{id}", answerHandler.DeleteAnswer)

			r.Post("/tags", tagHandler.CreateTag)
			r.Put("/tags/{name}", tagHandler.UpdateTag)
			r.Put("/tags/{name}/follow", tagHandler.ToggleFollow)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Put("/read-all", notificationHandler.MarkAllRead)
				r.Put("/{id}/read", notificationHandler.MarkRead)
				r.Delete("/{id}", notificationHandler.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", adminHandler.Stats)
				r.Get("/users", adminHandler.ListUsers)
				r.Put("/users/{id}/role", adminHandler.SetRole)
				r.Put("/users/{id}/status", adminHandler.SetStatus)
				r.Get("/questions", adminHandler.ListQuestions)
				r.Put("/questions/{id}/feature", adminHandler.FeatureQuestion)
			})
		})
	})

	return r
}
