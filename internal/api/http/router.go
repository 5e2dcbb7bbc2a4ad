package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Service *quiz.Service
	Auth    *auth.AuthService
	Users   UserDirectory
	DB      Pinger
	Log     *logger.Logger
}

type RouterConfig struct {
	CORSOrigins     []string
	RequestTimeout  time.Duration
	EnableLocalAuth bool
}

// NewRouter wires the public endpoints and the JWT-protected resource API.
// Every resource route is guarded by its resource action; ownership scoping
// happens in the service.
func NewRouter(d Deps, cfg RouterConfig) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				log.Warn("readiness check failed", "err", err)
				writeDetail(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Users))
	}

	svc := d.Service
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth), auth.AttachRoleFromStore(d.Users))

		pr.Route("/questions", func(qr chi.Router) {
			qr.With(rbac.Require(rbac.ResourceQuestion, rbac.ActionList)).Get("/", ListQuestionsHandler(svc, log))
			qr.With(rbac.Require(rbac.ResourceQuestion, rbac.ActionCreate)).Post("/", CreateQuestionHandler(svc, log))
			qr.With(rbac.Require(rbac.ResourceQuestion, rbac.ActionRetrieve)).Get("/{id}", GetQuestionHandler(svc, log))
		})

		pr.Route("/assignments", func(ar chi.Router) {
			ar.With(rbac.Require(rbac.ResourceAssignment, rbac.ActionList)).Get("/", ListAssignmentsHandler(svc, log))
			ar.With(rbac.Require(rbac.ResourceAssignment, rbac.ActionCreate)).Post("/", CreateAssignmentHandler(svc, log))
			ar.With(rbac.Require(rbac.ResourceAssignment, rbac.ActionRetrieve)).Get("/{id}", GetAssignmentHandler(svc, log))
			ar.With(rbac.Require(rbac.ResourceAssignment, rbac.ActionSubmit)).Post("/{id}/submit", SubmitAssignmentHandler(svc, log))
		})

		pr.Route("/answers", func(nr chi.Router) {
			nr.With(rbac.Require(rbac.ResourceAnswer, rbac.ActionList)).Get("/", ListAnswersHandler(svc, log))
			nr.With(rbac.Require(rbac.ResourceAnswer, rbac.ActionCreate)).Post("/", CreateAnswerHandler(svc, log))
			nr.With(rbac.Require(rbac.ResourceAnswer, rbac.ActionRetrieve)).Get("/{id}", GetAnswerHandler(svc, log))
		})

		pr.With(rbac.Require(rbac.ResourceUser, rbac.ActionList)).Get("/users", ListUsersHandler(svc, log))

		// quizzes own the root
		pr.With(rbac.Require(rbac.ResourceQuiz, rbac.ActionList)).Get("/", ListQuizzesHandler(svc, log))
		pr.With(rbac.Require(rbac.ResourceQuiz, rbac.ActionCreate)).Post("/", CreateQuizHandler(svc, log))
		pr.With(rbac.Require(rbac.ResourceQuiz, rbac.ActionRetrieve)).Get("/{id}", GetQuizHandler(svc, log))
	})

	return r
}
