package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// Quizzes live at the API root: GET /, GET /{id}, POST /.

func ListQuizzesHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := rbac.PrincipalFromContext(r.Context())
		list, err := svc.ListQuizzes(r.Context(), p, pageFrom(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]quiz.QuizView, 0, len(list))
		for _, z := range list {
			out = append(out, quiz.NewQuizView(z, quiz.ViewFor(p.Role)))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetQuizHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		p := rbac.PrincipalFromContext(r.Context())
		z, err := svc.GetQuiz(r.Context(), p, id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.NewQuizView(z, quiz.ViewFor(p.Role)))
	}
}

func CreateQuizHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Description string `json:"description"`
			Questions   []pk   `json:"questions"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		in := quiz.CreateQuizInput{Description: req.Description}
		var bad quiz.ValidationError
		for _, q := range req.Questions {
			if q.bad {
				bad.Add("questions", quiz.MsgInvalidInteger)
				continue
			}
			in.Questions = append(in.Questions, q.ID)
		}
		if err := bad.Err(); err != nil {
			writeError(w, r, log, err)
			return
		}
		z, err := svc.CreateQuiz(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, quiz.NewQuizCreatedView(z))
	}
}
