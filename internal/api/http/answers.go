package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

func ListAnswersHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAnswers(r.Context(), rbac.PrincipalFromContext(r.Context()), pageFrom(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]quiz.AnswerSummary, 0, len(list))
		for _, a := range list {
			out = append(out, quiz.NewAnswerSummary(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetAnswerHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		d, err := svc.GetAnswer(r.Context(), rbac.PrincipalFromContext(r.Context()), id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.NewAnswerView(d))
	}
}

// POST /answers  {"assignment": 3, "choice": 7}
func CreateAnswerHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Assignment pk `json:"assignment"`
			Choice     pk `json:"choice"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := checkPKs(map[string]pk{"assignment": req.Assignment, "choice": req.Choice}); err != nil {
			writeError(w, r, log, err)
			return
		}
		a, err := svc.CreateAnswer(r.Context(), rbac.PrincipalFromContext(r.Context()), quiz.CreateAnswerInput{
			AssignmentID: req.Assignment.ID,
			ChoiceID:     req.Choice.ID,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, quiz.NewAnswerCreatedView(a))
	}
}
