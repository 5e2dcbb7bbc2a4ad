package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// GET /questions?limit=&offset=
func ListQuestionsHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListQuestions(r.Context(), rbac.PrincipalFromContext(r.Context()), pageFrom(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]quiz.QuestionSummary, 0, len(list))
		for _, q := range list {
			out = append(out, quiz.NewQuestionSummary(q))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /questions/{id}
func GetQuestionHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		p := rbac.PrincipalFromContext(r.Context())
		q, err := svc.GetQuestion(r.Context(), p, id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.NewQuestionView(q, quiz.ViewFor(p.Role)))
	}
}

// POST /questions  {"text": "...", "choices": [{"text": "...", "is_correct": true}]}
func CreateQuestionHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text    string `json:"text"`
			Choices []struct {
				Text      string `json:"text"`
				IsCorrect bool   `json:"is_correct"`
			} `json:"choices"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		in := quiz.CreateQuestionInput{Text: req.Text}
		for _, c := range req.Choices {
			in.Choices = append(in.Choices, quiz.ChoiceSpec{Text: c.Text, IsCorrect: c.IsCorrect})
		}
		q, err := svc.CreateQuestion(r.Context(), rbac.PrincipalFromContext(r.Context()), in)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		// the author sees correctness; quiz membership does not exist yet
		writeJSON(w, http.StatusCreated, quiz.NewQuestionView(q, quiz.ViewOpts{Correctness: true}))
	}
}
