package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// GET /assignments?quiz_id=&user_id=&limit=&offset=
// Quizzers see assignments on their own quizzes, quizzees their own
// assignments; the filters narrow that set further.
func ListAssignmentsHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v quiz.ValidationError
		f := quiz.AssignmentFilter{
			QuizID: queryID(r, "quiz_id", &v),
			UserID: queryID(r, "user_id", &v),
			Page:   pageFrom(r),
		}
		if err := v.Err(); err != nil {
			writeError(w, r, log, err)
			return
		}
		p := rbac.PrincipalFromContext(r.Context())
		list, err := svc.ListAssignments(r.Context(), p, f)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]quiz.AssignmentView, 0, len(list))
		for _, a := range list {
			out = append(out, quiz.NewAssignmentSummary(a, p.Role))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /assignments/{id}
func GetAssignmentHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		p := rbac.PrincipalFromContext(r.Context())
		d, err := svc.GetAssignment(r.Context(), p, id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.NewAssignmentDetail(d, p.Role))
	}
}

// POST /assignments  {"user": 4, "quiz": 1}
func CreateAssignmentHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			User pk `json:"user"`
			Quiz pk `json:"quiz"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := checkPKs(map[string]pk{"user": req.User, "quiz": req.Quiz}); err != nil {
			writeError(w, r, log, err)
			return
		}
		a, err := svc.CreateAssignment(r.Context(), rbac.PrincipalFromContext(r.Context()), quiz.CreateAssignmentInput{
			UserID: req.User.ID,
			QuizID: req.Quiz.ID,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, quiz.NewAssignmentCreatedView(a))
	}
}

// POST /assignments/{id}/submit  (no body)
// Answers with the quizzee view of the assignment.
func SubmitAssignmentHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		d, err := svc.SubmitAssignment(r.Context(), rbac.PrincipalFromContext(r.Context()), id)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, quiz.NewAssignmentDetail(d, rbac.RoleQuizzee))
	}
}
