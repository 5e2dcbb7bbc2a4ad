package http

import (
	"context"
	"net/http"
	"strings"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// GET /users?role=quizzee|quizzer
func ListUsersHandler(svc *quiz.Service, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var role rbac.Role
		if s := strings.TrimSpace(r.URL.Query().Get("role")); s != "" {
			parsed, err := rbac.ParseRole(s)
			if err != nil {
				writeError(w, r, log, quiz.Invalid("role", `Select a valid choice. "`+s+`" is not one of the available choices.`))
				return
			}
			role = parsed
		}
		list, err := svc.ListUsers(r.Context(), rbac.PrincipalFromContext(r.Context()), role, pageFrom(r))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]quiz.UserView, 0, len(list))
		for _, u := range list {
			out = append(out, quiz.NewUserView(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// UserDirectory exposes stored users to the login flow and the role
// middleware.
type UserDirectory struct {
	Store quiz.Store
}

func (d UserDirectory) CredentialByUsername(ctx context.Context, username string) (auth.Credential, error) {
	u, err := d.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return auth.Credential{}, err
	}
	return auth.Credential{UserID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role()}, nil
}

func (d UserDirectory) RoleOf(ctx context.Context, userID int64) (rbac.Role, error) {
	u, err := d.Store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Role(), nil
}
