package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthorizeMatrix(t *testing.T) {
	quizzer := Principal{UserID: 1, Role: RoleQuizzer}
	quizzee := Principal{UserID: 2, Role: RoleQuizzee}

	cases := []struct {
		res          Resource
		act          Action
		quizzerAllow bool
		quizzeeAllow bool
	}{
		{ResourceQuestion, ActionCreate, true, false},
		{ResourceQuestion, ActionList, true, true},
		{ResourceQuestion, ActionRetrieve, true, true},
		{ResourceQuiz, ActionCreate, true, false},
		{ResourceQuiz, ActionList, true, true},
		{ResourceQuiz, ActionRetrieve, true, true},
		{ResourceAssignment, ActionCreate, true, false},
		{ResourceAssignment, ActionList, true, true},
		{ResourceAssignment, ActionRetrieve, true, true},
		{ResourceAssignment, ActionSubmit, false, true},
		{ResourceAnswer, ActionCreate, false, true},
		{ResourceAnswer, ActionList, true, true},
		{ResourceAnswer, ActionRetrieve, true, true},
		{ResourceUser, ActionList, true, false},
	}
	for _, tc := range cases {
		t.Run(Perm(tc.res, tc.act), func(t *testing.T) {
			check := func(p Principal, want bool) {
				err := Authorize(p, tc.res, tc.act)
				if want && err != nil {
					t.Fatalf("%s: expected allow, got %v", p.Role, err)
				}
				if !want && !errors.Is(err, ErrForbidden) {
					t.Fatalf("%s: expected ErrForbidden, got %v", p.Role, err)
				}
			}
			check(quizzer, tc.quizzerAllow)
			check(quizzee, tc.quizzeeAllow)
		})
	}
}

func TestAuthorizeUnauthenticatedFirst(t *testing.T) {
	for _, p := range []Principal{{}, {UserID: 5}, {Role: RoleQuizzer}, {UserID: 5, Role: "admin"}} {
		if err := Authorize(p, ResourceQuestion, ActionList); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("%+v: expected ErrUnauthenticated, got %v", p, err)
		}
	}
}

func TestRoleHelpers(t *testing.T) {
	if RoleFor(true) != RoleQuizzer || RoleFor(false) != RoleQuizzee {
		t.Fatalf("RoleFor mapping wrong")
	}
	if r, err := ParseRole(" Quizzer "); err != nil || r != RoleQuizzer {
		t.Fatalf("ParseRole: %v %v", r, err)
	}
	if _, err := ParseRole("admin"); err == nil {
		t.Fatalf("expected error for admin")
	}
}

func TestMatchPermWildcard(t *testing.T) {
	if !matchPerm("answer:*", "answer:create") {
		t.Fatalf("prefix wildcard should match")
	}
	if matchPerm("answer:*", "assignment:create") {
		t.Fatalf("wildcard leaked across resources")
	}
	c := NewChecker(map[Role][]string{RoleQuizzer: {"*"}})
	if !c.Has(RoleQuizzer, "anything:at-all") {
		t.Fatalf("star should match everything")
	}
}

func TestRequireMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(ResourceAnswer, ActionCreate)(ok)

	cases := []struct {
		name string
		p    *Principal
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"quizzer", &Principal{UserID: 1, Role: RoleQuizzer}, http.StatusForbidden},
		{"quizzee", &Principal{UserID: 2, Role: RoleQuizzee}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/answers", nil)
			if tc.p != nil {
				req = req.WithContext(WithPrincipal(context.Background(), *tc.p))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
