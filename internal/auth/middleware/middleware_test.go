package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type fakeCreds map[string]Credential

func (f fakeCreds) CredentialByUsername(_ context.Context, username string) (Credential, error) {
	c, ok := f[username]
	if !ok {
		return Credential{}, errors.New("not found")
	}
	return c, nil
}

type fakeRoles map[int64]rbac.Role

func (f fakeRoles) RoleOf(_ context.Context, id int64) (rbac.Role, error) {
	r, ok := f[id]
	if !ok {
		return "", errors.New("not found")
	}
	return r, nil
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(b)
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, err := a.IssueJWT(42, "bob", rbac.RoleQuizzee)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c, err := a.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p, err := c.Principal()
	if err != nil {
		t.Fatalf("principal: %v", err)
	}
	if p.UserID != 42 || p.Role != rbac.RoleQuizzee || c.Username != "bob" || c.ID == "" {
		t.Fatalf("unexpected claims: %+v / %+v", c, p)
	}

	other := NewAuthService("other", time.Hour)
	if _, err := other.Parse(tok); err == nil {
		t.Fatalf("token signed with another secret must not parse")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	a := NewAuthService("secret", time.Minute)
	a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := a.IssueJWT(1, "x", rbac.RoleQuizzer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := a.Parse(tok); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	var got rbac.Principal
	h := JWTMiddleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = rbac.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing bearer: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", rec.Code)
	}

	tok, _ := a.IssueJWT(7, "q", rbac.RoleQuizzer)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got.UserID != 7 || got.Role != rbac.RoleQuizzer {
		t.Fatalf("status %d principal %+v", rec.Code, got)
	}
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	creds := fakeCreds{"alice": {UserID: 3, Username: "alice", PasswordHash: mustHash(t, "pw"), Role: rbac.RoleQuizzee}}
	h := LoginHandler(a, creds)

	cases := []struct {
		body string
		want int
	}{
		{`{"username":"alice","password":"pw"}`, http.StatusOK},
		{`{"username":"alice","password":"nope"}`, http.StatusUnauthorized},
		{`{"username":"ghost","password":"pw"}`, http.StatusUnauthorized},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body)))
		if rec.Code != tc.want {
			t.Fatalf("%s: status %d, want %d", tc.body, rec.Code, tc.want)
		}
		if tc.want != http.StatusOK {
			continue
		}
		var out map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		c, err := a.Parse(out["access_token"])
		if err != nil || c.Subject != "3" {
			t.Fatalf("issued token invalid: %v %+v", err, c)
		}
	}
}

func TestAttachRoleFromStore(t *testing.T) {
	roles := fakeRoles{1: rbac.RoleQuizzee}
	var got rbac.Principal
	h := AttachRoleFromStore(roles)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = rbac.PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(rbac.WithPrincipal(req.Context(), rbac.Principal{UserID: 1, Role: rbac.RoleQuizzer}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got.Role != rbac.RoleQuizzee {
		t.Fatalf("stored role should win: status %d principal %+v", rec.Code, got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(rbac.WithPrincipal(req.Context(), rbac.Principal{UserID: 99, Role: rbac.RoleQuizzer}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: status %d", rec.Code)
	}
}
