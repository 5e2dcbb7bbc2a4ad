package rbac

import (
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
)

type Role string

const (
	RoleQuizzer Role = "quizzer"
	RoleQuizzee Role = "quizzee"
)

// RoleFor maps the stored is_quizzer flag to a role.
func RoleFor(isQuizzer bool) Role {
	if isQuizzer {
		return RoleQuizzer
	}
	return RoleQuizzee
}

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleQuizzer:
		return RoleQuizzer, nil
	case RoleQuizzee:
		return RoleQuizzee, nil
	}
	return "", errors.New("unknown role: " + s)
}

func (r Role) Valid() bool { return r == RoleQuizzer || r == RoleQuizzee }

func (r Role) IsQuizzer() bool { return r == RoleQuizzer }

type Resource string

const (
	ResourceQuestion   Resource = "question"
	ResourceQuiz       Resource = "quiz"
	ResourceAssignment Resource = "assignment"
	ResourceAnswer     Resource = "answer"
	ResourceUser       Resource = "user"
)

type Action string

const (
	ActionCreate   Action = "create"
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionSubmit   Action = "submit"
)

// Perm renders the permission string checked for a resource action.
func Perm(res Resource, act Action) string { return string(res) + ":" + string(act) }

// Principal is the authenticated caller.
type Principal struct {
	UserID int64
	Role   Role
}

func (p Principal) Authenticated() bool { return p.UserID != 0 && p.Role.Valid() }

type Checker struct {
	RolePermissions map[Role][]string
}

func NewChecker(rp map[Role][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role Role, perm string) bool {
	perms, ok := c.RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if matchPerm(p, perm) {
			return true
		}
	}
	return false
}

// Authorize checks authentication first, then the role matrix.
func (c *Checker) Authorize(p Principal, res Resource, act Action) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if !c.Has(p.Role, Perm(res, act)) {
		return ErrForbidden
	}
	return nil
}

var defaultChecker = NewChecker(nil)

// Authorize evaluates the default policy.
func Authorize(p Principal, res Resource, act Action) error {
	return defaultChecker.Authorize(p, res, act)
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
