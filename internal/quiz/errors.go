package quiz

import (
	"errors"
	"sort"
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

var (
	ErrUnauthenticated = rbac.ErrUnauthenticated
	ErrForbidden       = rbac.ErrForbidden
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
)

const (
	MsgRequired          = "This field is required."
	MsgEmptyList         = "This list may not be empty."
	MsgAlreadySubmitted  = "The assigment has already been submitted."
	MsgInvalidChoice     = "The choice is not an valid answer to the assignment's quiz."
	MsgDuplicateChoice   = "This choice has already been selected."
	MsgResubmit          = "The assignment has already been submitted."
	MsgNotQuizzee        = "The user is not a quizzee."
	MsgInvalidInteger    = "A valid integer is required."
	msgInvalidPKTemplate = `Invalid pk "%d" - object does not exist.`
)

// ValidationError maps field names to messages. Independent field checks add
// to the same value so they are reported together.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Err returns nil when nothing was added.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func Invalid(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
