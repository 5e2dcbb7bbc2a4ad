package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const (
	detailUnauthenticated = "Authentication credentials were not provided."
	detailForbidden       = "You do not have permission to perform this action."
	detailNotFound        = "Not found."
	detailInternal        = "internal error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeError maps service errors onto status codes. Validation failures carry
// the field map as the body.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	if v, ok := quiz.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, v.Fields)
		return
	}
	switch {
	case errors.Is(err, quiz.ErrUnauthenticated):
		writeDetail(w, http.StatusUnauthorized, detailUnauthenticated)
	case errors.Is(err, quiz.ErrForbidden):
		writeDetail(w, http.StatusForbidden, detailForbidden)
	case errors.Is(err, quiz.ErrNotFound):
		writeDetail(w, http.StatusNotFound, detailNotFound)
	case errors.Is(err, quiz.ErrInvalidState):
		writeDetail(w, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeDetail(w, http.StatusInternalServerError, detailInternal)
	}
}

// decodeBody reads a JSON request body into dst, answering 400 on malformed
// input.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. Anything that is not a positive
// integer cannot name a row, so it is answered with 404.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, detailNotFound)
		return 0, false
	}
	return id, true
}

func pageFrom(r *http.Request) quiz.Page {
	return quiz.Page{
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 0),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// pk is a primary-key reference in a request body. It accepts a JSON number
// or a numeric string.
type pk struct {
	ID  int64
	bad bool
}

func (p *pk) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	v, err := strconv.ParseInt(strings.Trim(s, `"`), 10, 64)
	if err != nil || v <= 0 {
		p.bad = true
		return nil
	}
	p.ID = v
	return nil
}

// checkPKs reports malformed references before the service runs.
func checkPKs(fields map[string]pk) error {
	var v quiz.ValidationError
	for name, p := range fields {
		if p.bad {
			v.Add(name, quiz.MsgInvalidInteger)
		}
	}
	return v.Err()
}

// queryID parses an optional integer filter from the query string.
func queryID(r *http.Request, name string, v *quiz.ValidationError) int64 {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v.Add(name, quiz.MsgInvalidInteger)
		return 0
	}
	return id
}
