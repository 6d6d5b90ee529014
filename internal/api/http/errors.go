package http

import (
	"errors"
	"net/http"

	"github.com/annapoorna-info/certexam/internal/cert"
	"github.com/annapoorna-info/certexam/internal/exam"
	"github.com/annapoorna-info/certexam/internal/source"
)

// statusOf maps core error classes to HTTP statuses. Unknown errors are
// internal; transport-level source failures are a bad gateway so clients
// can distinguish "retry later" from "fix the sheet".
func statusOf(err error) int {
	switch {
	case errors.Is(err, exam.ErrOrgNotFound),
		errors.Is(err, exam.ErrExamNotFound),
		errors.Is(err, exam.ErrAttemptNotFound),
		errors.Is(err, exam.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrResultExists):
		return http.StatusConflict
	case errors.Is(err, exam.ErrPoolUnavailable):
		return http.StatusConflict
	case errors.Is(err, source.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, source.ErrNoQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cert.ErrNotEligible):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusOf(err))
}
