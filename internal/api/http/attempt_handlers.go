package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/annapoorna-info/certexam/internal/auth/middleware"
	"github.com/annapoorna-info/certexam/internal/cert"
	"github.com/annapoorna-info/certexam/internal/exam"
)

// POST /orgs/{orgID}/exams/{examID}/attempts — samples a fresh subset and
// returns it without correct answers.
func StartAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		a, err := svc.StartAttempt(r.Context(), chi.URLParam(r, "orgID"), chi.URLParam(r, "examID"), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a.Public())
	}
}

type submitReq struct {
	Answers []exam.UserAnswer `json:"answers"`
}

// POST /attempts/{attemptID}/submit — grades against the attempt snapshot.
func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		result, err := svc.SubmitAttempt(r.Context(), chi.URLParam(r, "attemptID"), userID, req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

// POST /orgs/{orgID}/exams/{examID}/submit — the bare grading boundary.
// Requires the exam's pool to be cached already (an attempt was started
// in this process); otherwise responds 409.
func SubmitExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		result, err := svc.Submit(r.Context(), userID, chi.URLParam(r, "orgID"), chi.URLParam(r, "examID"), req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

// GET /results/{testID}
func GetResultHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		result, err := svc.GetResult(r.Context(), chi.URLParam(r, "testID"), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	}
}

// GET /results/{testID}/certificate?org={orgID} — assembles certificate
// data when the result qualifies; 403 when it does not.
func CertificateHandler(svc *exam.Service, store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := authmw.SubjectFromContext(ctx)
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		orgID := r.URL.Query().Get("org")
		if orgID == "" {
			http.Error(w, "org query param required", http.StatusBadRequest)
			return
		}

		result, err := svc.GetResult(ctx, chi.URLParam(r, "testID"), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		org, err := store.GetOrganization(ctx, orgID)
		if err != nil {
			writeErr(w, err)
			return
		}
		cfg, ok := org.Exam(result.ExamID)
		if !ok {
			writeErr(w, exam.ErrExamNotFound)
			return
		}

		data, err := cert.Evaluate(result, cfg, org, authmw.NameFromContext(ctx))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(data)
	}
}
