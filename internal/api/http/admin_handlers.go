package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annapoorna-info/certexam/internal/audit"
	"github.com/annapoorna-info/certexam/internal/exam"
)

// Invalidator is the admin-facing slice of the pool cache.
type Invalidator interface {
	Invalidate(sourceURL string)
}

// PUT /orgs/{orgID}/exams/{examID} — explicit typed update; every numeric
// field is range-checked by Exam.Validate before the store sees it.
func UpdateExamHandler(store exam.Store, events *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := chi.URLParam(r, "orgID")
		var e exam.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e.ID = chi.URLParam(r, "examID")
		if err := e.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.UpdateExam(r.Context(), orgID, e); err != nil {
			writeErr(w, err)
			return
		}
		if events != nil {
			events.Record(r.Context(), "ExamUpdated", e.ID, map[string]string{"org_id": orgID})
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PUT /orgs/{orgID}/templates/{templateID}
func UpdateTemplateHandler(store exam.Store, events *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID := chi.URLParam(r, "orgID")
		var t exam.CertificateTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t.ID = chi.URLParam(r, "templateID")
		if err := t.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.UpdateTemplate(r.Context(), orgID, t); err != nil {
			writeErr(w, err)
			return
		}
		if events != nil {
			events.Record(r.Context(), "TemplateUpdated", t.ID, map[string]string{"org_id": orgID})
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/orgs/{orgID} — full organization including templates and
// question sources, for the admin editor.
func AdminGetOrganizationHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := store.GetOrganization(r.Context(), chi.URLParam(r, "orgID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(o)
	}
}

// POST /admin/sources/invalidate {"source_url": "..."} — drops the cached
// pool so the next attempt refetches the sheet.
func InvalidateSourceHandler(cache Invalidator, events *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SourceURL string `json:"source_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SourceURL == "" {
			http.Error(w, "source_url required", http.StatusBadRequest)
			return
		}
		cache.Invalidate(req.SourceURL)
		if events != nil {
			events.Record(r.Context(), "PoolInvalidated", req.SourceURL, nil)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /admin/events?limit=
func RecentEventsHandler(events *audit.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := events.Recent(r.Context(), parseIntDefault(r.URL.Query().Get("limit"), 50))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}
