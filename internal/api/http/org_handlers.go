package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annapoorna-info/certexam/internal/exam"
)

// orgView is the public shape of an organization: certificate templates
// and question sources stay server-side.
type orgView struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Website string     `json:"website"`
	Logo    string     `json:"logo,omitempty"`
	Exams   []examView `json:"exams"`
}

type examView struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	NumberOfQuestions int     `json:"number_of_questions"`
	PassScore         float64 `json:"pass_score"`
}

func toOrgView(o exam.Organization) orgView {
	v := orgView{ID: o.ID, Name: o.Name, Website: o.Website, Logo: o.Logo, Exams: []examView{}}
	for _, e := range o.Exams {
		v.Exams = append(v.Exams, examView{
			ID: e.ID, Name: e.Name, Description: e.Description,
			Price: e.Price, NumberOfQuestions: e.NumberOfQuestions, PassScore: e.PassScore,
		})
	}
	return v
}

// GET /orgs — landing-page listing, public.
func ListOrganizationsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgs, err := store.ListOrganizations(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		views := make([]orgView, 0, len(orgs))
		for _, o := range orgs {
			views = append(views, toOrgView(o))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}

// GET /orgs/{orgID} — public.
func GetOrganizationHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := store.GetOrganization(r.Context(), chi.URLParam(r, "orgID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toOrgView(o))
	}
}
