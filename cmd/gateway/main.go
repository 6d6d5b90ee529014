package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/annapoorna-info/certexam/internal/api/http"
	"github.com/annapoorna-info/certexam/internal/audit"
	auth "github.com/annapoorna-info/certexam/internal/auth/middleware"
	"github.com/annapoorna-info/certexam/internal/config"
	"github.com/annapoorna-info/certexam/internal/db"
	"github.com/annapoorna-info/certexam/internal/exam"
	"github.com/annapoorna-info/certexam/internal/rbac"
	"github.com/annapoorna-info/certexam/internal/source"
	"github.com/annapoorna-info/certexam/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	store := exam.NewSQLStore(dbh)
	if err := exam.SeedIfEmpty(ctx, store, cfg.SeedPath); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

	events := audit.NewLog(dbh)
	pools := source.NewCache(source.NewHTTPFetcher(cfg.SourceFetchTimeout))
	svc := exam.NewService(store, pools, events)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public: signup/login, landing-page catalog, logo assets
	r.Post("/auth/signup", auth.SignupHandler(authSvc, dbh))
	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	r.Get("/orgs", api.ListOrganizationsHandler(store))
	r.Get("/orgs/{orgID}", api.GetOrganizationHandler(store))
	r.Route("/assets", func(ar chi.Router) {
		api.MountAssets(ar, bs)
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Candidate flow
		pr.With(rbac.Require("attempt:create")).
			Post("/orgs/{orgID}/exams/{examID}/attempts", api.StartAttemptHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/orgs/{orgID}/exams/{examID}/submit", api.SubmitExamHandler(svc))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{testID}", api.GetResultHandler(svc))
		pr.With(rbac.Require("certificate:view-own")).
			Get("/results/{testID}/certificate", api.CertificateHandler(svc, store))

		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Admin configuration
		pr.With(rbac.Require("org:update")).
			Put("/orgs/{orgID}/exams/{examID}", api.UpdateExamHandler(store, events))
		pr.With(rbac.Require("org:update")).
			Put("/orgs/{orgID}/templates/{templateID}", api.UpdateTemplateHandler(store, events))
		pr.With(rbac.Require("org:update")).
			Post("/orgs/{orgID}/logo", api.UploadLogoHandler(store, bs))
		pr.With(rbac.Require("org:view-full")).
			Get("/admin/orgs/{orgID}", api.AdminGetOrganizationHandler(store))
		pr.With(rbac.Require("source:invalidate")).
			Post("/admin/sources/invalidate", api.InvalidateSourceHandler(pools, events))
		pr.With(rbac.Require("audit:view")).
			Get("/admin/events", api.RecentEventsHandler(events))
	})

	log.Printf("gateway listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
