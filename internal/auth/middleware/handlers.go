package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// isUniqueViolation sniffs the driver error text; pgx says "duplicate key
// value violates unique constraint", modernc sqlite "UNIQUE constraint
// failed". Neither driver exposes a portable typed error here.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

// POST /auth/login  { "email": "...", "password": "..." }
func LoginHandler(a *AuthService, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		var id, name, role, hash string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, name, role, password_hash FROM users WHERE email=$1`,
			strings.ToLower(strings.TrimSpace(req.Email))).Scan(&id, &name, &role, &hash)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		tok, err := a.IssueJWT(id, name, role)
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, UserID: id, Name: name, Role: role})
	}
}

// POST /auth/signup  { "name": "...", "email": "...", "password": "..." }
// New accounts always get the "user" role; admins are promoted out of band.
func SignupHandler(a *AuthService, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if req.Name == "" || email == "" || req.Password == "" {
			http.Error(w, "name, email and password required", http.StatusBadRequest)
			return
		}

		// Fast path; the UNIQUE constraint on email is the real guard.
		var exists int
		err := db.QueryRowContext(r.Context(), `SELECT 1 FROM users WHERE email=$1`, email).Scan(&exists)
		if err == nil {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		if !errors.Is(err, sql.ErrNoRows) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		id := "user-" + uuid.NewString()
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (id, name, email, role, password_hash, created_at)
			 VALUES ($1,$2,$3,'user',$4,$5)`,
			id, req.Name, email, string(hash), time.Now().Unix())
		if err != nil {
			if isUniqueViolation(err) {
				http.Error(w, "email already registered", http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		tok, err := a.IssueJWT(id, req.Name, "user")
		if err != nil {
			http.Error(w, "issue token", 500)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: tok, UserID: id, Name: req.Name, Role: "user"})
	}
}
