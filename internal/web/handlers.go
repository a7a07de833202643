package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/sirupsen/logrus"

	"tunebase/internal/auth"
	"tunebase/internal/db"
	"tunebase/internal/spotify"
)

// AuthService handles registration, login, and bearer-token resolution.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*db.User, string, error)
	Login(ctx context.Context, email, password string) (*db.User, string, error)
	Authenticate(ctx context.Context, token string) (*db.User, error)
	Logout(ctx context.Context, userID string) error
}

// TokenProvider obtains the Spotify client-credentials token.
type TokenProvider interface {
	GetAccessToken(ctx context.Context) (spotify.Token, error)
}

// CatalogClient fetches catalog entities from Spotify.
type CatalogClient interface {
	GetArtist(ctx context.Context, artistID string) (*spotify.Artist, error)
	GetAlbum(ctx context.Context, albumID string) (*spotify.Album, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	auth    AuthService
	tokens  TokenProvider
	catalog CatalogClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authService AuthService, tokens TokenProvider, catalog CatalogClient) *Handlers {
	return &Handlers{
		auth:    authService,
		tokens:  tokens,
		catalog: catalog,
	}
}

// userView is the JSON shape of a user in API responses.
type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u *db.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

// Register creates a new account (POST /api/register).
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if msg := validateRegister(req); msg != "" {
		respondError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, auth.ErrEmailTaken) {
		respondError(w, http.StatusUnprocessableEntity, "email already registered")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Registering user")
		respondError(w, http.StatusInternalServerError, "could not register user")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{User: toUserView(user), Token: token})
}

// Login authenticates an existing account (POST /api/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Email == "" || len(req.Password) < minPasswordLength {
		respondError(w, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Logging in user")
		respondError(w, http.StatusInternalServerError, "could not log in")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: toUserView(user), Token: token})
}

// Logout revokes all tokens of the authenticated user (POST /api/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		logrus.WithError(err).Error("Revoking user tokens")
		respondError(w, http.StatusInternalServerError, "could not log out")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// CurrentUser returns the authenticated user (GET /api/user).
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	respondJSON(w, http.StatusOK, toUserView(user))
}

const minPasswordLength = 6

func validateRegister(req registerRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "a valid email is required"
	}
	if len(req.Password) < minPasswordLength {
		return "password must be at least 6 characters"
	}
	if req.Password != req.PasswordConfirmation {
		return "password confirmation does not match"
	}
	return ""
}
