package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tunebase/internal/auth"
	"tunebase/internal/db"
	"tunebase/internal/spotify"
)

type fakeAuthService struct {
	user       *db.User
	token      string
	err        error
	seenBearer string
	loggedOut  string
}

func (f *fakeAuthService) Register(ctx context.Context, name, email, password string) (*db.User, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.user, f.token, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*db.User, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.user, f.token, nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, token string) (*db.User, error) {
	f.seenBearer = token
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, userID string) error {
	f.loggedOut = userID
	return nil
}

type fakeTokenProvider struct {
	token spotify.Token
	err   error
}

func (f *fakeTokenProvider) GetAccessToken(ctx context.Context) (spotify.Token, error) {
	return f.token, f.err
}

type fakeCatalog struct {
	artist     *spotify.Artist
	album      *spotify.Album
	err        error
	lastArtist string
	lastAlbum  string
}

func (f *fakeCatalog) GetArtist(ctx context.Context, artistID string) (*spotify.Artist, error) {
	f.lastArtist = artistID
	return f.artist, f.err
}

func (f *fakeCatalog) GetAlbum(ctx context.Context, albumID string) (*spotify.Album, error) {
	f.lastAlbum = albumID
	return f.album, f.err
}

func testUser() *db.User {
	return &db.User{
		ID:        "user-1",
		Name:      "Alice",
		Email:     "alice@example.com",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func newTestRouter(authSvc *fakeAuthService, tokens *fakeTokenProvider, catalog *fakeCatalog) http.Handler {
	if authSvc == nil {
		authSvc = &fakeAuthService{user: testUser()}
	}
	if tokens == nil {
		tokens = &fakeTokenProvider{}
	}
	if catalog == nil {
		catalog = &fakeCatalog{}
	}
	return NewServer(":0", NewHandlers(authSvc, tokens, catalog)).Router()
}

func doRequest(t *testing.T, router http.Handler, method, target, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer valid-token")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func TestRegister_Handler(t *testing.T) {
	router := newTestRouter(&fakeAuthService{user: testUser(), token: "plain-token"}, nil, nil)

	body := `{"name": "Alice", "email": "alice@example.com", "password": "secret123", "password_confirmation": "secret123"}`
	rec := doRequest(t, router, http.MethodPost, "/api/register", body, false)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	decodeBody(t, rec, &resp)
	if resp.User.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", resp.User.Email)
	}
	if resp.Token != "plain-token" {
		t.Errorf("token = %q, want plain-token", resp.Token)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"invalid JSON", `{not json`, http.StatusBadRequest},
		{"missing name", `{"email": "a@b.com", "password": "secret123", "password_confirmation": "secret123"}`, http.StatusUnprocessableEntity},
		{"bad email", `{"name": "A", "email": "not-an-email", "password": "secret123", "password_confirmation": "secret123"}`, http.StatusUnprocessableEntity},
		{"short password", `{"name": "A", "email": "a@b.com", "password": "abc", "password_confirmation": "abc"}`, http.StatusUnprocessableEntity},
		{"confirmation mismatch", `{"name": "A", "email": "a@b.com", "password": "secret123", "password_confirmation": "different1"}`, http.StatusUnprocessableEntity},
	}

	router := newTestRouter(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/register", tt.body, false)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	router := newTestRouter(&fakeAuthService{err: auth.ErrEmailTaken}, nil, nil)

	body := `{"name": "Alice", "email": "alice@example.com", "password": "secret123", "password_confirmation": "secret123"}`
	rec := doRequest(t, router, http.MethodPost, "/api/register", body, false)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Message != "email already registered" {
		t.Errorf("message = %q, want %q", resp.Message, "email already registered")
	}
}

func TestLogin_Handler(t *testing.T) {
	router := newTestRouter(&fakeAuthService{user: testUser(), token: "fresh-token"}, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/login", `{"email": "alice@example.com", "password": "secret123"}`, false)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp authResponse
	decodeBody(t, rec, &resp)
	if resp.Token != "fresh-token" {
		t.Errorf("token = %q, want fresh-token", resp.Token)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router := newTestRouter(&fakeAuthService{err: auth.ErrInvalidCredentials}, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/login", `{"email": "alice@example.com", "password": "wrong-password"}`, false)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Message != "Invalid credentials" {
		t.Errorf("message = %q, want %q", resp.Message, "Invalid credentials")
	}
}

func TestCurrentUser_Handler(t *testing.T) {
	authSvc := &fakeAuthService{user: testUser()}
	router := newTestRouter(authSvc, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/user", "", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if authSvc.seenBearer != "valid-token" {
		t.Errorf("authenticated token = %q, want valid-token", authSvc.seenBearer)
	}

	var resp userView
	decodeBody(t, rec, &resp)
	if resp.ID != "user-1" {
		t.Errorf("user ID = %q, want user-1", resp.ID)
	}
}

func TestLogout_Handler(t *testing.T) {
	authSvc := &fakeAuthService{user: testUser()}
	router := newTestRouter(authSvc, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/logout", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if authSvc.loggedOut != "user-1" {
		t.Errorf("logged-out user = %q, want user-1", authSvc.loggedOut)
	}
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
	}

	router := newTestRouter(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	router := newTestRouter(&fakeAuthService{err: auth.ErrInvalidCredentials}, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/user", "", true)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGetAccessToken_Handler(t *testing.T) {
	tests := []struct {
		name        string
		token       spotify.Token
		wantMessage string
	}{
		{"fresh token", spotify.Token{Value: "abc"}, "access token obtained successfully"},
		{"cached token", spotify.Token{Value: "abc", Cached: true}, "access token obtained from cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(nil, &fakeTokenProvider{token: tt.token}, nil)

			rec := doRequest(t, router, http.MethodGet, "/api/get-spotify-access-token", "", true)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
			}

			var resp accessTokenResponse
			decodeBody(t, rec, &resp)
			if !resp.Success {
				t.Error("success = false, want true")
			}
			if resp.AccessToken != "abc" {
				t.Errorf("access_token = %q, want abc", resp.AccessToken)
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestGetAccessToken_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			"upstream status passes through",
			&spotify.UpstreamError{Status: http.StatusBadRequest, Message: "bad request: Invalid client"},
			http.StatusBadRequest,
			"bad request: Invalid client",
		},
		{
			"upstream server error",
			&spotify.UpstreamError{Status: http.StatusBadGateway, Message: "upstream server error, retry later"},
			http.StatusBadGateway,
			"upstream server error, retry later",
		},
		{
			"missing credentials",
			spotify.ErrMissingCredentials,
			http.StatusInternalServerError,
			"server misconfiguration: missing Spotify API credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(nil, &fakeTokenProvider{err: tt.err}, nil)

			rec := doRequest(t, router, http.MethodGet, "/api/get-spotify-access-token", "", true)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp errorResponse
			decodeBody(t, rec, &resp)
			if resp.Success {
				t.Error("success = true, want false")
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestGetArtist_Handler(t *testing.T) {
	catalog := &fakeCatalog{artist: &spotify.Artist{
		ID:        "4Z8W4fKeB5YxbusRsdQVPb",
		Name:      "Radiohead",
		Followers: 12345,
		URL:       "https://open.spotify.com/artist/4Z8W4fKeB5YxbusRsdQVPb",
	}}
	router := newTestRouter(nil, nil, catalog)

	rec := doRequest(t, router, http.MethodGet, "/api/artists/get-artist/4Z8W4fKeB5YxbusRsdQVPb", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if catalog.lastArtist != "4Z8W4fKeB5YxbusRsdQVPb" {
		t.Errorf("artist ID passed = %q, want 4Z8W4fKeB5YxbusRsdQVPb", catalog.lastArtist)
	}

	var resp artistResponse
	decodeBody(t, rec, &resp)
	if resp.Artist == nil || resp.Artist.Name != "Radiohead" {
		t.Errorf("artist = %+v, want Radiohead", resp.Artist)
	}
}

func TestGetArtist_TokenExpired(t *testing.T) {
	router := newTestRouter(nil, nil, &fakeCatalog{err: spotify.ErrTokenExpired})

	rec := doRequest(t, router, http.MethodGet, "/api/artists/get-artist/123", "", true)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Message != tokenExpiredMessage {
		t.Errorf("message = %q, want %q", resp.Message, tokenExpiredMessage)
	}
}

func TestGetAlbum_Handler(t *testing.T) {
	catalog := &fakeCatalog{album: &spotify.Album{
		ID:          "6dVIqQ8qmQ5GBnJ9shOYGE",
		Name:        "OK Computer",
		ReleaseDate: "1997-05-28",
	}}
	router := newTestRouter(nil, nil, catalog)

	rec := doRequest(t, router, http.MethodGet, "/api/albums/get-album/6dVIqQ8qmQ5GBnJ9shOYGE", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if catalog.lastAlbum != "6dVIqQ8qmQ5GBnJ9shOYGE" {
		t.Errorf("album ID passed = %q, want 6dVIqQ8qmQ5GBnJ9shOYGE", catalog.lastAlbum)
	}

	var resp albumResponse
	decodeBody(t, rec, &resp)
	if resp.Album == nil || resp.Album.Name != "OK Computer" {
		t.Errorf("album = %+v, want OK Computer", resp.Album)
	}
}

func TestGetAlbum_UpstreamError(t *testing.T) {
	router := newTestRouter(nil, nil, &fakeCatalog{
		err: &spotify.UpstreamError{Status: http.StatusServiceUnavailable, Message: "upstream server error, retry later"},
	})

	rec := doRequest(t, router, http.MethodGet, "/api/albums/get-album/123", "", true)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCatalogRoutes_RequireAuth(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	paths := []string{
		"/api/get-spotify-access-token",
		"/api/artists/get-artist/123",
		"/api/albums/get-album/123",
	}
	for _, path := range paths {
		rec := doRequest(t, router, http.MethodGet, path, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
