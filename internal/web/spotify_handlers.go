package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"tunebase/internal/spotify"
)

const tokenExpiredMessage = "spotify access token expired: request a new one via /api/get-spotify-access-token"

type accessTokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

type artistResponse struct {
	Artist  *spotify.Artist `json:"artist"`
	Message string          `json:"message"`
}

type albumResponse struct {
	Album   *spotify.Album `json:"album"`
	Message string         `json:"message"`
}

// GetAccessToken obtains (or serves from cache) the Spotify
// client-credentials token (GET /api/get-spotify-access-token).
func (h *Handlers) GetAccessToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.GetAccessToken(r.Context())
	if err != nil {
		h.respondSpotifyError(w, err)
		return
	}

	message := "access token obtained successfully"
	if token.Cached {
		message = "access token obtained from cache"
	}

	respondJSON(w, http.StatusOK, accessTokenResponse{
		Success:     true,
		AccessToken: token.Value,
		Message:     message,
	})
}

// GetArtist fetches an artist by ID (GET /api/artists/get-artist/{artistID}).
func (h *Handlers) GetArtist(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")

	artist, err := h.catalog.GetArtist(r.Context(), artistID)
	if err != nil {
		h.respondSpotifyError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, artistResponse{
		Artist:  artist,
		Message: "artist data retrieved successfully",
	})
}

// GetAlbum fetches an album by ID (GET /api/albums/get-album/{albumID}).
func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")

	album, err := h.catalog.GetAlbum(r.Context(), albumID)
	if err != nil {
		h.respondSpotifyError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, albumResponse{
		Album:   album,
		Message: "album data retrieved successfully",
	})
}

// respondSpotifyError maps token provider and catalog client errors onto
// HTTP responses: normalized upstream failures carry their own status
// code, the token-expired condition instructs re-acquisition, and a
// configuration fault is an operations problem reported as a 500.
func (h *Handlers) respondSpotifyError(w http.ResponseWriter, err error) {
	var upstreamErr *spotify.UpstreamError
	switch {
	case errors.As(err, &upstreamErr):
		respondError(w, upstreamErr.Status, upstreamErr.Message)
	case errors.Is(err, spotify.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, tokenExpiredMessage)
	case errors.Is(err, spotify.ErrMissingCredentials):
		logrus.Error("Spotify credentials are not configured")
		respondError(w, http.StatusInternalServerError, "server misconfiguration: missing Spotify API credentials")
	default:
		logrus.WithError(err).Error("Unexpected Spotify error")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
