package spotify

// Artist is the catalog view of a Spotify artist returned to API consumers.
type Artist struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Followers    int    `json:"followers"`
	URL          string `json:"url"`
	ProfileImage string `json:"profile_image"`
}

// ArtistSummary identifies the primary artist of an album.
type ArtistSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Album is the catalog view of a Spotify album returned to API consumers.
type Album struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	URL         string         `json:"url"`
	Image       string         `json:"image"`
	Artist      *ArtistSummary `json:"artist"`
}

// Token is a bearer token obtained from the accounts service. Cached
// reports whether it was served from the cache rather than freshly fetched.
type Token struct {
	Value  string
	Cached bool
}

// Upstream payload shapes, per the Spotify Web API reference.

type imageObject struct {
	URL string `json:"url"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type artistPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Followers struct {
		Total int `json:"total"`
	} `json:"followers"`
	ExternalURLs externalURLs  `json:"external_urls"`
	Images       []imageObject `json:"images"`
}

type albumArtistPayload struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type albumPayload struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	ReleaseDate  string               `json:"release_date"`
	ExternalURLs externalURLs         `json:"external_urls"`
	Images       []imageObject        `json:"images"`
	Artists      []albumArtistPayload `json:"artists"`
}

// firstImageURL returns the URL of the first image, or "" when the
// upstream payload carries none.
func firstImageURL(images []imageObject) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func (p artistPayload) toArtist() *Artist {
	return &Artist{
		ID:           p.ID,
		Name:         p.Name,
		Followers:    p.Followers.Total,
		URL:          p.ExternalURLs.Spotify,
		ProfileImage: firstImageURL(p.Images),
	}
}

func (p albumPayload) toAlbum() *Album {
	album := &Album{
		ID:          p.ID,
		Name:        p.Name,
		ReleaseDate: p.ReleaseDate,
		URL:         p.ExternalURLs.Spotify,
		Image:       firstImageURL(p.Images),
	}
	if len(p.Artists) > 0 {
		album.Artist = &ArtistSummary{
			ID:   p.Artists[0].ID,
			Name: p.Artists[0].Name,
			URL:  p.Artists[0].ExternalURLs.Spotify,
		}
	}
	return album
}
