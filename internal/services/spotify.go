// Spotify API implementation of playlist-by-description search
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/desertthunder/musicagent/internal/metrics"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// maxPageSize is the largest limit the search and tracks endpoints accept.
	maxPageSize = 50
)

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for removed or local items.
type SpotifyPlaylistTrack struct {
	Track *SpotifyTrack `json:"track"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in search results).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type spotifySearchResponse struct {
	Playlists struct {
		Items []*SpotifySimplePlaylist `json:"items"`
	} `json:"playlists"`
}

type spotifyTracksResponse struct {
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyService searches public Spotify data with application credentials.
type SpotifyService struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// SpotifyOptions configure a [SpotifyService]. Zero values use Spotify's endpoints and no rate limit.
type SpotifyOptions struct {
	TokenURL          string
	BaseURL           string
	RequestsPerSecond float64
	// HTTPClient is used for token and API requests when set.
	HTTPClient *http.Client
}

// NewSpotifyService creates a Spotify service with the given application credentials.
func NewSpotifyService(ctx context.Context, creds shared.SpotifyConfig, opts SpotifyOptions, logger *log.Logger) (*SpotifyService, error) {
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
	}
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &SpotifyService{
		httpClient: cfg.Client(ctx),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		limiter:    limiter,
		logger:     shared.WithLogger(logger, "component", "spotify"),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) (err error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	defer func() { metrics.ObserveProvider("spotify", start, err) }()

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: spotify: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: spotify returned status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SearchPlaylist returns the best public playlist match for description.
func (s *SpotifyService) SearchPlaylist(ctx context.Context, description string) (*SpotifySimplePlaylist, error) {
	query := url.Values{"q": {description}, "type": {"playlist"}, "limit": {"5"}}

	var response spotifySearchResponse
	if err := s.doRequest(ctx, "/search", query, &response); err != nil {
		return nil, err
	}

	// Search results may contain null entries for playlists that were deleted.
	for _, p := range response.Playlists.Items {
		if p != nil && p.ID != "" {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: spotify playlist for %q", shared.ErrNotFound, description)
}

// PlaylistTracks returns up to limit tracks of a playlist.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]SpotifyTrack, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	query := url.Values{"limit": {strconv.Itoa(limit)}}
	var response spotifyTracksResponse
	if err := s.doRequest(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", query, &response); err != nil {
		return nil, err
	}

	tracks := make([]SpotifyTrack, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Track != nil && item.Track.Name != "" {
			tracks = append(tracks, *item.Track)
		}
	}
	return tracks, nil
}

// SearchSongs finds the playlist best matching description and returns up to limit of its tracks as songs.
func (s *SpotifyService) SearchSongs(ctx context.Context, description string, limit int) ([]models.Song, error) {
	playlist, err := s.SearchPlaylist(ctx, description)
	if err != nil {
		return nil, err
	}

	tracks, err := s.PlaylistTracks(ctx, playlist.ID, limit)
	if err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(tracks))
	for _, t := range tracks {
		songs = append(songs, trackToSong(t))
	}

	s.logger.Debug("spotify playlist search", "description", description, "playlist", playlist.Name, "songs", len(songs))
	return songs, nil
}

// trackToSong keeps the first credited artist and the release year of the album.
func trackToSong(t SpotifyTrack) models.Song {
	song := models.Song{Title: t.Name, Album: t.Album.Name}
	if len(t.Artists) > 0 {
		song.Artist = t.Artists[0].Name
	}
	if len(t.Album.ReleaseDate) >= 4 {
		song.Year, _ = strconv.Atoi(t.Album.ReleaseDate[:4])
	}
	return song
}
