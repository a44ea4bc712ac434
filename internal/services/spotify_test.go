package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/musicagent/internal/shared"
)

var testCreds = shared.SpotifyConfig{ClientID: "test_client_id", ClientSecret: "test_client_secret"}

// newSpotifyServer fakes the token endpoint and the two API endpoints the service calls.
func newSpotifyServer(t *testing.T, search string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "test_token", "token_type": "bearer", "expires_in": 3600})
	})

	mux.HandleFunc("GET /v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test_token" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("type") != "playlist" {
			http.Error(w, `{"error":"bad type"}`, http.StatusBadRequest)
			return
		}
		io.WriteString(w, search)
	})

	mux.HandleFunc("GET /v1/playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "pl1" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"items": [
			{"track": {"id": "t1", "name": "Wonderwall", "artists": [{"name": "Oasis"}, {"name": "Guest"}], "album": {"name": "(What's the Story) Morning Glory?", "release_date": "1995-10-02"}}},
			{"track": null},
			{"track": {"id": "t2", "name": "Song 2", "artists": [{"name": "Blur"}], "album": {"name": "Blur", "release_date": "1997"}}}
		]}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestSpotify(t *testing.T, srv *httptest.Server) *SpotifyService {
	t.Helper()
	s, err := NewSpotifyService(context.Background(), testCreds, SpotifyOptions{
		TokenURL:   srv.URL + "/api/token",
		BaseURL:    srv.URL + "/v1",
		HTTPClient: srv.Client(),
	}, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return s
}

func TestSpotifyService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			s, err := NewSpotifyService(ctx, testCreds, SpotifyOptions{}, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if s.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", s.Name())
			}
			if s.baseURL != spotifyBaseURL {
				t.Errorf("expected default base URL, got %s", s.baseURL)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(ctx, shared.SpotifyConfig{ClientID: "test_client_id"}, SpotifyOptions{}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Placeholder Credentials", func(t *testing.T) {
			placeholder := shared.SpotifyConfig{ClientID: "your_spotify_client_id", ClientSecret: "your_spotify_client_secret"}
			if _, err := NewSpotifyService(ctx, placeholder, SpotifyOptions{}, nil); err == nil {
				t.Error("expected placeholder credentials to be rejected")
			}
		})
	})

	t.Run("SearchSongs", func(t *testing.T) {
		srv := newSpotifyServer(t, `{"playlists": {"items": [null, {"id": "pl1", "name": "Britpop Classics"}]}}`)
		s := newTestSpotify(t, srv)

		songs, err := s.SearchSongs(ctx, "britpop", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(songs))
		}

		first := songs[0]
		if first.Title != "Wonderwall" || first.Artist != "Oasis" || first.Year != 1995 {
			t.Errorf("unexpected song %+v", first)
		}
		if songs[1].Year != 1997 || songs[1].Album != "Blur" {
			t.Errorf("unexpected song %+v", songs[1])
		}
	})

	t.Run("No Playlist Found", func(t *testing.T) {
		srv := newSpotifyServer(t, `{"playlists": {"items": []}}`)
		s := newTestSpotify(t, srv)

		_, err := s.SearchSongs(ctx, "nothing at all", 10)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("API Error", func(t *testing.T) {
		srv := newSpotifyServer(t, `{"playlists": {"items": [{"id": "missing", "name": "Gone"}]}}`)
		s := newTestSpotify(t, srv)

		_, err := s.SearchSongs(ctx, "gone", 10)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestTrackToSong(t *testing.T) {
	song := trackToSong(SpotifyTrack{Name: "Intro"})
	if song.Artist != "" || song.Year != 0 {
		t.Errorf("missing fields should stay empty, got %+v", song)
	}
}
