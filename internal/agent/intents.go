package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/nlu"
)

// runIntent invokes the handler for a resolved intent.
func (a *Agent) runIntent(ctx context.Context, t *turn, intent nlu.Intent, e nlu.Entities) (Response, error) {
	t.route = intent.String()
	sess := t.sess

	switch intent {
	case nlu.Help:
		return Response{Text: helpText()}, nil
	case nlu.Goodbye:
		return a.goodbye(sess), nil
	case nlu.ListPlaylists:
		return a.listPlaylists(ctx, sess)
	case nlu.CreatePlaylist:
		if e.Playlist == "" {
			return Response{}, missingf("What should the new playlist be called?")
		}
		return a.createPlaylist(ctx, t, e.Playlist)
	case nlu.DeletePlaylist:
		if e.Playlist == "" {
			return Response{}, missingf("Which playlist should I delete?")
		}
		return a.deletePlaylist(ctx, t, e.Playlist)
	case nlu.ListSongs:
		if e.Playlist == "" {
			return Response{}, missingf("Which playlist do you want to see?")
		}
		return a.listSongs(ctx, sess, e.Playlist)
	case nlu.AddSong:
		if e.Song == "" || e.Playlist == "" {
			return Response{}, missingf("Please tell me which song to add and to which playlist.")
		}
		return a.addSong(ctx, t, e.Song, e.Artist, e.Playlist, "")
	case nlu.DeleteSong:
		if e.Song == "" || e.Playlist == "" {
			return Response{}, missingf("Please tell me which song to remove and from which playlist.")
		}
		return a.removeSong(ctx, t, e.Song, e.Playlist)
	case nlu.SearchSong:
		if e.Song == "" {
			return Response{}, missingf("Which song are you looking for?")
		}
		return a.lookup(ctx, e.Song, e.Artist, "")
	case nlu.RecommendSongs:
		if e.Playlist == "" {
			return Response{}, missingf("Which playlist should I recommend songs for?")
		}
		return a.recommend(ctx, sess, e.Playlist)
	case nlu.SongRelease:
		if e.Song == "" {
			return Response{}, missingf("Which song do you mean?")
		}
		return a.release(ctx, e.Song, e.Artist)
	case nlu.ArtistAlbumCount:
		if e.Artist == "" {
			return Response{}, missingf("Which artist do you mean?")
		}
		return a.albums(ctx, e.Artist)
	case nlu.DeleteSongPositional:
		if e.Playlist == "" {
			return Response{}, missingf("Which playlist should I remove songs from?")
		}
		return a.deletePositional(ctx, t, e)
	case nlu.AddSongPositional:
		if (e.Song == "" && e.Artist == "") || e.Playlist == "" {
			return Response{}, missingf("Please tell me which songs to add and to which playlist.")
		}
		return a.addPositional(ctx, t, e)
	case nlu.AddArtist:
		artist := e.Artist
		if artist == "" {
			artist = e.Song
		}
		if artist == "" || e.Playlist == "" {
			return Response{}, missingf("Please tell me which artist to add and to which playlist.")
		}
		return a.addArtist(ctx, t, artist, e.Playlist)
	}
	return Response{Text: msgFallback}, nil
}

// positional resolves how many items e.Input refers to and from which end.
func (a *Agent) positional(ctx context.Context, input string, names []string) ([]string, error) {
	picked, err := a.resolver.ResolveRange(ctx, input, names)
	switch {
	case errors.Is(err, nlu.ErrNoDirection):
		return nil, missingf("Please say whether you mean the first or the last songs.")
	case err != nil:
		return nil, missingf("I couldn't tell how many songs you mean.")
	}
	return picked, nil
}

// songCount renders n with the right form of "song".
func songCount(n int) string {
	if n == 1 {
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}

// deletePositional handles "remove the last two songs from rock". Each
// selected title is removed with all its case-insensitive duplicates.
func (a *Agent) deletePositional(ctx context.Context, t *turn, e nlu.Entities) (Response, error) {
	p, err := a.playlists.GetPlaylist(ctx, t.sess.Username(), e.Playlist)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", e.Playlist), "")
	}
	if p.Songs.Len() == 0 {
		return textf("Playlist %s is empty.", p.Name), nil
	}

	titles, err := a.positional(ctx, e.Input, p.Songs.Titles())
	if err != nil {
		return Response{}, err
	}

	_, n, err := a.playlists.RemoveSongs(ctx, t.sess.Username(), p.Name, titles)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", p.Name), "")
	}
	t.mutated = n > 0
	return textf("%s removed from %s.", songCount(n), p.Name), nil
}

// addPositional handles "add the first result for Hello to rock" and "add the
// first three songs by Queen to rock". A named song is searched for, optionally
// by artist; with only an artist the artist's songs are used. Either way the
// catalog's order decides what comes first.
func (a *Agent) addPositional(ctx context.Context, t *turn, e nlu.Entities) (Response, error) {
	if !t.sess.User.HasPlaylist(e.Playlist) {
		return Response{}, notFoundf("Playlist %s does not exist.", e.Playlist)
	}

	var (
		songs []models.Song
		err   error
	)
	if e.Song != "" {
		songs, err = a.search(ctx, e.Song, e.Artist, "")
	} else {
		songs, err = a.catalog.ByArtist(ctx, e.Artist)
	}
	if err != nil {
		return Response{}, err
	}
	if len(songs) == 0 {
		if e.Song == "" {
			return Response{}, notFoundf("I couldn't find any songs by %s.", e.Artist)
		}
		return Response{}, notFoundf("I couldn't find any songs matching %s.", describeQuery(e.Song, e.Artist))
	}

	labels := make([]string, len(songs))
	byLabel := make(map[string]models.Song, len(songs))
	for i, s := range songs {
		labels[i] = s.String()
		byLabel[labels[i]] = s
	}

	picked, err := a.positional(ctx, e.Input, labels)
	if err != nil {
		return Response{}, err
	}

	selected := make([]models.Song, 0, len(picked))
	for _, l := range picked {
		selected = append(selected, byLabel[l])
	}
	if _, err := a.playlists.AddSongs(ctx, t.sess.Username(), e.Playlist, selected); err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", e.Playlist), "")
	}
	t.mutated = true
	if e.Song != "" {
		return textf("%s added to %s: %s.", songCount(len(selected)), e.Playlist, strings.Join(picked, ", ")), nil
	}
	return textf("%s by %s added to %s.", songCount(len(selected)), e.Artist, e.Playlist), nil
}

// addArtist adds a random song by artist that the playlist does not have yet.
func (a *Agent) addArtist(ctx context.Context, t *turn, artist, playlist string) (Response, error) {
	p, err := a.playlists.GetPlaylist(ctx, t.sess.Username(), playlist)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", playlist), "")
	}

	songs, err := a.catalog.ByArtist(ctx, artist)
	if err != nil {
		return Response{}, err
	}

	var fresh []models.Song
	for _, s := range songs {
		if !p.Songs.ContainsTitle(s.Title) {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		if len(songs) == 0 {
			return Response{}, notFoundf("I couldn't find any songs by %s.", artist)
		}
		return textf("All available songs by %s are already in %s.", artist, playlist), nil
	}

	return a.appendSong(ctx, t, fresh[a.pick(len(fresh))], playlist)
}
