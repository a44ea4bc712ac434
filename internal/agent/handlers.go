package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/musicagent/internal/catalog"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// runCommand executes a parsed slash command.
func (a *Agent) runCommand(ctx context.Context, t *turn, inv invocation) (Response, error) {
	sess := t.sess
	if inv.cmd == CmdUnknown {
		return textf("Unknown command /%s. Type /help to see what I can do.", inv.args.Text), nil
	}
	if inv.cmd.spec().loggedIn && !sess.LoggedIn() {
		return Response{}, shared.ErrNotLoggedIn
	}

	in := inv.args
	switch inv.cmd {
	case CmdHelp:
		return Response{Text: helpText()}, nil
	case CmdExit:
		return a.goodbye(sess), nil
	case CmdLogin:
		return a.login(ctx, sess, in.Text)
	case CmdRegister:
		return a.register(ctx, sess, in.Text, in.Second)
	case CmdListPlaylists:
		return a.listPlaylists(ctx, sess)
	case CmdCreatePlaylist:
		return a.createPlaylist(ctx, t, in.Text)
	case CmdDeletePlaylist:
		return a.deletePlaylist(ctx, t, in.Text)
	case CmdListSongs:
		return a.listSongs(ctx, sess, in.Text)
	case CmdAddSong:
		return a.addSong(ctx, t, in.Title, in.Artist, in.Playlist, in.Raw)
	case CmdRemoveSong:
		return a.removeSong(ctx, t, in.Title, in.Playlist)
	case CmdLookup:
		return a.lookup(ctx, in.Title, in.Artist, in.Raw)
	case CmdSelect:
		return a.selectSong(ctx, t, in.Title, in.Artist, in.Playlist)
	case CmdRecommend:
		return a.recommend(ctx, sess, in.Text)
	case CmdRecommendAdd:
		return a.recommendAdd(ctx, t, in.Title, in.Artist, in.Playlist)
	case CmdDone:
		sess.clearChoice()
		return Response{Text: msgThanks}, nil
	case CmdRelease:
		return a.release(ctx, in.Title, in.Artist)
	case CmdAlbums:
		return a.albums(ctx, in.Text)
	case CmdPlaylist:
		return a.playlistFromDescription(ctx, t, in.Text)
	}
	return Response{Text: msgFallback}, nil
}

func (a *Agent) goodbye(sess *Session) Response {
	sess.clearChoice()
	return Response{Text: msgGoodbye, Stop: true}
}

func (a *Agent) login(ctx context.Context, sess *Session, username string) (Response, error) {
	user, err := a.playlists.Login(ctx, username)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("User %s does not exist. Use /register %s to create it.", username, username), "")
	}
	sess.logout()
	sess.User = user
	return textf("Welcome back, %s! What can I help you with?", user.Username), nil
}

func (a *Agent) register(ctx context.Context, sess *Session, username, email string) (Response, error) {
	user, err := a.playlists.Register(ctx, username, email)
	if err != nil {
		return Response{}, explain(err, "", fmt.Sprintf("User %s already exists. Use /login %s instead.", username, username))
	}
	sess.logout()
	sess.User = user
	return textf("Welcome, %s! Your account is ready. Try /create_playlist <name> to get started.", user.Username), nil
}

func (a *Agent) listPlaylists(ctx context.Context, sess *Session) (Response, error) {
	lists, err := a.playlists.ListPlaylists(ctx, sess.Username())
	if err != nil {
		return Response{}, err
	}
	if len(lists) == 0 {
		return Response{Text: "You don't have any playlists yet."}, nil
	}

	var b strings.Builder
	b.WriteString("Your playlists:")
	for _, p := range lists {
		fmt.Fprintf(&b, "\n%s (%d songs)", p.Name, p.Songs.Len())
	}
	return Response{Text: b.String()}, nil
}

func (a *Agent) createPlaylist(ctx context.Context, t *turn, name string) (Response, error) {
	_, err := a.playlists.CreatePlaylist(ctx, t.sess.Username(), name)
	if err != nil {
		return Response{}, explain(err, "", fmt.Sprintf("Playlist %s already exists.", name))
	}
	t.mutated = true
	return textf("Playlist %s created.", name), nil
}

func (a *Agent) deletePlaylist(ctx context.Context, t *turn, name string) (Response, error) {
	_, err := a.playlists.DeletePlaylist(ctx, t.sess.Username(), name)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", name), "")
	}
	t.mutated = true
	return textf("Playlist %s deleted.", name), nil
}

func (a *Agent) listSongs(ctx context.Context, sess *Session, name string) (Response, error) {
	p, err := a.playlists.GetPlaylist(ctx, sess.Username(), name)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", name), "")
	}
	if p.Songs.Len() == 0 {
		return textf("Playlist %s is empty.", name), nil
	}
	return textf("Songs in %s:\n%s", name, catalog.Describe(p.Songs.All())), nil
}

// addSong searches the catalog and adds the only match, or offers up to the candidate limit when several match.
func (a *Agent) addSong(ctx context.Context, t *turn, title, artist, playlist, raw string) (Response, error) {
	if !t.sess.User.HasPlaylist(playlist) {
		return Response{}, notFoundf("Playlist %s does not exist.", playlist)
	}

	matches, err := a.search(ctx, title, artist, raw)
	if err != nil {
		return Response{}, err
	}

	res := Disambiguate(matches, playlist, a.limit)
	switch res.Kind {
	case NotFound:
		return Response{}, notFoundf("Song %s was not found.", describeQuery(title, artist))
	case MultipleChoice:
		t.sess.offer(res.Candidates)
		text := msgChooseOne
		if res.Total > len(res.Candidates) {
			text = fmt.Sprintf("%d songs found, showing the first %d. Please select one:", res.Total, len(res.Candidates))
		}
		return Response{Text: text, Candidates: res.Candidates}, nil
	}
	return a.appendSong(ctx, t, res.Song, playlist)
}

func (a *Agent) appendSong(ctx context.Context, t *turn, song models.Song, playlist string) (Response, error) {
	if _, err := a.playlists.AddSong(ctx, t.sess.Username(), playlist, song); err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", playlist), "")
	}
	t.mutated = true
	return textf("Song %s added to %s.", song, playlist), nil
}

// search looks up title and artist. When an artist was split off a command's
// raw text and nothing matches, the raw text is retried as a title, since
// titles like "Stand by Me" contain " by ".
func (a *Agent) search(ctx context.Context, title, artist, raw string) ([]models.Song, error) {
	matches, err := a.catalog.Search(ctx, title, artist)
	if err != nil || len(matches) > 0 || artist == "" || raw == "" || raw == title {
		return matches, err
	}
	return a.catalog.Search(ctx, raw, "")
}

func (a *Agent) removeSong(ctx context.Context, t *turn, title, playlist string) (Response, error) {
	_, n, err := a.playlists.RemoveSong(ctx, t.sess.Username(), playlist, title)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Playlist %s does not exist.", playlist), "")
	}
	if n == 0 {
		return textf("Song %s is not in %s.", title, playlist), nil
	}
	t.mutated = true
	return textf("Song %s removed from %s.", title, playlist), nil
}

func (a *Agent) lookup(ctx context.Context, title, artist, raw string) (Response, error) {
	matches, err := a.search(ctx, title, artist, raw)
	if err != nil {
		return Response{}, err
	}
	if len(matches) == 0 {
		return Response{}, notFoundf("No songs matching %s were found.", describeQuery(title, artist))
	}
	return textf("Found %d song(s):\n%s", len(matches), catalog.Describe(matches)), nil
}

// selectSong adds a candidate picked after a multiple choice. A payload that
// was not offered in this session is looked up directly.
func (a *Agent) selectSong(ctx context.Context, t *turn, title, artist, playlist string) (Response, error) {
	payload := fmt.Sprintf("/%s %s to %s", CmdSelect.Name(), models.Song{Title: title, Artist: artist}, playlist)
	if c, ok := t.sess.candidateFor(payload); ok && c.Song != nil {
		t.sess.clearChoice()
		return a.appendSong(ctx, t, *c.Song, playlist)
	}

	t.sess.clearChoice()
	song, err := a.catalog.Exact(ctx, title, artist)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("Song %s was not found.", describeQuery(title, artist)), "")
	}
	return a.appendSong(ctx, t, song, playlist)
}

func (a *Agent) release(ctx context.Context, title, artist string) (Response, error) {
	song, err := a.catalog.Release(ctx, title, artist)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("I couldn't find when %s was released.", describeQuery(title, artist)), "")
	}
	return textf("%s was released in %d.", song, song.Year), nil
}

func (a *Agent) albums(ctx context.Context, artist string) (Response, error) {
	albums, err := a.catalog.Albums(ctx, artist)
	if err != nil {
		return Response{}, explain(err, fmt.Sprintf("I couldn't find any albums by %s.", artist), "")
	}
	noun := "albums"
	if len(albums) == 1 {
		noun = "album"
	}
	return textf("%s has %d %s: %s.", artist, len(albums), noun, strings.Join(albums, ", ")), nil
}

// playlistFromDescription creates a playlist named after description and fills it from the song source.
func (a *Agent) playlistFromDescription(ctx context.Context, t *turn, description string) (Response, error) {
	if a.source == nil {
		return Response{Text: "Creating playlists from a description is not configured."}, nil
	}

	songs, err := a.source.SearchSongs(ctx, description, a.candidateLimit()*2)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Response{}, notFoundf("I couldn't find songs for %q.", description)
		}
		return Response{}, err
	}
	if len(songs) == 0 {
		return Response{}, notFoundf("I couldn't find songs for %q.", description)
	}

	_, err = a.playlists.CreatePlaylistWithSongs(ctx, t.sess.Username(), description, songs)
	if err != nil {
		return Response{}, explain(err, "", fmt.Sprintf("Playlist %s already exists.", description))
	}
	t.mutated = true
	return textf("Playlist %s created with %d songs:\n%s", description, len(songs), catalog.Describe(songs)), nil
}

func (a *Agent) candidateLimit() int {
	if a.limit <= 0 {
		return MaxCandidates
	}
	return a.limit
}

func describeQuery(title, artist string) string {
	if artist == "" {
		return title
	}
	return models.Song{Title: title, Artist: artist}.String()
}
