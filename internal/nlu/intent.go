package nlu

import "strings"

// Intent is the closed set of actions the assistant understands.
type Intent int

const (
	Unrecognized Intent = iota
	Help
	ListPlaylists
	CreatePlaylist
	DeletePlaylist
	ListSongs
	AddSong
	DeleteSong
	SearchSong
	RecommendSongs
	SongRelease
	ArtistAlbumCount
	DeleteSongPositional
	AddSongPositional
	AddArtist
	Goodbye
)

var intentNames = [...]string{
	Unrecognized:         "unrecognized",
	Help:                 "help",
	ListPlaylists:        "list_playlists",
	CreatePlaylist:       "create_playlist",
	DeletePlaylist:       "delete_playlist",
	ListSongs:            "list_songs",
	AddSong:              "add_song",
	DeleteSong:           "delete_song",
	SearchSong:           "search_song",
	RecommendSongs:       "recommend_songs",
	SongRelease:          "song_release",
	ArtistAlbumCount:     "artist_album_count",
	DeleteSongPositional: "delete_song_positional",
	AddSongPositional:    "add_song_positional",
	AddArtist:            "add_artist",
	Goodbye:              "goodbye",
}

// Names the model sometimes answers with instead of the canonical tag.
var intentAliases = map[string]Intent{
	"list_playlist":        ListSongs,
	"remove_song":          DeleteSong,
	"recommend":            RecommendSongs,
	"lookup":               SearchSong,
	"add_song_simulation":  AddArtist,
	"exit":                 Goodbye,
	"remove_song_position": DeleteSongPositional,
}

func (i Intent) String() string {
	if i < 0 || int(i) >= len(intentNames) {
		return intentNames[Unrecognized]
	}
	return intentNames[i]
}

// ParseIntent maps a tag to its [Intent]. Case, surrounding space and
// hyphens or spaces in place of underscores are tolerated. Unknown tags give [Unrecognized].
func ParseIntent(tag string) Intent {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.NewReplacer("-", "_", " ", "_").Replace(tag)

	for i, name := range intentNames {
		if name == tag {
			return Intent(i)
		}
	}
	if i, ok := intentAliases[tag]; ok {
		return i
	}
	return Unrecognized
}

// Entities are the slots extracted from a message. Empty strings mean absent.
// Input carries the raw message for handlers that need positional resolution.
type Entities struct {
	Playlist string
	Song     string
	Artist   string
	Input    string
}

// Map returns the present slots keyed by name.
func (e Entities) Map() map[string]string {
	m := make(map[string]string, 4)
	for k, v := range map[string]string{"playlist": e.Playlist, "song": e.Song, "artist": e.Artist, "input": e.Input} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}
