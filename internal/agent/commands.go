package agent

import (
	"regexp"
	"slices"
	"strings"

	"github.com/desertthunder/musicagent/internal/shared"
)

// Command is an explicit slash command.
type Command int

const (
	CmdUnknown Command = iota
	CmdHelp
	CmdExit
	CmdLogin
	CmdRegister
	CmdListPlaylists
	CmdCreatePlaylist
	CmdDeletePlaylist
	CmdListSongs
	CmdAddSong
	CmdRemoveSong
	CmdLookup
	CmdSelect
	CmdRecommend
	CmdRecommendAdd
	CmdDone
	CmdRelease
	CmdAlbums
	CmdPlaylist
)

// arity describes how a command's argument text is split.
type arity int

const (
	noArgs      arity = iota // nothing after the command
	oneToken                 // exactly one word
	oneOrTwo                 // one or two words
	restOfLine               // any non-empty text
	songTarget               // "<song> [by <artist>] to <playlist>"
	songFrom                 // "<song> from <playlist>" or "<song> <playlist>"
	songByArtist             // "<song> [by <artist>]"
)

type commandSpec struct {
	cmd      Command
	name     string
	syntax   string
	help     string
	arity    arity
	loggedIn bool
	hidden   bool
}

var commandTable = []commandSpec{
	{cmd: CmdHelp, name: "help", syntax: "/help", help: "show this message", arity: noArgs},
	{cmd: CmdExit, name: "exit", syntax: "/exit", help: "end the conversation", arity: noArgs},
	{cmd: CmdLogin, name: "login", syntax: "/login <username>", help: "log in", arity: oneToken},
	{cmd: CmdRegister, name: "register", syntax: "/register <username> [email]", help: "create an account", arity: oneOrTwo},
	{cmd: CmdListPlaylists, name: "list_playlists", syntax: "/list_playlists", help: "list your playlists", arity: noArgs, loggedIn: true},
	{cmd: CmdCreatePlaylist, name: "create_playlist", syntax: "/create_playlist <name>", help: "create an empty playlist", arity: restOfLine, loggedIn: true},
	{cmd: CmdDeletePlaylist, name: "delete_playlist", syntax: "/delete_playlist <name>", help: "delete a playlist", arity: restOfLine, loggedIn: true},
	{cmd: CmdListSongs, name: "list_songs", syntax: "/list_songs <playlist>", help: "list the songs of a playlist", arity: restOfLine, loggedIn: true},
	{cmd: CmdAddSong, name: "add_song", syntax: "/add_song <song> [by <artist>] to <playlist>", help: "add a song to a playlist", arity: songTarget, loggedIn: true},
	{cmd: CmdRemoveSong, name: "remove_song", syntax: "/remove_song <song> from <playlist>", help: "remove a song from a playlist", arity: songFrom, loggedIn: true},
	{cmd: CmdLookup, name: "lookup", syntax: "/lookup <song> [by <artist>]", help: "search the catalog", arity: songByArtist, loggedIn: true},
	{cmd: CmdLookup, name: "search", syntax: "/search <song> [by <artist>]", arity: songByArtist, loggedIn: true, hidden: true},
	{cmd: CmdRecommend, name: "recommend", syntax: "/recommend <playlist>", help: "suggest songs for a playlist", arity: restOfLine, loggedIn: true},
	{cmd: CmdRelease, name: "release", syntax: "/release <song> [by <artist>]", help: "show when a song was released", arity: songByArtist, loggedIn: true},
	{cmd: CmdAlbums, name: "albums", syntax: "/albums <artist>", help: "count an artist's albums", arity: restOfLine, loggedIn: true},
	{cmd: CmdPlaylist, name: "playlist", syntax: "/playlist <description>", help: "create a playlist from a description", arity: restOfLine, loggedIn: true},
	{cmd: CmdSelect, name: "select", syntax: "/select <song> by <artist> to <playlist>", arity: songTarget, loggedIn: true, hidden: true},
	{cmd: CmdRecommendAdd, name: "recommend_add", syntax: "/recommend_add <song> by <artist> to <playlist>", arity: songTarget, loggedIn: true, hidden: true},
	{cmd: CmdDone, name: "done", syntax: "/done", arity: noArgs, loggedIn: true, hidden: true},
}

func (c Command) spec() commandSpec {
	i := slices.IndexFunc(commandTable, func(s commandSpec) bool { return s.cmd == c })
	if i < 0 {
		return commandSpec{cmd: CmdUnknown, name: "unknown"}
	}
	return commandTable[i]
}

// Name is the command word without the slash.
func (c Command) Name() string { return c.spec().name }

// Syntax is the usage line shown when arguments do not fit.
func (c Command) Syntax() string { return c.spec().syntax }

func lookupCommand(name string) Command {
	name = strings.ToLower(name)
	for _, s := range commandTable {
		if s.name == name {
			return s.cmd
		}
	}
	return CmdUnknown
}

// args holds a parsed command's arguments. Which fields are set depends on the command's arity.
type args struct {
	Text     string // restOfLine argument, or first token
	Second   string // second token of oneOrTwo
	Title    string
	Artist   string
	Playlist string
	// Raw is the song text before splitting off an artist, used when the split guessed wrong.
	Raw string
}

// invocation is a parsed command line.
type invocation struct {
	cmd  Command
	args args
}

var (
	toPattern   = regexp.MustCompile(`(?i)\s+to\s+`)
	byPattern   = regexp.MustCompile(`(?i)\s+by\s+`)
	fromPattern = regexp.MustCompile(`(?i)\s+from\s+`)
)

// parseCommand splits text (which starts with "/") into a command and its arguments.
// playlists are the user's playlist names, used to split "to <playlist>" when the
// song title itself contains " to ".
func parseCommand(text string, playlists []string) (invocation, error) {
	word, rest, _ := strings.Cut(shared.CollapseSpaces(strings.TrimPrefix(text, "/")), " ")
	cmd := lookupCommand(word)
	if cmd == CmdUnknown {
		return invocation{cmd: CmdUnknown, args: args{Text: word}}, nil
	}

	spec := cmd.spec()
	usage := shared.NewUsageError(spec.name, spec.syntax)
	fields := strings.Fields(rest)

	var a args
	switch spec.arity {
	case noArgs:
		if len(fields) != 0 {
			return invocation{}, usage
		}
	case oneToken:
		if len(fields) != 1 {
			return invocation{}, usage
		}
		a.Text = fields[0]
	case oneOrTwo:
		if len(fields) < 1 || len(fields) > 2 {
			return invocation{}, usage
		}
		a.Text = fields[0]
		if len(fields) == 2 {
			a.Second = fields[1]
		}
	case restOfLine:
		if rest == "" {
			return invocation{}, usage
		}
		a.Text = rest
	case songTarget:
		song, playlist, ok := splitPlaylist(rest, toPattern, playlists)
		if !ok {
			return invocation{}, usage
		}
		a.Raw = song
		a.Title, a.Artist = splitArtist(song)
		a.Playlist = playlist
	case songFrom:
		song, playlist, ok := splitPlaylist(rest, fromPattern, playlists)
		if !ok {
			if len(fields) != 2 {
				return invocation{}, usage
			}
			song, playlist = fields[0], fields[1]
		}
		a.Title, a.Playlist = song, playlist
	case songByArtist:
		if rest == "" {
			return invocation{}, usage
		}
		a.Raw = rest
		a.Title, a.Artist = splitArtist(rest)
	}

	return invocation{cmd: cmd, args: a}, nil
}

// splitPlaylist splits text at a separator into (left, playlist). When the
// separator occurs several times, the split whose right side names an
// existing playlist wins, then the last occurrence.
func splitPlaylist(text string, sep *regexp.Regexp, playlists []string) (string, string, bool) {
	matches := sep.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return "", "", false
	}

	pick := matches[len(matches)-1]
	for _, m := range slices.Backward(matches) {
		if slices.Contains(playlists, text[m[1]:]) {
			pick = m
			break
		}
	}

	left, right := strings.TrimSpace(text[:pick[0]]), strings.TrimSpace(text[pick[1]:])
	if left == "" || right == "" {
		return "", "", false
	}
	return left, right, true
}

// splitArtist splits "<title> by <artist>" at the last " by ". Text without one is all title.
func splitArtist(text string) (title, artist string) {
	matches := byPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, ""
	}
	m := matches[len(matches)-1]
	title, artist = strings.TrimSpace(text[:m[0]]), strings.TrimSpace(text[m[1]:])
	if title == "" || artist == "" {
		return text, ""
	}
	return title, artist
}

// helpText lists the visible commands.
func helpText() string {
	var b strings.Builder
	b.WriteString("You can talk to me in plain English or use these commands:\n")
	for _, s := range commandTable {
		if s.hidden {
			continue
		}
		b.WriteString("  " + s.syntax + " - " + s.help + "\n")
	}
	b.WriteString("For example: \"add Bohemian Rhapsody to rock\" or \"remove the last two songs from rock\".")
	return b.String()
}
