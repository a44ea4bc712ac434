package nlu

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/musicagent/internal/shared"
	tu "github.com/desertthunder/musicagent/internal/testing"
)

func newResolver(gen *tu.ScriptedGenerator) *Resolver {
	return NewResolver(gen, shared.NewLogger(io.Discard))
}

func TestParseIntent(t *testing.T) {
	tt := []struct {
		tag  string
		want Intent
	}{
		{tag: "add_song", want: AddSong},
		{tag: " Add-Song ", want: AddSong},
		{tag: "list playlists", want: ListPlaylists},
		{tag: "list_playlist", want: ListSongs},
		{tag: "add_song_simulation", want: AddArtist},
		{tag: "dance", want: Unrecognized},
		{tag: "", want: Unrecognized},
	}

	for _, tc := range tt {
		t.Run(tc.tag, func(t *testing.T) {
			if got := ParseIntent(tc.tag); got != tc.want {
				t.Errorf("ParseIntent(%q) = %v, want %v", tc.tag, got, tc.want)
			}
		})
	}

	t.Run("String round trips", func(t *testing.T) {
		for i := Unrecognized; i <= Goodbye; i++ {
			if i != Unrecognized && ParseIntent(i.String()) != i {
				t.Errorf("%v does not round trip", i)
			}
		}
		if Intent(99).String() != "unrecognized" {
			t.Error("out of range intents should print as unrecognized")
		}
	})
}

func TestParseEntities(t *testing.T) {
	tt := []struct {
		name   string
		answer string
		want   Entities
		err    bool
	}{
		{
			name:   "json",
			answer: `{"playlist": "rock", "song": "Bohemian Rhapsody", "artist": ""}`,
			want:   Entities{Playlist: "rock", Song: "Bohemian Rhapsody"},
		},
		{
			name:   "surrounded by prose and fences",
			answer: "Sure!\n```json\n{\"playlist\": \"chill\", \"song\": \"\", \"artist\": \"Bonobo\",}\n```",
			want:   Entities{Playlist: "chill", Artist: "Bonobo"},
		},
		{
			name:   "single-quoted literal",
			answer: `{'playlist': 'road trip', 'song': "Don't Stop Me Now", 'artist': None}`,
			want:   Entities{Playlist: "road trip", Song: "Don't Stop Me Now"},
		},
		{name: "missing braces", answer: `"playlist": "rock"`, err: true},
		{name: "garbage inside braces", answer: `{playlist: rock}`, err: true},
		{name: "unterminated literal", answer: `{'playlist': 'rock}`, err: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseEntities(tc.answer)
			if tc.err {
				if !errors.Is(err, shared.ErrResolution) {
					t.Errorf("expected ErrResolution, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("intent and entities", func(t *testing.T) {
		gen := tu.NewScriptedGenerator().
			On("Task: intent", "(add_song)").
			On("Task: entities", `{"playlist": "rock", "song": "Bohemian Rhapsody", "artist": ""}`)

		intent, entities := newResolver(gen).Resolve(ctx, "Add Bohemian Rhapsody to rock.")
		if intent != AddSong {
			t.Errorf("expected add_song, got %v", intent)
		}
		if entities.Playlist != "rock" || entities.Song != "Bohemian Rhapsody" || entities.Artist != "" {
			t.Errorf("unexpected entities %+v", entities)
		}
		if got := entities.Map(); len(got) != 2 {
			t.Errorf("empty slots should be dropped, got %v", got)
		}

		prompts := gen.Prompts()
		if len(prompts) != 2 || !strings.Contains(prompts[0], "Add Bohemian Rhapsody to rock.") {
			t.Errorf("expected the message in the intent prompt, got %q", prompts)
		}
	})

	tt := []struct {
		name string
		gen  *tu.ScriptedGenerator
	}{
		{
			name: "malformed entity payload",
			gen:  tu.NewScriptedGenerator().On("Task: intent", "(add_song)").On("Task: entities", `playlist: rock`),
		},
		{
			name: "intent without parentheses",
			gen:  tu.NewScriptedGenerator().On("Task: intent", "add_song").On("Task: entities", `{}`),
		},
		{
			name: "unknown intent",
			gen:  tu.NewScriptedGenerator().On("Task: intent", "(dance)").On("Task: entities", `{}`),
		},
		{
			name: "upstream error",
			gen:  tu.NewScriptedGenerator().Fail("Task: intent", errors.New("connection refused")),
		},
		{
			name: "entity call fails",
			gen:  tu.NewScriptedGenerator().On("Task: intent", "(help)").Fail("Task: entities", shared.ErrTimeout),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			intent, entities := newResolver(tc.gen).Resolve(ctx, "whatever")
			if intent != Unrecognized {
				t.Errorf("expected unrecognized, got %v", intent)
			}
			if entities != (Entities{}) {
				t.Errorf("expected empty entities, got %+v", entities)
			}
		})
	}
}

func TestResolveCount(t *testing.T) {
	ctx := context.Background()

	tt := []struct {
		name string
		gen  *tu.ScriptedGenerator
		want int
	}{
		{name: "parenthesized", gen: tu.NewScriptedGenerator().On("Task: count", "(2)"), want: 2},
		{name: "padded", gen: tu.NewScriptedGenerator().On("Task: count", "The answer is ( 3 )."), want: 3},
		{name: "zero passes through", gen: tu.NewScriptedGenerator().On("Task: count", "(0)"), want: 0},
		{name: "no number", gen: tu.NewScriptedGenerator().On("Task: count", "two"), want: DefaultCount},
		{name: "error", gen: tu.NewScriptedGenerator().Fail("Task: count", errors.New("down")), want: DefaultCount},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := newResolver(tc.gen).ResolveCount(ctx, "remove the last songs"); got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResolveRange(t *testing.T) {
	ctx := context.Background()
	names := []string{"A", "B", "C"}

	tt := []struct {
		name    string
		answer  string
		text    string
		want    []string
		wantErr error
	}{
		{name: "first song", answer: "(1)", text: "delete the first song from rock", want: []string{"A"}},
		{name: "last two songs", answer: "(2)", text: "delete the last two songs from rock", want: []string{"B", "C"}},
		{name: "count falls back to one", answer: "no idea", text: "delete the last songs", want: []string{"C"}},
		{name: "zero count", answer: "(0)", text: "delete the first zero songs", wantErr: ErrNoCount},
		{name: "no direction", answer: "(2)", text: "delete two songs", wantErr: ErrNoDirection},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			gen := tu.NewScriptedGenerator().On("Task: count", tc.answer)
			got, err := newResolver(gen).ResolveRange(ctx, tc.text, names)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("no direction skips the model", func(t *testing.T) {
		gen := tu.NewScriptedGenerator().On("Task: count", "(2)")
		if _, err := newResolver(gen).ResolveRange(ctx, "delete two songs", names); !errors.Is(err, ErrNoDirection) {
			t.Fatalf("expected ErrNoDirection, got %v", err)
		}
		if n := len(gen.Prompts()); n != 0 {
			t.Errorf("expected no prompts, got %d", n)
		}
	})
}

func TestSelectRange(t *testing.T) {
	names := []string{"A", "B", "C"}

	tt := []struct {
		name  string
		text  string
		count int
		want  []string
	}{
		{name: "first", text: "the FIRST two", count: 2, want: []string{"A", "B"}},
		{name: "last", text: "the last one", count: 1, want: []string{"C"}},
		{name: "count above length", text: "the last ten", count: 10, want: []string{"A", "B", "C"}},
		{name: "first wins over last", text: "first and last", count: 1, want: []string{"A"}},
		{name: "no direction", text: "two songs", count: 2, want: nil},
		{name: "zero count", text: "the first", count: 0, want: nil},
		{name: "negative count", text: "the first", count: -3, want: nil},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := SelectRange(tc.text, names, tc.count); !slices.Equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	t.Run("result does not alias input", func(t *testing.T) {
		got := SelectRange("first", names, 1)
		got[0] = "Z"
		if names[0] != "A" {
			t.Error("SelectRange should copy")
		}
	})
}
