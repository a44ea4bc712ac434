package nlu

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/musicagent/internal/shared"
)

var (
	parenPattern         = regexp.MustCompile(`\(([^()]*)\)`)
	countPattern         = regexp.MustCompile(`\(\s*(\d+)\s*\)`)
	objectPattern        = regexp.MustCompile(`(?s)\{.*?\}`)
	trailingCommaPattern = regexp.MustCompile(`,\s*}`)
)

// parseIntent reads the first parenthesized tag of answer.
func parseIntent(answer string) (Intent, error) {
	m := parenPattern.FindStringSubmatch(answer)
	if m == nil {
		return Unrecognized, fmt.Errorf("%w: no parenthesized intent in %q", shared.ErrResolution, answer)
	}
	intent := ParseIntent(m[1])
	if intent == Unrecognized {
		return Unrecognized, fmt.Errorf("%w: unknown intent %q", shared.ErrResolution, m[1])
	}
	return intent, nil
}

// parseCount reads the first parenthesized integer of answer.
func parseCount(answer string) (int, error) {
	m := countPattern.FindStringSubmatch(answer)
	if m == nil {
		return 0, fmt.Errorf("%w: no parenthesized count in %q", shared.ErrResolution, answer)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrResolution, err)
	}
	return n, nil
}

// parseEntities decodes the first flat object in answer. JSON and
// single-quoted literal dictionaries are both accepted; non-string values
// count as absent.
func parseEntities(answer string) (Entities, error) {
	raw := objectPattern.FindString(answer)
	if raw == "" {
		return Entities{}, fmt.Errorf("%w: no entity object in %q", shared.ErrResolution, answer)
	}
	raw = trailingCommaPattern.ReplaceAllString(raw, "}")

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		converted, cerr := literalToJSON(raw)
		if cerr != nil {
			return Entities{}, fmt.Errorf("%w: %v", shared.ErrResolution, cerr)
		}
		if err := json.Unmarshal([]byte(converted), &fields); err != nil {
			return Entities{}, fmt.Errorf("%w: malformed entity object: %v", shared.ErrResolution, err)
		}
	}

	str := func(key string) string {
		v, _ := fields[key].(string)
		return shared.CollapseSpaces(v)
	}
	return Entities{Playlist: str("playlist"), Song: str("song"), Artist: str("artist")}, nil
}

// literalToJSON rewrites a dictionary literal that uses single-quoted strings
// and None/True/False into JSON.
func literalToJSON(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			j, str, err := scanQuoted(s, i)
			if err != nil {
				return "", err
			}
			quoted, _ := json.Marshal(str)
			b.Write(quoted)
			i = j
		case strings.HasPrefix(s[i:], "None"):
			b.WriteString("null")
			i += len("None") - 1
		case strings.HasPrefix(s[i:], "True"):
			b.WriteString("true")
			i += len("True") - 1
		case strings.HasPrefix(s[i:], "False"):
			b.WriteString("false")
			i += len("False") - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// scanQuoted reads the string literal opening at s[start] and returns the index of its closing quote.
func scanQuoted(s string, start int) (int, string, error) {
	quote := s[start]
	var b strings.Builder
	for i := start + 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		case c == quote:
			return i, b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return 0, "", fmt.Errorf("unterminated string literal at offset %d", start)
}
