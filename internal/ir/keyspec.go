package ir

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Key-spec errors.
var (
	ErrEmptyKeySpec     = errors.New("empty key specification")
	ErrUnknownKeyName   = errors.New("unknown key name")
	ErrUnmatchedBracket = errors.New("unmatched bracket in key specification")
)

// KeySpecError reports where a key script could not be parsed.
type KeySpecError struct {
	Spec   string
	Offset int // byte offset of the offending token
	Token  string
	Err    error
}

func (e *KeySpecError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("key spec %q at offset %d: %v", e.Spec, e.Offset, e.Err)
	}
	return fmt.Sprintf("key spec %q at offset %d: %v: %s", e.Spec, e.Offset, e.Err, e.Token)
}

func (e *KeySpecError) Unwrap() error { return e.Err }

// namedKeys maps lower-cased <...> names to keys.
var namedKeys = map[string]Key{
	"up":        Up(),
	"down":      Down(),
	"left":      Left(),
	"right":     Right(),
	"pageup":    Left(),
	"pgup":      Left(),
	"pagedown":  Right(),
	"pgdn":      Right(),
	"bs":        Backspace(),
	"backspace": Backspace(),
	"cr":        Enter(),
	"enter":     Enter(),
	"return":    Enter(),
	"space":     Char(' '),
	"lt":        Char('<'),
	"gt":        Char('>'),
	"bslash":    Char('\\'),
}

// ParseKeys parses a key script into a key sequence.
//
// Every literal character becomes its own Characters key. Named keys use
// angle-bracket notation:
//   - "<Up>", "<Down>", "<Left>", "<Right>"
//   - "<PageUp>" and "<PageDown>" are aliases for Left and Right
//   - "<BS>", "<Backspace>", "<CR>", "<Enter>", "<Return>"
//   - "<Space>", "<lt>", "<gt>", "<Bslash>" for awkward literals
//
// Names are case-insensitive. An empty script parses to an empty sequence.
func ParseKeys(spec string) ([]Key, error) {
	keys := make([]Key, 0, len(spec))
	for i := 0; i < len(spec); {
		if spec[i] != '<' {
			r, size := utf8.DecodeRuneInString(spec[i:])
			keys = append(keys, Char(r))
			i += size
			continue
		}

		end := strings.IndexByte(spec[i:], '>')
		if end < 0 {
			return nil, &KeySpecError{Spec: spec, Offset: i, Token: spec[i:], Err: ErrUnmatchedBracket}
		}
		token := spec[i : i+end+1]
		name := strings.ToLower(strings.TrimSpace(token[1 : len(token)-1]))
		if name == "" {
			return nil, &KeySpecError{Spec: spec, Offset: i, Token: token, Err: ErrEmptyKeySpec}
		}
		k, ok := namedKeys[name]
		if !ok {
			return nil, &KeySpecError{Spec: spec, Offset: i, Token: token, Err: ErrUnknownKeyName}
		}
		keys = append(keys, k)
		i += end + 1
	}
	return keys, nil
}

// MustParseKeys is like ParseKeys but panics on error.
// Use only in tests or when the script is a literal.
func MustParseKeys(spec string) []Key {
	keys, err := ParseKeys(spec)
	if err != nil {
		panic(err)
	}
	return keys
}

// FormatKey renders one key in key-spec notation. Named keys use their
// canonical name; text keys are written literally with '<' escaped.
// A multi-rune text key formats to several literal characters, so
// ParseKeys(FormatKey(k)) splits it into one key per rune.
func FormatKey(k Key) string {
	switch k.Kind {
	case KeyUp:
		return "<Up>"
	case KeyDown:
		return "<Down>"
	case KeyLeft:
		return "<Left>"
	case KeyRight:
		return "<Right>"
	case KeyBackspace:
		return "<BS>"
	case KeyEnter:
		return "<CR>"
	case KeyCharacters:
		return strings.ReplaceAll(k.Text, "<", "<lt>")
	default:
		return fmt.Sprintf("<%s>", k.Kind)
	}
}

// FormatKeys renders a whole sequence; it is the inverse of ParseKeys for
// sequences of single-rune text keys.
func FormatKeys(keys []Key) string {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(FormatKey(k))
	}
	return b.String()
}
