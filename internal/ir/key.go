package ir

import "fmt"

// KeyKind identifies the kind of a key event.
type KeyKind string

const (
	KeyUp         KeyKind = "up"
	KeyDown       KeyKind = "down"
	KeyLeft       KeyKind = "left"
	KeyRight      KeyKind = "right"
	KeyBackspace  KeyKind = "backspace"
	KeyEnter      KeyKind = "enter"
	KeyCharacters KeyKind = "characters"
)

// Key is a single key event delivered to the engine.
// Text is only meaningful for KeyCharacters and may hold more than one rune.
type Key struct {
	Kind KeyKind `json:"kind"`
	Text string  `json:"text,omitempty"`
}

func Up() Key        { return Key{Kind: KeyUp} }
func Down() Key      { return Key{Kind: KeyDown} }
func Left() Key      { return Key{Kind: KeyLeft} }
func Right() Key     { return Key{Kind: KeyRight} }
func Backspace() Key { return Key{Kind: KeyBackspace} }
func Enter() Key     { return Key{Kind: KeyEnter} }

// Characters returns a text key carrying s verbatim.
func Characters(s string) Key { return Key{Kind: KeyCharacters, Text: s} }

// Char returns a text key carrying exactly one rune.
func Char(r rune) Key { return Key{Kind: KeyCharacters, Text: string(r)} }

// IsNavigation reports whether k moves the candidate window.
func (k Key) IsNavigation() bool {
	switch k.Kind {
	case KeyUp, KeyDown, KeyLeft, KeyRight:
		return true
	}
	return false
}

// Validate checks that the key is well-formed.
func (k Key) Validate() error {
	switch k.Kind {
	case KeyUp, KeyDown, KeyLeft, KeyRight, KeyBackspace, KeyEnter:
		if k.Text != "" {
			return fmt.Errorf("key %s must not carry text", k.Kind)
		}
		return nil
	case KeyCharacters:
		return nil
	default:
		return fmt.Errorf("unknown key kind %q", k.Kind)
	}
}

// String returns the key in key-spec notation.
func (k Key) String() string {
	return FormatKey(k)
}
