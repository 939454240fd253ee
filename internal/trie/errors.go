package trie

import (
	"errors"
	"fmt"
)

// ErrMalformedDictionary is matched by every MalformedDictionaryError via
// errors.Is.
var ErrMalformedDictionary = errors.New("malformed dictionary")

// ErrorCode categorizes dictionary problems.
type ErrorCode string

const (
	// CodeDecode indicates the source bytes are not valid structured data.
	CodeDecode ErrorCode = "DECODE"

	// CodeSchema indicates the decoded value does not have the nested-mapping shape.
	CodeSchema ErrorCode = "SCHEMA"

	// CodeNotMapping indicates a level that is not a mapping.
	CodeNotMapping ErrorCode = "NOT_MAPPING"

	// CodeKeyLength indicates an edge key that is not exactly one character.
	CodeKeyLength ErrorCode = "KEY_LENGTH"

	// CodeCandidates indicates a reserved key whose value is not a list of strings.
	CodeCandidates ErrorCode = "CANDIDATES"

	// CodeTooDeep indicates nesting beyond MaxDepth.
	CodeTooDeep ErrorCode = "TOO_DEEP"
)

// MalformedDictionaryError reports a dictionary that cannot become a trie.
type MalformedDictionaryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Path is the edge sequence leading to the offending level, empty at the root.
	Path string

	// Key is the offending mapping key, if any.
	Key string

	// Message is a human-readable description.
	Message string

	// Err is the underlying decode or schema error, if any.
	Err error
}

// Error implements the error interface.
func (e *MalformedDictionaryError) Error() string {
	loc := ""
	switch {
	case e.Key != "":
		loc = fmt.Sprintf(" (path=%q, key=%q)", e.Path, e.Key)
	case e.Path != "":
		loc = fmt.Sprintf(" (path=%q)", e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s%s: %v", e.Code, e.Message, loc, e.Err)
	}
	return fmt.Sprintf("%s: %s%s", e.Code, e.Message, loc)
}

// Is makes every MalformedDictionaryError match ErrMalformedDictionary.
func (e *MalformedDictionaryError) Is(target error) bool {
	return target == ErrMalformedDictionary
}

// Unwrap returns the underlying error.
func (e *MalformedDictionaryError) Unwrap() error { return e.Err }

// IsMalformed returns true if err is or wraps a MalformedDictionaryError.
// Uses errors.As to handle wrapped errors.
func IsMalformed(err error) bool {
	var me *MalformedDictionaryError
	return errors.As(err, &me)
}

// NewDecodeError wraps a parser failure.
func NewDecodeError(format string, err error) *MalformedDictionaryError {
	return &MalformedDictionaryError{
		Code:    CodeDecode,
		Message: fmt.Sprintf("cannot decode %s dictionary", format),
		Err:     err,
	}
}

// NewSchemaError wraps a shape violation found by schema validation.
func NewSchemaError(path string, err error) *MalformedDictionaryError {
	return &MalformedDictionaryError{
		Code:    CodeSchema,
		Path:    path,
		Message: "dictionary does not match the nested-mapping schema",
		Err:     err,
	}
}
