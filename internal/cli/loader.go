package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/mnemo/internal/dictionary"
	"github.com/roach88/mnemo/internal/store"
	"github.com/roach88/mnemo/internal/trie"
)

// Error codes for structured output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeMalformed    = "E003" // Malformed dictionary
	ErrCodeKeySpec      = "E004" // Unparsable key script
	ErrCodeStore        = "E005" // Trace store error
	ErrCodeDiverged     = "E006" // Replay diverged
	ErrCodeNoDictionary = "E007" // No dictionary given or configured
	ErrCodeTestFailed   = "E008" // Harness scenario failed
)

// dictionaryPath picks the dictionary: an explicit argument wins over the
// configured path.
func (o *RootOptions) dictionaryPath(arg string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if p := o.config().Dictionary.Path; p != "" {
		return p, nil
	}
	return "", NewExitError(ExitCommandError,
		fmt.Sprintf("%s: no dictionary given and none configured (set [dictionary] path or MNEMO_DICTIONARY)", ErrCodeNoDictionary))
}

// loadDictionary loads a dictionary and maps failures to exit errors.
func loadDictionary(path string) (*dictionary.Dictionary, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: dictionary not found: %s", ErrCodeNotFound, path))
	}
	d, err := dictionary.Load(path)
	if err != nil {
		if trie.IsMalformed(err) {
			return nil, WrapExitError(ExitCommandError, ErrCodeMalformed+": malformed dictionary", err)
		}
		return nil, WrapExitError(ExitCommandError, ErrCodeGeneric+": failed to load dictionary", err)
	}
	return d, nil
}

// openStore opens the trace database. An existing file is required unless
// create is set.
func openStore(path string, create bool) (*store.Store, error) {
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: database not found: %s", ErrCodeNotFound, path))
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, ErrCodeStore+": failed to open database", err)
	}
	return st, nil
}

// storePath picks the database: the flag wins over the configured path.
func (o *RootOptions) storePath(flag string) string {
	if flag != "" {
		return flag
	}
	return o.config().Store.Path
}
