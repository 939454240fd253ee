package dictionary

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CUEError is a CUE evaluation failure with source position.
type CUEError struct {
	Message string
	Pos     token.Pos
}

func (e *CUEError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// decodeCUE evaluates a CUE dictionary. The file's top-level struct is the
// root level; it must be fully concrete.
//
//	l: a: ">>": ["λ"]
//	"\\": ">>": ["\\"]
func decodeCUE(data []byte, filename string) (any, error) {
	if filename == "" {
		filename = "dictionary.cue"
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return cueToTree(v)
}

func cueToTree(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m := make(map[string]any)
		for iter.Next() {
			child, err := cueToTree(iter.Value())
			if err != nil {
				return nil, err
			}
			m[iter.Selector().Unquoted()] = child
		}
		return m, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var list []any
		for iter.Next() {
			child, err := cueToTree(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, child)
		}
		if list == nil {
			list = []any{}
		}
		return list, nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil

	case cue.NullKind:
		return nil, nil

	default:
		// Numbers and booleans only ever appear in malformed dictionaries;
		// keep them so the schema check can say what was found.
		raw, err := v.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return decodeJSON(raw)
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CUEError{Message: first.Error(), Pos: positions[0]}
	}
	return &CUEError{Message: first.Error()}
}
