package dictionary

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a dictionary source encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks a format from a file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	default:
		return FormatJSON
	}
}

// ParseFormat parses a format name as accepted on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unknown dictionary format %q (expected json, yaml or cue)", name)
	}
}
