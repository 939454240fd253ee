package dictionary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// decode turns source bytes into a generic tree of map[string]any, []any,
// string, json.Number, bool and nil.
func decode(data []byte, format Format, filename string) (any, error) {
	switch format {
	case FormatYAML:
		return decodeYAML(data)
	case FormatCUE:
		return decodeCUE(data, filename)
	case FormatJSON, "":
		return decodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after top-level value")
	}
	return tree, nil
}

func decodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	return DecodeYAMLNode(&doc)
}

// DecodeYAMLNode converts a YAML node into a generic tree. Mapping keys
// keep their literal text (so "1" and "y" stay one-character edges instead
// of becoming numbers or booleans) and scalars become strings, except null.
func DecodeYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return DecodeYAMLNode(n.Content[0])

	case yaml.AliasNode:
		return DecodeYAMLNode(n.Alias)

	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			if _, dup := m[k.Value]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
			}
			child, err := DecodeYAMLNode(v)
			if err != nil {
				return nil, err
			}
			m[k.Value] = child
		}
		return m, nil

	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			child, err := DecodeYAMLNode(item)
			if err != nil {
				return nil, err
			}
			list = append(list, child)
		}
		return list, nil

	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return n.Value, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
}
