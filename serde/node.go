package serde

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// KindField is the key under which every dumped object stores its discriminator.
const KindField = "kind"

// Node is the structural form of one object.
type Node = map[string]any

// Kind returns the discriminator stored in n, if any.
func Kind(n Node) (string, bool) {
	k, ok := n[KindField].(string)
	if !ok || k == "" {
		return "", false
	}
	return k, true
}

// Format names a textual encoding of a Node tree.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Encode renders a Node tree in the given format.
func Encode(format Format, n Node) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(n)
	case FormatJSON:
		return json.MarshalIndent(n, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// Decode parses data produced by Encode back into a Node tree.
func Decode(format Format, data []byte) (Node, error) {
	n := Node{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("failed to parse YAML node: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("failed to parse JSON node: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return n, nil
}

// asNode accepts the map shapes produced by Dump and by the YAML and JSON decoders.
func asNode(v any) (Node, error) {
	switch n := v.(type) {
	case map[string]any:
		return n, nil
	case map[any]any:
		out := make(Node, len(n))
		for k, val := range n {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string key %v", ErrMalformed, k)
			}
			out[key] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected mapping, got %T", ErrMalformed, v)
	}
}
