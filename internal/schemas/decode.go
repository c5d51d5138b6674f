package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeJSON reads an invoke request. An empty body is an empty request.
// Numbers are kept as json.Number so question fields pass through unchanged.
func DecodeJSON(r io.Reader) (EnrichRequest, error) {
	var req EnrichRequest
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && err != io.EOF {
		return EnrichRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func DecodeYAML(r io.Reader) (EnrichRequest, error) {
	var req EnrichRequest
	if err := yaml.NewDecoder(r).Decode(&req); err != nil && err != io.EOF {
		return EnrichRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// List is a loosely typed sequence. Any value that is not an array decodes
// as an empty list.
type List []any

func (l *List) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	arr, _ := v.([]any)
	*l = arr
	return nil
}

func (l *List) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.SequenceNode {
		*l = nil
		return nil
	}
	var arr []any
	if err := n.Decode(&arr); err != nil {
		return err
	}
	*l = arr
	return nil
}
