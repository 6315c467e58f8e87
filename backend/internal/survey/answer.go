package survey

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Answer holds the raw JSON value of an answer. The oracle returns either a
// string or a mapping; other JSON values are tolerated when formatting.
type Answer struct {
	raw json.RawMessage
}

// TextAnswer builds a string answer
func TextAnswer(s string) Answer {
	raw, _ := json.Marshal(s)
	return Answer{raw: raw}
}

// MappingAnswer builds a structured answer
func MappingAnswer(m map[string]any) (Answer, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return Answer{}, err
	}
	return Answer{raw: raw}, nil
}

// UnmarshalJSON keeps a copy of the raw value
func (a *Answer) UnmarshalJSON(data []byte) error {
	a.raw = append(a.raw[:0], data...)
	return nil
}

// MarshalJSON writes the raw value back unchanged
func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a.raw) == 0 {
		return []byte("null"), nil
	}
	return a.raw, nil
}

func (a Answer) kind() byte {
	trimmed := bytes.TrimSpace(a.raw)
	if len(trimmed) == 0 {
		return 'n'
	}
	return trimmed[0]
}

// IsMapping reports whether the answer is a JSON object
func (a Answer) IsMapping() bool {
	return a.kind() == '{'
}

// Text returns the answer when it is a JSON string
func (a Answer) Text() (string, bool) {
	if a.kind() != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(a.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Format renders the answer as the string stored on the Question node.
// Strings pass through; objects and arrays become canonical JSON with
// sorted keys; numbers and booleans keep their literal text; null is empty.
func (a Answer) Format() (string, error) {
	switch a.kind() {
	case 'n':
		return "", nil
	case '"':
		var s string
		if err := json.Unmarshal(a.raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return canonicalJSON(a.raw)
	default:
		return strings.TrimSpace(string(a.raw)), nil
	}
}

func canonicalJSON(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// map keys are emitted sorted, which makes the encoding canonical
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
