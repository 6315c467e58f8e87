package survey

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNotJSON is returned when the input is not valid JSON at all
var ErrNotJSON = errors.New("survey: input is not valid JSON")

// ParseFragment checks data against the fragment contract and decodes it:
//
//	{"Document Name": str, "Document Version": str,
//	 "Categories": {name: [{"Question Number": str, "Question": str, "Answer": str|object}]}}
//
// Anything else is rejected; nothing is coerced.
func ParseFragment(data []byte) (*Fragment, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrNotJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("survey: fragment must be an object, got %s", root.Type)
	}
	if err := requireString(root, "Document Name"); err != nil {
		return nil, err
	}
	if err := requireString(root, "Document Version"); err != nil {
		return nil, err
	}

	categories := root.Get("Categories")
	if !categories.IsObject() {
		return nil, fmt.Errorf("survey: \"Categories\" must be an object")
	}

	var checkErr error
	categories.ForEach(func(name, questions gjson.Result) bool {
		if !questions.IsArray() {
			checkErr = fmt.Errorf("survey: category %q must be a list", name.String())
			return false
		}
		for i, q := range questions.Array() {
			if err := checkQuestion(q); err != nil {
				checkErr = fmt.Errorf("survey: category %q question %d: %w", name.String(), i, err)
				return false
			}
		}
		return true
	})
	if checkErr != nil {
		return nil, checkErr
	}

	var fragment Fragment
	if err := json.Unmarshal(data, &fragment); err != nil {
		return nil, fmt.Errorf("survey: decode fragment: %w", err)
	}
	return &fragment, nil
}

func checkQuestion(q gjson.Result) error {
	if !q.IsObject() {
		return fmt.Errorf("must be an object")
	}
	if err := requireString(q, "Question Number"); err != nil {
		return err
	}
	if err := requireString(q, "Question"); err != nil {
		return err
	}
	answer := q.Get("Answer")
	if !answer.Exists() {
		return fmt.Errorf("missing \"Answer\"")
	}
	if answer.Type != gjson.String && !answer.IsObject() {
		return fmt.Errorf("\"Answer\" must be a string or an object, got %s", answer.Type)
	}
	return nil
}

func requireString(obj gjson.Result, key string) error {
	v := obj.Get(gjson.Escape(key))
	if !v.Exists() {
		return fmt.Errorf("survey: missing %q", key)
	}
	if v.Type != gjson.String {
		return fmt.Errorf("survey: %q must be a string, got %s", key, v.Type)
	}
	return nil
}
