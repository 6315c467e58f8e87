package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"shipgraph/backend/internal/constants"
)

// Fragment is one structured unit returned by the oracle for one table
type Fragment struct {
	DocumentName    string     `json:"Document Name"`
	DocumentVersion string     `json:"Document Version"`
	Categories      Categories `json:"Categories"`
}

// Category groups the questions of one survey section
type Category struct {
	Name      string
	Questions []Question
}

// Question is a single numbered survey question with its answer
type Question struct {
	Number string `json:"Question Number"`
	Text   string `json:"Question"`
	Answer Answer `json:"Answer"`
}

// Categories keeps the declared key order of the "Categories" JSON object.
// A map would lose it, and ship resolution depends on it.
type Categories []Category

// UnmarshalJSON decodes a JSON object into categories in key order
func (c *Categories) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("categories: expected object, got %v", tok)
	}

	out := make(Categories, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("categories: expected key, got %v", keyTok)
		}
		var questions []Question
		if err := dec.Decode(&questions); err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		out = append(out, Category{Name: name, Questions: questions})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// MarshalJSON encodes categories as a JSON object in slice order
func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cat.Name)
		if err != nil {
			return nil, err
		}
		questions := cat.Questions
		if questions == nil {
			questions = []Question{}
		}
		value, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// QuestionCount returns the number of questions across all categories
func (f *Fragment) QuestionCount() int {
	n := 0
	for _, cat := range f.Categories {
		n += len(cat.Questions)
	}
	return n
}

// ShipIdentityAnswers returns every answer given to the ship identity
// question, in category then list order
func (f *Fragment) ShipIdentityAnswers() []Answer {
	var answers []Answer
	for _, cat := range f.Categories {
		for _, q := range cat.Questions {
			if q.Number == constants.ShipIdentityQuestion {
				answers = append(answers, q.Answer)
			}
		}
	}
	return answers
}

// RawTable is one table as produced by the extractor
type RawTable struct {
	Page        int   `json:"page"`
	TableNumber int   `json:"table_number"`
	Table       []Row `json:"table"`
}

// Row is an ordered list of cells. It serializes as an object keyed by
// column index, the shape of a dataframe record. Empty cells become null.
type Row []string

// MarshalJSON encodes the row as {"0": ..., "1": ...} in column order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cell := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(i)))
		buf.WriteByte(':')
		if cell == "" {
			buf.WriteString("null")
			continue
		}
		value, err := json.Marshal(cell)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a column-indexed record back into a row
func (r *Row) UnmarshalJSON(data []byte) error {
	var record map[string]*string
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	row := make(Row, len(record))
	for key, value := range record {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(record) {
			return fmt.Errorf("row: unexpected column key %q", key)
		}
		if value != nil {
			row[idx] = *value
		}
	}
	*r = row
	return nil
}
