package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shipgraph/backend/internal/survey"
)

func fragments(t *testing.T) []*survey.Fragment {
	t.Helper()
	a, err := survey.ParseFragment([]byte(`{"Document Name":"Survey-1","Document Version":"v1","Categories":{"Safety":[{"Question Number":"1.2","Question":"Ship name?","Answer":"MV Example"},{"Question Number":"2.1","Question":"Crew size?","Answer":"12"}]}}`))
	require.NoError(t, err)
	b, err := survey.ParseFragment([]byte(`{"Document Name":"Survey-1","Document Version":"v1","Categories":{"Hull":[{"Question Number":"3.1","Question":"Dimensions?","Answer":{"length":"120m","beam":"20m"}}]}}`))
	require.NoError(t, err)
	return []*survey.Fragment{a, b}
}

func TestWriteRawTables(t *testing.T) {
	w := NewWriter(t.TempDir(), "run-1")
	tables := []survey.RawTable{{Page: 1, TableNumber: 1, Table: []survey.Row{{"1.2", "MV Example", ""}}}}

	path, err := w.WriteRawTables(3, "/uploads/survey a.pdf", tables)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Dir(), "raw_tables", "03_survey a.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    {\n        \"page\": 1,")
	assert.Contains(t, string(data), `"2": null`)

	var back []survey.RawTable
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tables, back)
}

func TestWriteStructured(t *testing.T) {
	w := NewWriter(t.TempDir(), "run-2")
	frags := fragments(t)

	path, err := w.WriteStructured(frags)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n    {\n        \"Document Name\": \"Survey-1\""))

	var back []*survey.Fragment
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 2)
	assert.Equal(t, "Safety", back[0].Categories[0].Name)
	assert.Equal(t, "Hull", back[1].Categories[0].Name)
	assert.True(t, back[1].Categories[0].Questions[0].Answer.IsMapping())
}

func TestWriteStructured_Empty(t *testing.T) {
	w := NewWriter(t.TempDir(), "run-3")
	path, err := w.WriteStructured(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWriteWorkbook(t *testing.T) {
	w := NewWriter(t.TempDir(), "run-4")

	path, err := w.WriteWorkbook(fragments(t))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(QuestionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Document Name", "Document Version", "Category", "Question Number", "Question", "Answer"}, rows[0])
	assert.Equal(t, []string{"Survey-1", "v1", "Safety", "1.2", "Ship name?", "MV Example"}, rows[1])
	assert.Equal(t, `{"beam":"20m","length":"120m"}`, rows[3][5])
}
