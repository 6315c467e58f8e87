package survey

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = `{"Document Name":"Survey-1","Document Version":"v1","Categories":{"Safety":[{"Question Number":"1.2","Question":"Ship name?","Answer":"MV Example"},{"Question Number":"2.1","Question":"Crew size?","Answer":"12"}]}}`

func TestParseFragment_ScenarioA(t *testing.T) {
	f, err := ParseFragment([]byte(scenarioA))
	require.NoError(t, err)

	assert.Equal(t, "Survey-1", f.DocumentName)
	assert.Equal(t, "v1", f.DocumentVersion)
	require.Len(t, f.Categories, 1)
	assert.Equal(t, "Safety", f.Categories[0].Name)
	require.Len(t, f.Categories[0].Questions, 2)
	assert.Equal(t, "1.2", f.Categories[0].Questions[0].Number)
	assert.Equal(t, 2, f.QuestionCount())

	text, ok := f.Categories[0].Questions[0].Answer.Text()
	assert.True(t, ok)
	assert.Equal(t, "MV Example", text)
}

func TestParseFragment_PreservesCategoryOrder(t *testing.T) {
	data := `{"Document Name":"D","Document Version":"1","Categories":{
		"Zeta":[], "Alpha":[], "Mid":[{"Question Number":"3","Question":"q","Answer":"a"}]}}`

	f, err := ParseFragment([]byte(data))
	require.NoError(t, err)

	names := make([]string, 0, len(f.Categories))
	for _, c := range f.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, names)
}

func TestParseFragment_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `Here is your JSON: {`},
		{name: "array root", data: `[]`},
		{name: "missing name", data: `{"Document Version":"1","Categories":{}}`},
		{name: "numeric version", data: `{"Document Name":"D","Document Version":1,"Categories":{}}`},
		{name: "categories list", data: `{"Document Name":"D","Document Version":"1","Categories":[]}`},
		{name: "category not list", data: `{"Document Name":"D","Document Version":"1","Categories":{"A":{}}}`},
		{name: "question missing answer", data: `{"Document Name":"D","Document Version":"1","Categories":{"A":[{"Question Number":"1","Question":"q"}]}}`},
		{name: "numeric question number", data: `{"Document Name":"D","Document Version":"1","Categories":{"A":[{"Question Number":1.2,"Question":"q","Answer":"a"}]}}`},
		{name: "list answer", data: `{"Document Name":"D","Document Version":"1","Categories":{"A":[{"Question Number":"1","Question":"q","Answer":["a"]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFragment([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestAnswerFormat(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `"MV Example"`, want: "MV Example"},
		{raw: `""`, want: ""},
		{raw: `null`, want: ""},
		{raw: `12`, want: "12"},
		{raw: `true`, want: "true"},
		{raw: `{"b": 2, "a": {"y": 1, "x": "<z>"}}`, want: `{"a":{"x":"<z>","y":1},"b":2}`},
		{raw: `[3, {"k": "v"}]`, want: `[3,{"k":"v"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var a Answer
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &a))
			got, err := a.Format()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnswerFormat_MappingRoundTrip(t *testing.T) {
	original := map[string]any{
		"Yes":     true,
		"Remarks": "Checked by master",
		"Date":    map[string]any{"Day": "12", "Month": "May"},
	}
	a, err := MappingAnswer(original)
	require.NoError(t, err)
	assert.True(t, a.IsMapping())

	stored, err := a.Format()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &decoded))
	assert.Equal(t, original, decoded)
}

func TestFragmentMarshal_KeepsOrderAndAnswers(t *testing.T) {
	data := `{"Document Name":"D","Document Version":"1","Categories":{"B":[{"Question Number":"1","Question":"q","Answer":{"x":1}}],"A":[]}}`
	f, err := ParseFragment([]byte(data))
	require.NoError(t, err)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, data, string(out))
	assert.Less(t, strings.Index(string(out), `"B"`), strings.Index(string(out), `"A"`))
}

func TestShipIdentityAnswers(t *testing.T) {
	f := &Fragment{Categories: Categories{
		{Name: "General", Questions: []Question{{Number: "1.1", Answer: TextAnswer("x")}, {Number: "1.2", Answer: TextAnswer("First")}}},
		{Name: "Other", Questions: []Question{{Number: "1.2", Answer: TextAnswer("Second")}}},
	}}

	answers := f.ShipIdentityAnswers()
	require.Len(t, answers, 2)
	first, _ := answers[0].Text()
	second, _ := answers[1].Text()
	assert.Equal(t, "First", first)
	assert.Equal(t, "Second", second)
}

func TestRowJSON(t *testing.T) {
	row := Row{"Name", "", "MV Example"}
	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"0":"Name","1":null,"2":"MV Example"}`, string(out))

	var back Row
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, row, back)
}
