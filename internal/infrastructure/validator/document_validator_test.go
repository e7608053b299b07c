package validator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	data := []byte(`{"apiDefinitions":[
		{"path":"/login","method":"POST","name":"Login"},
		{"path":"/logout","method":"get","id":12345678901234567890}
	]}`)

	doc, report := NewAPIDocumentValidator().Validate("api.json", data)
	require.NotNil(t, doc)
	assert.True(t, report.Passed)
	assert.Empty(t, report.Errors)

	defs, err := doc.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, json.Number("12345678901234567890"), defs[1]["id"], "large numbers keep their literal")
}

func TestValidate_SyntaxErrorHasPosition(t *testing.T) {
	doc, report := NewAPIDocumentValidator().Validate("api.json", []byte("{\n  \"apiDefinitions\": [,]\n}"))
	assert.Nil(t, doc)
	assert.False(t, report.Passed)
	require.NotEmpty(t, report.Errors)
	assert.Equal(t, "api.json", report.Errors[0].File)
	assert.Equal(t, 2, report.Errors[0].Line)
	assert.Equal(t, -1, report.Errors[0].Index)
}

func TestValidate_Structure(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantDoc bool
		wantMsg []string
	}{
		{name: "array root", data: `[]`, wantMsg: []string{"JSON object"}},
		{name: "no list", data: `{"apis":[]}`, wantMsg: []string{`missing "apiDefinitions" list`}},
		{
			name:    "bad definitions",
			data:    `{"apiDefinitions":[1,{"name":"x"},{"path":"/a"},{"path":"/a"},{"path":"/b","method":"FETCH"}]}`,
			wantDoc: true,
			wantMsg: []string{"not an object", "no path", "duplicate path, first defined at index 2", `unknown method "FETCH"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, report := NewAPIDocumentValidator().Validate("f.json", []byte(tt.data))
			assert.Equal(t, tt.wantDoc, doc != nil)
			assert.False(t, report.Passed)
			require.Len(t, report.Errors, len(tt.wantMsg))
			for i, msg := range tt.wantMsg {
				assert.Contains(t, report.Errors[i].Message, msg)
			}
		})
	}
}
