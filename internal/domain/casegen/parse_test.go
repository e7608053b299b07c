package casegen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testbrain/internal/domain/entity"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "bare array", raw: `[{"name":"a"},{"name":"b"}]`, want: 2},
		{name: "fenced array", raw: "```json\n[{\"name\":\"a\"},{\"name\":\"b\"}]\n```", want: 2},
		{name: "leading fence only", raw: "```json\n[{\"name\":\"a\"}]", want: 1},
		{name: "trailing fence only", raw: "[{\"name\":\"a\"}]\n```", want: 1},
		{name: "surrounding whitespace", raw: "  \n```json [{\"name\":\"a\"}] ```\n\t", want: 1},
		{name: "single object", raw: `{"name":"a"}`, want: 1},
		{name: "non object elements dropped", raw: `[{"name":"a"}, 1, "x", null, [], {"name":"b"}]`, want: 2},
		{name: "empty array", raw: `[]`, want: 0},
		{name: "scalar", raw: `42`, wantErr: true},
		{name: "string", raw: `"hello"`, wantErr: true},
		{name: "syntax error", raw: `[{"name":`, wantErr: true},
		{name: "trailing garbage", raw: `{"a":1} {"b":2}`, wantErr: true},
		{name: "prose", raw: `Here are your cases`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnparsable)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParse_FencedEqualsUnfenced(t *testing.T) {
	body := `[{"name":"login ok","request":{"body":{"n":1.50}}},{"name":"login bad"}]`

	plain, err := Parse(body)
	require.NoError(t, err)
	fenced, err := Parse("```json\n" + body + "\n```")
	require.NoError(t, err)

	assert.Equal(t, plain, fenced)
}

func TestParse_KeepsNumberLiterals(t *testing.T) {
	got, err := Parse(`{"expectedValue": 200, "ratio": 1.50}`)
	require.NoError(t, err)
	require.Len(t, got, 1)

	out, err := json.Marshal(got[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"expectedValue":200,"ratio":1.50}`, string(out))
	assert.Contains(t, string(out), "1.50")
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `[1]`, ExtractJSON("Sure!\n```json\n[1]\n```\nbye"))
	assert.Equal(t, `{"a":1}`, ExtractJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSON(" {\"a\":1} "))
}

func TestParseGeneratedCases(t *testing.T) {
	raw := "```json\n" + `[
		{"description":"valid login","test_steps":["open","submit"],"expected_results":["form","home"]}
	]` + "\n```"

	cases, err := ParseGeneratedCases(raw)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "valid login", cases[0].Description)
	assert.Equal(t, []string{"open", "submit"}, cases[0].TestSteps)
}

func TestParseGeneratedCases_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing field":  `[{"description":"x","test_steps":["a"]}]`,
		"count mismatch": `[{"description":"x","test_steps":["a","b"],"expected_results":["a"]}]`,
		"not a list":     `{"description":"x"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGeneratedCases(raw)
			assert.ErrorIs(t, err, entity.ErrInvalidInput)
		})
	}
}

func TestParseReview(t *testing.T) {
	res, err := ParseReview("```json\n" + `{"score":"8","strengths":["clear"],"recommendation":"pass","comments":"ok"}` + "\n```")
	require.NoError(t, err)
	assert.Equal(t, 8.0, res.Score)
	assert.Equal(t, []string{"clear"}, res.Strengths)
	assert.Equal(t, "pass", res.Recommendation)

	res, err = ParseReview(`{"score": 6.5}`)
	require.NoError(t, err)
	assert.Equal(t, 6.5, res.Score)

	_, err = ParseReview(`not json`)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}
