package entity

import "fmt"

const (
	DefinitionsKey  = "apiDefinitions"
	TestCaseListKey = "apiTestCaseList"
)

// APIDefinition is one endpoint of an uploaded API definition document.
// It is backed by the decoded JSON object so fields we do not model survive
// a write-back unchanged.
type APIDefinition map[string]any

func (d APIDefinition) Path() string   { return stringField(d, "path") }
func (d APIDefinition) Name() string   { return stringField(d, "name") }
func (d APIDefinition) Method() string { return stringField(d, "method") }

// Request returns the request descriptor, or nil when absent or malformed.
func (d APIDefinition) Request() map[string]any {
	m, _ := d["request"].(map[string]any)
	return m
}

func (d APIDefinition) Responses() []any {
	l, _ := d["response"].([]any)
	return l
}

func (d APIDefinition) TestCases() []any {
	l, _ := d[TestCaseListKey].([]any)
	return l
}

// AppendTestCases appends records to the case list, creating it when it is
// absent or not a list.
func (d APIDefinition) AppendTestCases(records []Record) {
	list := d.TestCases()
	if list == nil {
		list = make([]any, 0, len(records))
	}
	for _, r := range records {
		list = append(list, map[string]any(r))
	}
	d[TestCaseListKey] = list
}

// APIDocument is a decoded {"apiDefinitions": [...]} file.
type APIDocument map[string]any

// Definitions returns views over the document's definitions. Mutating a
// returned definition mutates the document.
func (doc APIDocument) Definitions() ([]APIDefinition, error) {
	raw, ok := doc[DefinitionsKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidInput, DefinitionsKey)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrInvalidInput, DefinitionsKey)
	}
	defs := make([]APIDefinition, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			defs = append(defs, APIDefinition(m))
		}
	}
	return defs, nil
}

// APISummary is the listing row shown after an upload.
type APISummary struct {
	Path          string `json:"path"`
	Name          string `json:"name"`
	Method        string `json:"method"`
	HasTestCases  bool   `json:"has_test_cases"`
	TestCaseCount int    `json:"test_case_count"`
}

func Summarize(defs []APIDefinition) []APISummary {
	out := make([]APISummary, 0, len(defs))
	for _, d := range defs {
		n := len(d.TestCases())
		out = append(out, APISummary{
			Path:          d.Path(),
			Name:          d.Name(),
			Method:        d.Method(),
			HasTestCases:  n > 0,
			TestCaseCount: n,
		})
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
