package casegen

type AssertionKind string

const (
	AssertionResponseCode   AssertionKind = "RESPONSE_CODE"
	AssertionResponseHeader AssertionKind = "RESPONSE_HEADER"
	AssertionResponseBody   AssertionKind = "RESPONSE_BODY"
	AssertionVariable       AssertionKind = "VARIABLE"
	AssertionScript         AssertionKind = "SCRIPT"
)

// requiredFields lists the keys each assertion kind must carry.
var requiredFields = map[AssertionKind][]string{
	AssertionResponseCode:   {"enable", "name", "condition", "expectedValue"},
	AssertionResponseHeader: {"enable", "name", "assertions"},
	AssertionResponseBody:   {"enable", "name", "assertionBodyType", "jsonPathAssertion"},
	AssertionVariable:       {"enable", "name", "variableAssertionItems"},
	AssertionScript:         {"enable", "name", "script", "scriptLanguage"},
}

// DefaultAssertion is substituted when a record has no valid assertion.
func DefaultAssertion() map[string]any {
	return map[string]any{
		"assertionType": string(AssertionResponseCode),
		"enable":        true,
		"name":          "default status code check",
		"id":            "default_status_code",
		"projectId":     nil,
		"condition":     "EQUALS",
		"expectedValue": "200",
	}
}

// ValidAssertion reports whether a is of a known kind and carries every
// field that kind requires.
func ValidAssertion(a map[string]any) bool {
	kind, _ := a["assertionType"].(string)
	fields, ok := requiredFields[AssertionKind(kind)]
	if !ok {
		return false
	}
	for _, f := range fields {
		if _, ok := a[f]; !ok {
			return false
		}
	}
	return true
}

// filterAssertions keeps the valid assertions of raw, falling back to the
// default one. It reports how many were dropped.
func filterAssertions(raw any) ([]any, int) {
	list, _ := raw.([]any)
	valid := make([]any, 0, len(list))
	for _, item := range list {
		if a, ok := item.(map[string]any); ok && ValidAssertion(a) {
			valid = append(valid, a)
		}
	}
	dropped := len(list) - len(valid)
	if len(valid) == 0 {
		valid = append(valid, DefaultAssertion())
	}
	return valid, dropped
}

// repairAssertions walks request.children and validates every assertion
// list found there. When no child carries an assertion config, a child
// holding the default assertion is appended. A single child object is
// wrapped into a list; any other non-list value is left untouched.
func repairAssertions(request map[string]any) int {
	var children []any
	switch v := request["children"].(type) {
	case nil:
	case []any:
		children = v
	case map[string]any:
		children = []any{v}
	default:
		return 0
	}

	dropped := 0
	found := false
	for _, c := range children {
		child, ok := c.(map[string]any)
		if !ok {
			continue
		}
		cfg, ok := child["assertionConfig"].(map[string]any)
		if !ok {
			continue
		}
		if _, ok := cfg["assertions"]; !ok {
			continue
		}
		found = true
		var n int
		cfg["assertions"], n = filterAssertions(cfg["assertions"])
		dropped += n
	}

	if !found {
		children = append(children, map[string]any{
			"polymorphicName": "MsCommonElement",
			"assertionConfig": map[string]any{
				"enableGlobal": true,
				"assertions":   []any{DefaultAssertion()},
			},
		})
	}
	request["children"] = children
	return dropped
}
