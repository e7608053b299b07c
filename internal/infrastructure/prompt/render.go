package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"testbrain/internal/domain/entity"
)

// RenderRequest flattens a definition's request descriptor into readable text.
func RenderRequest(target entity.APIDefinition) string {
	req := target.Request()
	var sb strings.Builder

	fmt.Fprintf(&sb, "Request method: %s\n", firstNonEmpty(str(req["method"]), target.Method()))
	fmt.Fprintf(&sb, "Request path: %s\n", firstNonEmpty(str(req["path"]), target.Path()))

	if headers := objects(req["headers"]); len(headers) > 0 {
		sb.WriteString("\nHeaders:\n")
		for _, h := range headers {
			fmt.Fprintf(&sb, "- %s: %s\n", str(h["key"]), str(h["value"]))
		}
	}

	if query := objects(req["query"]); len(query) > 0 {
		sb.WriteString("\nQuery parameters:\n")
		for _, q := range query {
			typ := str(q["paramType"])
			if typ == "" {
				typ = "string"
			}
			fmt.Fprintf(&sb, "- %s: %s (%s)\n", str(q["key"]), str(q["value"]), typ)
		}
	}

	body, _ := req["body"].(map[string]any)
	if str(body["bodyType"]) == "JSON" {
		jsonBody, _ := body["jsonBody"].(map[string]any)
		if v := jsonBody["jsonValue"]; !empty(v) {
			fmt.Fprintf(&sb, "\nRequest body (JSON):\n%s\n", str(v))
		} else if s := jsonBody["jsonSchema"]; !empty(s) {
			fmt.Fprintf(&sb, "\nRequest body schema:\n%s\n", indentJSON(s))
		}
	}

	return sb.String()
}

// RenderResponse lists status codes with their example body or required fields.
func RenderResponse(target entity.APIDefinition) string {
	var sb strings.Builder
	sb.WriteString("Response status codes:\n")

	for _, r := range target.Responses() {
		resp, ok := r.(map[string]any)
		if !ok {
			continue
		}
		line := "- " + str(resp["statusCode"])
		if isDefault, _ := resp["defaultFlag"].(bool); isDefault {
			line += " (default)"
		}
		sb.WriteString(line + "\n")

		body, _ := resp["body"].(map[string]any)
		if str(body["bodyType"]) != "JSON" {
			continue
		}
		jsonBody, _ := body["jsonBody"].(map[string]any)
		if v := jsonBody["jsonValue"]; !empty(v) {
			fmt.Fprintf(&sb, "  Response body: %s\n", str(v))
			continue
		}
		schema, _ := jsonBody["jsonSchema"].(map[string]any)
		if required := strs(schema["required"]); len(required) > 0 {
			fmt.Fprintf(&sb, "  Required fields: %s\n", strings.Join(required, ", "))
		}
	}

	return sb.String()
}

func renderReferences(hits []entity.SearchHit) string {
	var sb strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&sb, "- %s: %s\n", h.Title, h.Content)
	}
	return sb.String()
}

// CompactJSON serialises v on one line without HTML escaping.
func CompactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// str renders a scalar JSON value as text; containers become compact JSON.
func str(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool, float64, int:
		return fmt.Sprint(val)
	default:
		s, err := CompactJSON(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return s
	}
}

func empty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	}
	return false
}

func objects(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func strs(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
