package casegen

import (
	"testbrain/internal/domain/entity"
)

const (
	StatusDone      = "DONE"
	PassRateNone    = "NONE"
	HTTPElementKind = "MsHTTPElement"
)

// PostProcess stamps rec with ground-truth metadata from target, repairs
// its assertions and forces the request wire shape to match target.
// The model is trusted for assertions and body values only. Applying
// PostProcess twice yields the same record.
func PostProcess(rec entity.Record, target entity.APIDefinition, priority string) entity.Record {
	if rec == nil {
		rec = entity.Record{}
	}

	rec["priority"] = priority
	rec["status"] = StatusDone
	rec["passRate"] = PassRateNone
	rec["apiDefinitionName"] = target.Name()
	rec["method"] = target.Method()
	rec["path"] = target.Path()

	request, ok := rec["request"].(map[string]any)
	if !ok {
		request = map[string]any{}
		rec["request"] = request
	}

	repairAssertions(request)
	applyRequestShape(request, target)

	return rec
}

func applyRequestShape(request map[string]any, target entity.APIDefinition) {
	src := target.Request()

	request["path"] = target.Path()
	request["method"] = target.Method()
	request["headers"] = cloneOr(src, "headers", func() any { return []any{} })
	request["query"] = cloneOr(src, "query", func() any { return []any{} })
	request["body"] = cloneOr(src, "body", func() any { return map[string]any{} })

	if _, ok := request["polymorphicName"]; !ok {
		request["polymorphicName"] = HTTPElementKind
	}
	if _, ok := request["enable"]; !ok {
		request["enable"] = true
	}
}

func cloneOr(src map[string]any, key string, def func() any) any {
	if v, ok := src[key]; ok && v != nil {
		return Clone(v)
	}
	return def()
}

// Clone deep-copies a decoded JSON value.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Clone(item)
		}
		return out
	case entity.Record:
		return entity.Record(Clone(map[string]any(val)).(map[string]any))
	case entity.APIDefinition:
		return entity.APIDefinition(Clone(map[string]any(val)).(map[string]any))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Clone(item)
		}
		return out
	default:
		return val
	}
}
