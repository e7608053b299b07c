package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// APIDocumentValidator checks JSON syntax with the HCL JSON parser, which
// reports positions, then the apiDefinitions structure.
type APIDocumentValidator struct{}

var _ repository.DocumentValidator = (*APIDocumentValidator)(nil)

func NewAPIDocumentValidator() *APIDocumentValidator {
	return &APIDocumentValidator{}
}

func (v *APIDocumentValidator) Validate(name string, data []byte) (entity.APIDocument, entity.ValidationReport) {
	start := time.Now()
	defer func() { metrics.ObserveValidationDuration(time.Since(start)) }()

	report := entity.ValidationReport{Passed: true}
	fail := func(e entity.ValidationError) {
		e.File = name
		report.Errors = append(report.Errors, e)
		report.Passed = false
	}

	parser := hclparse.NewParser()
	if _, diags := parser.ParseJSON(data, name); diags.HasErrors() {
		for _, d := range diags {
			if d.Severity != hcl.DiagError {
				continue
			}
			e := entity.ValidationError{Index: -1, Message: diagMessage(d)}
			if d.Subject != nil {
				e.Line, e.Column = d.Subject.Start.Line, d.Subject.Start.Column
			}
			fail(e)
		}
		metrics.IncValidationRun("fail")
		return nil, report
	}

	var doc entity.APIDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil || doc == nil {
		fail(entity.ValidationError{Index: -1, Message: "document must be a JSON object"})
		metrics.IncValidationRun("fail")
		return nil, report
	}

	list, ok := doc[entity.DefinitionsKey].([]any)
	if !ok {
		fail(entity.ValidationError{Index: -1, Message: fmt.Sprintf("missing %q list", entity.DefinitionsKey)})
		metrics.IncValidationRun("fail")
		return nil, report
	}

	seen := make(map[string]int, len(list))
	for i, item := range list {
		def, ok := item.(map[string]any)
		if !ok {
			fail(entity.ValidationError{Index: i, Message: "definition is not an object"})
			continue
		}
		d := entity.APIDefinition(def)
		path := d.Path()
		if path == "" {
			fail(entity.ValidationError{Index: i, Message: "definition has no path"})
			continue
		}
		if first, dup := seen[path]; dup {
			fail(entity.ValidationError{Index: i, Path: path, Message: fmt.Sprintf("duplicate path, first defined at index %d", first)})
			continue
		}
		seen[path] = i
		if m := strings.ToUpper(d.Method()); m != "" && !knownMethods[m] {
			fail(entity.ValidationError{Index: i, Path: path, Message: fmt.Sprintf("unknown method %q", d.Method())})
		}
	}

	if report.Passed {
		metrics.IncValidationRun("pass")
	} else {
		metrics.IncValidationRun("fail")
	}
	return doc, report
}

func diagMessage(d *hcl.Diagnostic) string {
	if d.Detail == "" {
		return d.Summary
	}
	return fmt.Sprintf("%s: %s", d.Summary, d.Detail)
}
