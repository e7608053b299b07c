package casegen

import (
	"encoding/json"
	"fmt"
	"strconv"

	"testbrain/internal/domain/entity"
)

// ParseGeneratedCases decodes a requirement-based completion. Every case
// must carry description, test_steps and expected_results, with one
// expected result per step.
func ParseGeneratedCases(raw string) ([]entity.GeneratedCase, error) {
	body := ExtractJSON(raw)

	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, fmt.Errorf("%w: decode generated cases: %v", entity.ErrInvalidInput, err)
	}

	cases := make([]entity.GeneratedCase, 0, len(items))
	for i, item := range items {
		for _, key := range []string{"description", "test_steps", "expected_results"} {
			if _, ok := item[key]; !ok {
				return nil, fmt.Errorf("%w: case #%d is missing %q", entity.ErrInvalidInput, i+1, key)
			}
		}
		var gc entity.GeneratedCase
		if err := json.Unmarshal(item["description"], &gc.Description); err != nil {
			return nil, fmt.Errorf("%w: case #%d description: %v", entity.ErrInvalidInput, i+1, err)
		}
		if err := json.Unmarshal(item["test_steps"], &gc.TestSteps); err != nil {
			return nil, fmt.Errorf("%w: case #%d test_steps: %v", entity.ErrInvalidInput, i+1, err)
		}
		if err := json.Unmarshal(item["expected_results"], &gc.ExpectedResults); err != nil {
			return nil, fmt.Errorf("%w: case #%d expected_results: %v", entity.ErrInvalidInput, i+1, err)
		}
		if len(gc.TestSteps) != len(gc.ExpectedResults) {
			return nil, fmt.Errorf("%w: case #%d has %d steps but %d expected results",
				entity.ErrInvalidInput, i+1, len(gc.TestSteps), len(gc.ExpectedResults))
		}
		cases = append(cases, gc)
	}
	return cases, nil
}

// ParseReview decodes a review completion. The score may come back as a
// number or a numeric string.
func ParseReview(raw string) (entity.ReviewResult, error) {
	body := ExtractJSON(raw)

	var wire struct {
		entity.ReviewResult
		Score any `json:"score"`
	}
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return entity.ReviewResult{}, fmt.Errorf("%w: decode review: %v", entity.ErrInvalidInput, err)
	}

	res := wire.ReviewResult
	switch s := wire.Score.(type) {
	case float64:
		res.Score = s
	case string:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return entity.ReviewResult{}, fmt.Errorf("%w: review score %q", entity.ErrInvalidInput, s)
		}
		res.Score = f
	}
	return res, nil
}
