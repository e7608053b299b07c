package entity

// Record is one generated test case. Its shape is dictated by the consuming
// test runner, so it stays schemaless.
type Record map[string]any

// BatchResult is the outcome of one batch generation run. Success=false is a
// reported failure (no valid targets, bad input), not a defect.
type BatchResult struct {
	Success        bool   `json:"success" bson:"success"`
	Message        string `json:"message,omitempty" bson:"message,omitempty"`
	Error          string `json:"error,omitempty" bson:"error,omitempty"`
	GeneratedCount int    `json:"generated_count" bson:"generated_count"`
	TargetCount    int    `json:"target_count" bson:"target_count"`
}
