package entity

// ValidationError describes one problem found in an uploaded API definition
// document. Index is the definition position, -1 for document-level problems.
type ValidationError struct {
	File    string `json:"file"`
	Message string `json:"message"`
	Index   int    `json:"index"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

type ValidationReport struct {
	Passed bool              `json:"passed"`
	Errors []ValidationError `json:"errors,omitempty"`
}
