package repository

import (
	"testbrain/internal/domain/entity"
)

// DocumentValidator checks an uploaded API definition document before it is
// stored. The document is nil when data is not a JSON object with an
// apiDefinitions list.
type DocumentValidator interface {
	Validate(name string, data []byte) (entity.APIDocument, entity.ValidationReport)
}
