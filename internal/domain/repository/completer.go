package repository

import (
	"context"

	"testbrain/internal/domain/entity"
)

//go:generate mockgen -source=completer.go -destination=../../mocks/mock_completer.go -package=mocks

// Completer turns an ordered message list into generated text.
type Completer interface {
	Complete(ctx context.Context, messages []entity.Message) (string, error)
}

// CompleterProvider resolves a completion provider by name. An empty or
// unknown name resolves to the default provider.
type CompleterProvider interface {
	Completer(name string) (Completer, string)
}
