package repository

import (
	"context"
)

//go:generate mockgen -source=document.go -destination=../../mocks/mock_document.go -package=mocks

// DocumentRepository keeps uploaded API definition documents addressed by
// file name.
type DocumentRepository interface {
	// Save stores data under a free name derived from name and returns it.
	Save(ctx context.Context, name string, data []byte) (string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}
