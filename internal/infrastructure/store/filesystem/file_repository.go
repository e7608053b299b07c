package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

// FileRepository stores API definition documents as files under basePath.
type FileRepository struct {
	basePath string
	mu       sync.Mutex
}

var _ repository.DocumentRepository = (*FileRepository)(nil)

func (r *FileRepository) GetBasePath() string {
	return r.basePath
}

func NewFileRepository(basePath string) (*FileRepository, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", basePath, err)
	}

	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(abs, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", abs, mkErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check directory %s: %w", abs, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("path %s exists but is not a directory", abs)
	}

	return &FileRepository{basePath: abs}, nil
}

// resolve maps a document name to a path and rejects names escaping basePath.
func (r *FileRepository) resolve(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid document name %q: %w", name, entity.ErrInvalidInput)
	}
	p := filepath.Join(r.basePath, name)
	rel, err := filepath.Rel(r.basePath, p)
	if err != nil || rel != name {
		return "", fmt.Errorf("invalid document name %q: %w", name, entity.ErrInvalidInput)
	}
	return p, nil
}

// Save writes data under name, or name_1, name_2... when name is taken.
func (r *FileRepository) Save(ctx context.Context, name string, data []byte) (string, error) {
	metrics.IncDBOp("filesystem", "put")
	name = filepath.Base(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		p, err := r.resolve(candidate)
		if err != nil {
			return "", err
		}
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			candidate = stem + "_" + strconv.Itoa(i) + ext
			continue
		}
		if err != nil {
			metrics.IncError("filesystem", "save_error")
			return "", fmt.Errorf("failed to create file %s: %w", candidate, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write file %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close file %s: %w", candidate, err)
		}
		return candidate, nil
	}
}

func (r *FileRepository) Read(ctx context.Context, name string) ([]byte, error) {
	metrics.IncDBOp("filesystem", "get")

	p, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document %s: %w", name, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return data, nil
}

// Write replaces an existing document through a temp file and rename.
func (r *FileRepository) Write(ctx context.Context, name string, data []byte) error {
	metrics.IncDBOp("filesystem", "put")

	p, err := r.resolve(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(r.basePath, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		metrics.IncError("filesystem", "write_error")
		return fmt.Errorf("failed to replace document %s: %w", name, err)
	}
	return nil
}

func (r *FileRepository) List(ctx context.Context) ([]string, error) {
	metrics.IncDBOp("filesystem", "list")

	names := []string{}
	err := filepath.WalkDir(r.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != r.basePath {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		names = append(names, d.Name())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

func (r *FileRepository) Delete(ctx context.Context, name string) error {
	metrics.IncDBOp("filesystem", "delete")

	p, err := r.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("document %s: %w", name, entity.ErrNotFound)
		}
		return fmt.Errorf("failed to delete document %s: %w", name, err)
	}
	return nil
}
