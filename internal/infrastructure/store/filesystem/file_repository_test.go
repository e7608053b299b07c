package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testbrain/internal/domain/entity"
)

func TestFileRepository_SaveUniqueNames(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := repo.Save(ctx, "api.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	second, err := repo.Save(ctx, "api.json", []byte(`{"a":2}`))
	require.NoError(t, err)
	third, err := repo.Save(ctx, "../../api.json", []byte(`{"a":3}`))
	require.NoError(t, err)

	assert.Equal(t, "api.json", first)
	assert.Equal(t, "api_1.json", second)
	assert.Equal(t, "api_2.json", third)

	data, err := repo.Read(ctx, "api_1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"api.json", "api_1.json", "api_2.json"}, names)
}

func TestFileRepository_WriteAndDelete(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepository(dir)
	require.NoError(t, err)
	ctx := context.Background()

	name, err := repo.Save(ctx, "doc.json", []byte("old"))
	require.NoError(t, err)
	require.NoError(t, repo.Write(ctx, name, []byte("new")))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc.json"}, names, "temp files are not listed")

	require.NoError(t, repo.Delete(ctx, name))
	_, err = repo.Read(ctx, name)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, name), entity.ErrNotFound)
}

func TestFileRepository_RejectsEscapingNames(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"../etc/passwd", "a/b.json", "..", ""} {
		_, err := repo.Read(ctx, name)
		assert.ErrorIs(t, err, entity.ErrInvalidInput, name)
		assert.ErrorIs(t, repo.Write(ctx, name, nil), entity.ErrInvalidInput, name)
	}
}

func TestNewFileRepository_NotADirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))

	_, err := NewFileRepository(f)
	assert.Error(t, err)
}
