package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

const testCaseColumns = `id, title, description, requirements, code_snippet, test_steps,
	expected_results, actual_results, status, llm_provider, created_at, updated_at`

type TestCaseRepository struct {
	db *DB
}

var _ repository.TestCaseRepository = (*TestCaseRepository)(nil)

func NewTestCaseRepository(db *DB) *TestCaseRepository {
	return &TestCaseRepository{db: db}
}

func (r *TestCaseRepository) SaveBatch(ctx context.Context, cases []*entity.TestCase) error {
	if len(cases) == 0 {
		return nil
	}
	metrics.IncDBOp("postgres", "put")

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `INSERT INTO test_cases (` + testCaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for _, c := range cases {
		if _, err := tx.Exec(ctx, query,
			c.ID, c.Title, c.Description, c.Requirements, c.CodeSnippet, c.TestSteps,
			c.ExpectedResults, c.ActualResults, string(c.Status), c.LLMProvider, c.CreatedAt, c.UpdatedAt,
		); err != nil {
			metrics.IncError("postgres_test_case_repo", "save_error")
			return fmt.Errorf("failed to insert test case: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *TestCaseRepository) GetByID(ctx context.Context, id string) (*entity.TestCase, error) {
	metrics.IncDBOp("postgres", "get")

	row := r.db.Pool.QueryRow(ctx, `SELECT `+testCaseColumns+` FROM test_cases WHERE id = $1`, id)
	tc, err := scanTestCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("test case %s: %w", id, entity.ErrNotFound)
		}
		metrics.IncError("postgres_test_case_repo", "get_error")
		return nil, fmt.Errorf("database error: %w", err)
	}
	return tc, nil
}

func (r *TestCaseRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.TestCase, error) {
	return r.query(ctx, `SELECT `+testCaseColumns+` FROM test_cases WHERE id = ANY($1) ORDER BY created_at`, ids)
}

func (r *TestCaseRepository) ListByStatus(ctx context.Context, status entity.TestCaseStatus, offset, limit int) ([]*entity.TestCase, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+testCaseColumns+` FROM test_cases
			ORDER BY created_at DESC OFFSET $1 LIMIT $2`, offset, limit)
	}
	return r.query(ctx, `SELECT `+testCaseColumns+` FROM test_cases WHERE status = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`, string(status), offset, limit)
}

func (r *TestCaseRepository) CountByStatus(ctx context.Context, status entity.TestCaseStatus) (int, error) {
	metrics.IncDBOp("postgres", "count")

	var n int
	var err error
	if status == "" {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM test_cases`).Scan(&n)
	} else {
		err = r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM test_cases WHERE status = $1`, string(status)).Scan(&n)
	}
	if err != nil {
		metrics.IncError("postgres_test_case_repo", "count_error")
		return 0, fmt.Errorf("count test cases: %w", err)
	}
	return n, nil
}

func (r *TestCaseRepository) Recent(ctx context.Context, limit int) ([]*entity.TestCase, error) {
	return r.query(ctx, `SELECT `+testCaseColumns+` FROM test_cases ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *TestCaseRepository) Update(ctx context.Context, id string, upd entity.TestCaseUpdate) error {
	metrics.IncDBOp("postgres", "put")

	sets := []string{"updated_at = $1"}
	args := []any{time.Now()}
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("status", string(upd.Status))
	add("description", upd.Description)
	add("test_steps", upd.TestSteps)
	add("expected_results", upd.ExpectedResults)
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE test_cases SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		metrics.IncError("postgres_test_case_repo", "update_error")
		return fmt.Errorf("update test case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("test case %s: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (r *TestCaseRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	metrics.IncDBOp("postgres", "delete")

	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM test_cases WHERE id = ANY($1)`, ids)
	if err != nil {
		metrics.IncError("postgres_test_case_repo", "delete_error")
		return 0, fmt.Errorf("delete test cases: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *TestCaseRepository) query(ctx context.Context, sql string, args ...any) ([]*entity.TestCase, error) {
	metrics.IncDBOp("postgres", "list")

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		metrics.IncError("postgres_test_case_repo", "query_error")
		return nil, fmt.Errorf("query test cases: %w", err)
	}
	defer rows.Close()

	out := []*entity.TestCase{}
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test case: %w", err)
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func scanTestCase(row pgx.Row) (*entity.TestCase, error) {
	var tc entity.TestCase
	var status string
	err := row.Scan(&tc.ID, &tc.Title, &tc.Description, &tc.Requirements, &tc.CodeSnippet, &tc.TestSteps,
		&tc.ExpectedResults, &tc.ActualResults, &status, &tc.LLMProvider, &tc.CreatedAt, &tc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tc.Status = entity.TestCaseStatus(status)
	return &tc, nil
}

type ReviewRepository struct {
	db *DB
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	metrics.IncDBOp("postgres", "put")

	result, err := json.Marshal(review.Result)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO test_case_reviews (id, test_case_id, reviewer, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
		review.ID, review.TestCaseID, review.Reviewer, result, review.CreatedAt)
	if err != nil {
		metrics.IncError("postgres_review_repo", "create_error")
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) ListByTestCase(ctx context.Context, testCaseID string) ([]*entity.Review, error) {
	metrics.IncDBOp("postgres", "list")

	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, test_case_id, reviewer, result, created_at FROM test_case_reviews
		 WHERE test_case_id = $1 ORDER BY created_at DESC`, testCaseID)
	if err != nil {
		metrics.IncError("postgres_review_repo", "list_error")
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := []*entity.Review{}
	for rows.Next() {
		var rv entity.Review
		var raw []byte
		if err := rows.Scan(&rv.ID, &rv.TestCaseID, &rv.Reviewer, &raw, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if err := json.Unmarshal(raw, &rv.Result); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
		out = append(out, &rv)
	}
	return out, rows.Err()
}
