package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TestCaseStatus string

const (
	TestCaseStatusPending  TestCaseStatus = "pending"
	TestCaseStatusApproved TestCaseStatus = "approved"
	TestCaseStatusRejected TestCaseStatus = "rejected"
)

func (s TestCaseStatus) Valid() bool {
	switch s {
	case TestCaseStatusPending, TestCaseStatusApproved, TestCaseStatusRejected:
		return true
	}
	return false
}

// GeneratedCase is a requirement-based case as returned by the model,
// before it is stored.
type GeneratedCase struct {
	Description     string   `json:"description"`
	TestSteps       []string `json:"test_steps"`
	ExpectedResults []string `json:"expected_results"`
}

// TestCase is a stored, reviewable test case. Steps and results are kept
// as newline-joined text.
type TestCase struct {
	ID              string         `json:"id" bson:"id"`
	Title           string         `json:"title" bson:"title"`
	Description     string         `json:"description" bson:"description"`
	Requirements    string         `json:"requirements" bson:"requirements"`
	CodeSnippet     string         `json:"code_snippet,omitempty" bson:"code_snippet,omitempty"`
	TestSteps       string         `json:"test_steps" bson:"test_steps"`
	ExpectedResults string         `json:"expected_results" bson:"expected_results"`
	ActualResults   string         `json:"actual_results,omitempty" bson:"actual_results,omitempty"`
	Status          TestCaseStatus `json:"status" bson:"status"`
	LLMProvider     string         `json:"llm_provider,omitempty" bson:"llm_provider,omitempty"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" bson:"updated_at"`
}

// NewTestCase builds the index-th (1-based) stored case of a saved batch.
func NewTestCase(index int, gc GeneratedCase, requirement, provider string) *TestCase {
	now := time.Now()
	return &TestCase{
		ID:              uuid.New().String(),
		Title:           "Test case-" + strconv.Itoa(index),
		Description:     gc.Description,
		Requirements:    requirement,
		TestSteps:       strings.Join(gc.TestSteps, "\n"),
		ExpectedResults: strings.Join(gc.ExpectedResults, "\n"),
		Status:          TestCaseStatusPending,
		LLMProvider:     provider,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// TestCaseUpdate carries the editable fields of a stored case. Empty fields
// are left unchanged.
type TestCaseUpdate struct {
	Status          TestCaseStatus `json:"status"`
	Description     string         `json:"description"`
	TestSteps       string         `json:"test_steps"`
	ExpectedResults string         `json:"expected_results"`
}

type TestCasePage struct {
	Items      []*TestCase `json:"items"`
	Page       int         `json:"page"`
	NumPages   int         `json:"num_pages"`
	TotalCount int         `json:"total_count"`
}

type TestCaseStats struct {
	Total    int         `json:"total"`
	Pending  int         `json:"pending"`
	Approved int         `json:"approved"`
	Rejected int         `json:"rejected"`
	Recent   []*TestCase `json:"recent"`
}

// Review is a stored review of a test case.
type Review struct {
	ID         string       `json:"id" bson:"id"`
	TestCaseID string       `json:"test_case_id" bson:"test_case_id"`
	Reviewer   string       `json:"reviewer" bson:"reviewer"`
	Result     ReviewResult `json:"result" bson:"result"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
}

type ReviewResult struct {
	Score            float64  `json:"score" bson:"score"`
	Strengths        []string `json:"strengths" bson:"strengths"`
	Weaknesses       []string `json:"weaknesses" bson:"weaknesses"`
	Suggestions      []string `json:"suggestions" bson:"suggestions"`
	MissingScenarios []string `json:"missing_scenarios" bson:"missing_scenarios"`
	Recommendation   string   `json:"recommendation" bson:"recommendation"`
	Comments         string   `json:"comments" bson:"comments"`
}

func NewReview(testCaseID, reviewer string, res ReviewResult) *Review {
	return &Review{
		ID:         uuid.New().String(),
		TestCaseID: testCaseID,
		Reviewer:   reviewer,
		Result:     res,
		CreatedAt:  time.Now(),
	}
}
