package transport

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"testbrain/app/usecase"
	"testbrain/internal/domain/entity"
)

// POST /api/v1/generate
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req usecase.RequirementRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "generate", err)
		return
	}
	res, err := h.svc.Requirements.Generate(r.Context(), req)
	if err != nil {
		h.fail(w, r, "generate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/test-cases
func (h *Handler) handleSaveTestCases(w http.ResponseWriter, r *http.Request) {
	var req usecase.SaveCasesRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "save_test_cases", err)
		return
	}
	cases, err := h.svc.TestCases.SaveBatch(r.Context(), req)
	if err != nil {
		h.fail(w, r, "save_test_cases", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"saved": len(cases), "test_cases": cases})
}

// GET /api/v1/test-cases?status=&page=
func (h *Handler) handleListTestCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.TestCases.List(r.Context(), entity.TestCaseStatus(q.Get("status")), q.Get("page"))
	if err != nil {
		h.fail(w, r, "list_test_cases", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GET /api/v1/test-cases/batch?ids=a,b
func (h *Handler) handleGetTestCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.svc.TestCases.GetMany(r.Context(), splitIDs(r))
	if err != nil {
		h.fail(w, r, "get_test_cases", err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

// GET /api/v1/test-cases/export?ids=a,b
func (h *Handler) handleExportTestCases(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.svc.TestCases.Export(r.Context(), splitIDs(r))
	if err != nil {
		h.fail(w, r, "export_test_cases", err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// DELETE /api/v1/test-cases?ids=a,b
func (h *Handler) handleDeleteTestCases(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.TestCases.Delete(r.Context(), splitIDs(r))
	if err != nil {
		h.fail(w, r, "delete_test_cases", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// GET /api/v1/test-cases/{id}
func (h *Handler) handleGetTestCase(w http.ResponseWriter, r *http.Request) {
	tc, err := h.svc.TestCases.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, "get_test_case", err)
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

// PUT /api/v1/test-cases/{id}
func (h *Handler) handleUpdateTestCase(w http.ResponseWriter, r *http.Request) {
	var upd entity.TestCaseUpdate
	if err := decodeBody(r, &upd); err != nil {
		h.fail(w, r, "update_test_case", err)
		return
	}
	tc, err := h.svc.TestCases.Update(r.Context(), mux.Vars(r)["id"], upd)
	if err != nil {
		h.fail(w, r, "update_test_case", err)
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

// POST /api/v1/test-cases/{id}/review
func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"llm_provider"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			h.fail(w, r, "review", err)
			return
		}
	}
	review, err := h.svc.Reviewer.Review(r.Context(), mux.Vars(r)["id"], req.Provider)
	if err != nil {
		h.fail(w, r, "review", err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// GET /api/v1/test-cases/{id}/reviews
func (h *Handler) handleReviewHistory(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.Reviewer.History(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, "review_history", err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GET /api/v1/stats
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.TestCases.Stats(r.Context())
	if err != nil {
		h.fail(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
