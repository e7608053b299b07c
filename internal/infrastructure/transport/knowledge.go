package transport

import (
	"net/http"
)

type addKnowledgeReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type searchKnowledgeReq struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// POST /api/v1/knowledge
func (h *Handler) handleAddKnowledge(w http.ResponseWriter, r *http.Request) {
	var req addKnowledgeReq
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "add_knowledge", err)
		return
	}
	entry, err := h.svc.Knowledge.Add(r.Context(), req.Title, req.Content)
	if err != nil {
		h.fail(w, r, "add_knowledge", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// GET /api/v1/knowledge
func (h *Handler) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Knowledge.List(r.Context())
	if err != nil {
		h.fail(w, r, "list_knowledge", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// POST /api/v1/knowledge/search
func (h *Handler) handleSearchKnowledge(w http.ResponseWriter, r *http.Request) {
	var req searchKnowledgeReq
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "search_knowledge", err)
		return
	}
	hits, err := h.svc.Knowledge.SearchTop(r.Context(), req.Query, req.TopK)
	if err != nil {
		h.fail(w, r, "search_knowledge", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": req.Query, "results": hits})
}
