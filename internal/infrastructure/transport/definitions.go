package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"testbrain/app/usecase"
	"testbrain/internal/domain/entity"
)

// POST /api/v1/api-definitions (multipart field "file")
func (h *Handler) handleUploadDefinitions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	res, err := h.svc.Definitions.Upload(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidInput) && res != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "validation": res.Report})
			return
		}
		h.fail(w, r, "upload_definitions", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/v1/api-definitions
func (h *Handler) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.Definitions.List(r.Context())
	if err != nil {
		h.fail(w, r, "list_definitions", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// GET /api/v1/api-definitions/{name}
func (h *Handler) handleDownloadDefinitions(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, err := h.svc.Definitions.Download(r.Context(), name)
	if err != nil {
		h.fail(w, r, "download_definitions", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// POST /api/v1/api-definitions/{name}/generate
func (h *Handler) handleGenerateDefinitions(w http.ResponseWriter, r *http.Request) {
	var req usecase.GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "generate_definitions", err)
		return
	}
	res, err := h.svc.Definitions.Generate(r.Context(), mux.Vars(r)["name"], req)
	if err != nil {
		h.fail(w, r, "generate_definitions", err)
		return
	}
	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, res)
}
