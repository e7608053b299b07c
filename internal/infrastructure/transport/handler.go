package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"testbrain/app/usecase"
	"testbrain/internal/domain/entity"
	"testbrain/internal/infrastructure/metrics"
)

const maxUploadSize = 10 << 20

// Services are the use cases the HTTP API exposes.
type Services struct {
	TestCases    *usecase.TestCaseService
	Requirements *usecase.RequirementGenerator
	Reviewer     *usecase.Reviewer
	Knowledge    *usecase.KnowledgeService
	Definitions  *usecase.APIDefinitionService
	Jobs         usecase.JobUsecase
	PRD          *usecase.PRDAnalyser
	// Providers lists the configured LLM provider names for /health.
	Providers []string
}

type Handler struct {
	svc      Services
	logger   *zap.Logger
	upgrader websocket.Upgrader
	wsPoll   time.Duration
}

func NewHandler(svc Services, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		wsPoll: time.Second,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.withMetrics)
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/generate", h.handleGenerate).Methods(http.MethodPost)

	api.HandleFunc("/test-cases", h.handleSaveTestCases).Methods(http.MethodPost)
	api.HandleFunc("/test-cases", h.handleListTestCases).Methods(http.MethodGet)
	api.HandleFunc("/test-cases", h.handleDeleteTestCases).Methods(http.MethodDelete)
	api.HandleFunc("/test-cases/batch", h.handleGetTestCases).Methods(http.MethodGet)
	api.HandleFunc("/test-cases/export", h.handleExportTestCases).Methods(http.MethodGet)
	api.HandleFunc("/test-cases/{id}", h.handleGetTestCase).Methods(http.MethodGet)
	api.HandleFunc("/test-cases/{id}", h.handleUpdateTestCase).Methods(http.MethodPut)
	api.HandleFunc("/test-cases/{id}/review", h.handleReview).Methods(http.MethodPost)
	api.HandleFunc("/test-cases/{id}/reviews", h.handleReviewHistory).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)

	api.HandleFunc("/knowledge", h.handleAddKnowledge).Methods(http.MethodPost)
	api.HandleFunc("/knowledge", h.handleListKnowledge).Methods(http.MethodGet)
	api.HandleFunc("/knowledge/search", h.handleSearchKnowledge).Methods(http.MethodPost)

	api.HandleFunc("/api-definitions", h.handleUploadDefinitions).Methods(http.MethodPost)
	api.HandleFunc("/api-definitions", h.handleListDefinitions).Methods(http.MethodGet)
	api.HandleFunc("/api-definitions/{name}", h.handleDownloadDefinitions).Methods(http.MethodGet)
	api.HandleFunc("/api-definitions/{name}/generate", h.handleGenerateDefinitions).Methods(http.MethodPost)

	api.HandleFunc("/jobs", h.handleCreateJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs", h.handleListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.handleGetJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.handleDeleteJob).Methods(http.MethodDelete)
	api.HandleFunc("/jobs/{id}/ws", h.handleJobStream).Methods(http.MethodGet)

	api.HandleFunc("/prd/analyse", h.handleAnalysePRD).Methods(http.MethodPost)
	api.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	// Prometheus
	r.Handle("/metrics", metrics.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail maps domain errors to a status and logs server-side failures.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.String("uri", r.RequestURI), zap.Error(err))
		metrics.IncError("http", op)
	}
	writeError(w, code, err)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: bad request body: %v", entity.ErrInvalidInput, err)
	}
	return nil
}

// splitIDs parses ?ids=a,b,c.
func splitIDs(r *http.Request) []string {
	var ids []string
	for _, raw := range r.URL.Query()["ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// GET /api/v1/health
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok":        true,
		"ts":        time.Now().UTC(),
		"providers": h.svc.Providers,
	}
	writeJSON(w, http.StatusOK, status)
}

// POST /api/v1/prd/analyse
func (h *Handler) handleAnalysePRD(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		Provider string `json:"llm_provider"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "analyse_prd", err)
		return
	}
	out, err := h.svc.PRD.Analyse(r.Context(), req.Content, req.Provider)
	if err != nil {
		h.fail(w, r, "analyse_prd", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": out})
}
