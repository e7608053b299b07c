package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"testbrain/app/usecase"
	"testbrain/internal/domain/entity"
	"testbrain/internal/infrastructure/metrics"
)

const wsWriteWait = 10 * time.Second

// POST /api/v1/jobs
func (h *Handler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateJobRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, "create_job", err)
		return
	}
	job, err := h.svc.Jobs.CreateJob(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create_job", err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// GET /api/v1/jobs
func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.Jobs.ListJobs(r.Context())
	if err != nil {
		h.fail(w, r, "list_jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GET /api/v1/jobs/{id}
func (h *Handler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Jobs.GetJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, "get_job", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// DELETE /api/v1/jobs/{id}
func (h *Handler) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Jobs.DeleteJob(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, "delete_job", err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// GET /api/v1/jobs/{id}/ws streams job snapshots until the job is terminal.
func (h *Handler) handleJobStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := h.svc.Jobs.GetJob(r.Context(), id)
	if err != nil {
		h.fail(w, r, "job_stream", err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	defer conn.Close()
	metrics.IncWSConnections()
	defer metrics.DecWSConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logger := h.logger.With(zap.String("job_id", id))
	if err := h.streamJob(ctx, conn, job); err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("job stream ended", zap.Error(err))
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"),
		time.Now().Add(time.Second))
}

func (h *Handler) streamJob(ctx context.Context, conn *websocket.Conn, job *entity.Job) error {
	ticker := time.NewTicker(h.wsPoll)
	defer ticker.Stop()

	var lastStatus entity.JobStatus
	var lastUpdate time.Time
	for {
		if job.Status != lastStatus || !job.UpdatedAt.Equal(lastUpdate) {
			// The server write timeout still applies to the hijacked conn.
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(job); err != nil {
				return err
			}
			lastStatus, lastUpdate = job.Status, job.UpdatedAt
		}
		if job.IsTerminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		next, err := h.svc.Jobs.GetJob(ctx, job.ID)
		if err != nil {
			return err
		}
		job = next
	}
}
