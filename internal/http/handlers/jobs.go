package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"photofilter/internal/domain"
)

type jobResponse struct {
	ID            int64     `json:"id"`
	OriginalURL   string    `json:"originalUrl"`
	FilteredURL   *string   `json:"filteredUrl"`
	FilterType    string    `json:"filterType"`
	Status        string    `json:"status"`
	FailureReason *string   `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toJobResponse(job *domain.Job) jobResponse {
	resp := jobResponse{
		ID:          job.ID,
		OriginalURL: job.OriginalRef,
		FilteredURL: job.FilteredRef,
		FilterType:  string(job.Style),
		Status:      string(job.Status),
		CreatedAt:   job.CreatedAt,
	}
	if job.FailureReason != nil {
		reason := string(*job.FailureReason)
		resp.FailureReason = &reason
	}
	return resp
}

// JobStatus returns the snapshot of one job. It serves both /api/images/{id}
// and /api/jobs/{id}.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "id must be a positive integer")
		return
	}
	job, err := a.Service.Status(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}
