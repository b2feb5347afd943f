package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"photofilter/internal/ingress"
)

// multipartOverhead leaves room for boundaries and form fields around the
// file part.
const multipartOverhead = 1 << 20

type uploadResponse struct {
	JobID   int64  `json:"jobId"`
	ImageID int64  `json:"imageId"`
	Status  string `json:"status"`
}

// Upload accepts a multipart image plus a style selector and starts a job.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := a.Service.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			a.error(w, http.StatusRequestEntityTooLarge, "payload_too_large", "file exceeds upload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "no image uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "could not read image")
		return
	}

	style := r.FormValue("filterType")
	if strings.TrimSpace(style) == "" {
		style = r.FormValue("style")
	}

	job, err := a.Service.Submit(r.Context(), ingress.Upload{Data: data, Filename: header.Filename}, style)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, uploadResponse{JobID: job.ID, ImageID: job.ID, Status: string(job.Status)})
}
