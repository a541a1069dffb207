package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/transport"
	"github.com/go-chi/chi"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Submit accepts a JSON body of rows, a raw text/csv body, or a multipart
// form with a "file" part.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	domain := Domain(chi.URLParam(r, "domain"))

	req, appErr := h.readSubmission(r)
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	req.Domain = domain

	batch, err := h.Service.Submit(r.Context(), actor, projectID, req)
	if err != nil {
		h.Logger.Warn("Submit: upload not processed", "error", err, "project_id", projectID, "domain", domain)
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, batch)
}

func (h *Handler) readSubmission(r *http.Request) (SubmitRequest, *internal.AppError) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "text/csv":
		rows, err := ParseCSV(io.LimitReader(r.Body, maxUploadBytes))
		if err != nil {
			return SubmitRequest{}, csvError(err)
		}
		return SubmitRequest{
			FileName: r.URL.Query().Get("file_name"),
			FileSize: r.ContentLength,
			Rows:     rows,
		}, nil

	case strings.HasPrefix(mediaType, "multipart/"):
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return SubmitRequest{}, internal.NewValidationError("Invalid multipart upload", map[string]any{"reason": err.Error()})
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return SubmitRequest{}, internal.NewValidationError("file is required", nil)
		}
		defer file.Close()
		rows, err := ParseCSV(file)
		if err != nil {
			return SubmitRequest{}, csvError(err)
		}
		return SubmitRequest{FileName: header.Filename, FileSize: header.Size, Rows: rows}, nil
	}

	var dto SubmitUploadDTO
	if appErr := h.DecodeJSON(r, &dto); appErr != nil {
		return SubmitRequest{}, appErr
	}
	return SubmitRequest{FileName: dto.FileName, FileSize: r.ContentLength, Rows: dto.ToRows()}, nil
}

func csvError(err error) *internal.AppError {
	if errors.Is(err, ErrNoHeader) {
		return internal.NewValidationError("The uploaded file has no header row", nil)
	}
	return internal.NewUploadFailedError("The uploaded file could not be read", err).
		WithDetail("reason", err.Error())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}
	batchID, appErr := h.PathID(r, "batchID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	batch, err := h.Service.Get(r.Context(), actor, projectID, Domain(chi.URLParam(r, "domain")), batchID)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, batch)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.RequireIdentity(w, r)
	if !ok {
		return
	}
	projectID, appErr := h.PathID(r, "projectID")
	if appErr != nil {
		h.WriteError(w, appErr)
		return
	}

	batches, err := h.Service.List(r.Context(), actor, projectID, Domain(chi.URLParam(r, "domain")))
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, BatchesResponse{Batches: batches})
}
