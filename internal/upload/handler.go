package upload

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/auth"
	"github.com/frahmantamala/employee-console/internal/transport"
	"github.com/frahmantamala/employee-console/pkg/logger"
)

const maxMemory = 32 << 20

type ServiceAPI interface {
	Upload(ctx context.Context, req Request) ([]Result, error)
	Delete(ctx context.Context, url, userID string) error
	SignURL(ctx context.Context, req SignRequest, uploader string) (*SignedUpload, error)
	MaxRequestBytes() int64
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

type deleteRequest struct {
	URL string `json:"url"`
}

// UploadFiles accepts multipart "files" parts. A single upload answers with one result,
// a multiple upload with the list of successful results.
func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Service.MaxRequestBytes())
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.HandleError(w, internal.NewValidationError("Upload is too large", internal.ErrCodeFileTooLarge))
			return
		}
		h.HandleError(w, internal.NewValidationFieldError("files", "Invalid multipart form", internal.ErrCodeInvalidQuery))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		body, err := fh.Open()
		if err != nil {
			h.Logger.Error("UploadFiles: failed to open part", "file", fh.Filename, "error", err)
			h.HandleError(w, internal.ErrUploadFailed)
			return
		}
		defer body.Close()
		files = append(files, File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        body,
		})
	}

	multiple := formBool(r.MultipartForm, "multiple")
	results, err := h.Service.Upload(r.Context(), Request{
		Files:    files,
		Target:   targetFromForm(r.MultipartForm),
		Multiple: multiple,
		Uploader: sess.User.Name,
		UserID:   sess.User.ID,
		Token:    sess.UpstreamToken,
	})
	if err != nil {
		h.HandleError(w, err)
		return
	}

	ok := Successful(results)
	if len(ok) == 0 {
		h.HandleError(w, internal.ErrUploadFailed)
		return
	}
	if multiple {
		h.WriteJSON(w, http.StatusOK, ok)
		return
	}
	h.WriteJSON(w, http.StatusOK, ok[0])
}

func (h *Handler) SignUpload(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return
	}

	var req SignRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	signed, err := h.Service.SignURL(r.Context(), req, sess.User.Name)
	if err != nil {
		h.HandleError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, signed)
}

func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.HandleError(w, internal.ErrSessionNotFound)
		return
	}

	var req deleteRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), req.URL, sess.User.ID); err != nil {
		h.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func targetFromForm(form *multipart.Form) Target {
	return Target{
		ProfilePicture: formBool(form, "profilePicture"),
		Task:           formBool(form, "isTask"),
		Project:        formBool(form, "isProject"),
		ProjectID:      formValue(form, "projectId"),
	}
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func formBool(form *multipart.Form, key string) bool {
	b, _ := strconv.ParseBool(formValue(form, key))
	return b
}
