package relay

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/imgrelay/service/internal/response"
)

// ImageField is the multipart form field carrying the upload.
const ImageField = "image"

const defaultContentType = "application/octet-stream"

// Handler holds HTTP handlers for upload endpoints.
type Handler struct {
	svc       *Service
	log       *zap.Logger
	maxMemory int64
}

// NewHandler creates a new upload Handler. maxMemory bounds how much of a
// multipart form is held in memory before spilling to disk.
func NewHandler(svc *Service, log *zap.Logger, maxMemory int64) *Handler {
	return &Handler{svc: svc, log: log, maxMemory: maxMemory}
}

// Upload godoc
//
//	@Summary		Upload image
//	@Description	Relay the image form file to the storage bucket with a public-read ACL and return its public URL.
//	@Tags			uploads
//	@Accept			multipart/form-data
//	@Produce		plain
//	@Param			image	formData	file	true	"Image file"
//	@Success		200		{string}	string	"Image uploaded successfully: <url>"
//	@Failure		400		{string}	string	"Missing image file"
//	@Failure		500		{string}	string	"Internal Server Error"
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		h.log.Debug("parse multipart form",
			zap.String("content_type", r.Header.Get("Content-Type")),
			zap.Error(err),
		)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll() //nolint:errcheck
	}

	file, header, err := r.FormFile(ImageField)
	if err != nil {
		err = &MissingInputError{Field: ImageField, Err: err}
		h.log.Info("rejected upload", zap.String("error_kind", ErrorKind(err)), zap.Error(err))
		response.Text(w, http.StatusBadRequest, response.MsgMissingImage)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	res, err := h.svc.Upload(r.Context(), Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Text(w, http.StatusOK, response.MsgUploadSucceeded+res.URL)
}

// ListUploads godoc
//
//	@Summary		List recent uploads
//	@Description	Returns the most recent uploads, newest first. Empty when upload history is disabled.
//	@Tags			uploads
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum records (1-100, default 20)"
//	@Success		200		{object}	response.Envelope{data=[]history.Record}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{string}	string	"Internal Server Error"
//	@Router			/uploads [get]
func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("list uploads", zap.Error(err))
		response.InternalError(w)
		return
	}

	response.OK(w, records)
}
