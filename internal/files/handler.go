package files

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/server/middleware"
	"portal-backend/internal/shared/server/respond"
	"portal-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 25 << 20

// Handler wires file routes to the service.
type Handler struct {
	Svc            *Service
	Guard          middleware.Authorizer
	MaxUploadBytes int64
}

func NewHandler(svc *Service, guard middleware.Authorizer, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, Guard: guard, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/files")
	g.GET("/mine", middleware.Auth(h.Guard), h.mine)
	g.POST("/upload", middleware.Auth(h.Guard), h.upload)
	g.GET("/:id/download", middleware.AuthWithQueryToken(h.Guard), h.download)
	g.DELETE("/:id", middleware.Auth(h.Guard), h.delete)
}

func (h *Handler) mine(c *gin.Context) {
	list, err := h.Svc.ListOwned(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponses(list))
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds size limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form required", nil)
		return
	}

	headers := form.File["files"]
	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		file, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			closeAll(uploads)
			return
		}
		uploads = append(uploads, Upload{FileName: fh.Filename, Body: file})
	}
	defer closeAll(uploads)

	stored, err := h.Svc.Store(c.Request.Context(), userID, formValue(form, "category"), formValue(form, "description"), uploads)
	var batchErr *BatchError
	if err != nil && !errors.As(err, &batchErr) {
		writeError(c, err)
		return
	}

	if batchErr == nil {
		respond.Created(c, gin.H{"files": toResponses(stored)})
		return
	}

	failures := make([]failureResponse, 0, len(batchErr.Failures))
	for _, f := range batchErr.Failures {
		failures = append(failures, failureResponse{FileName: f.FileName, Error: failureMessage(f.Err)})
	}
	if len(stored) == 0 {
		respond.Error(c, http.StatusInternalServerError, "upload_failed", "No files could be stored", gin.H{"failures": failures})
		return
	}
	respond.MultiStatus(c, gin.H{
		"files":    toResponses(stored),
		"failures": failures,
	})
}

func (h *Handler) download(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	fileID := c.Param("id")
	c.Set("fileId", fileID)

	rc, f, err := h.Svc.Read(c.Request.Context(), fileID, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": f.FileName})
	if disposition == "" {
		disposition = "attachment"
	}
	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, f.SizeBytes, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *Handler) delete(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	fileID := c.Param("id")
	c.Set("fileId", fileID)

	if err := h.Svc.Delete(c.Request.Context(), fileID, principal); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"id": fileID, "deleted": true})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		respond.Error(c, http.StatusUnauthorized, "unauthenticated", "Owner could not be resolved", nil)
	case errors.Is(err, ErrNoFilesProvided):
		respond.Error(c, http.StatusBadRequest, "validation_error", "No files provided", nil)
	case errors.Is(err, ErrMissingCategory):
		respond.Error(c, http.StatusBadRequest, "validation_error", "category is required", nil)
	case errors.Is(err, ErrInvalidCategory):
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown category", gin.H{"allowed": Categories})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "You do not have access to this file", nil)
	case errors.Is(err, ErrBackingBytesMissing):
		respond.Error(c, http.StatusInternalServerError, "download_failed", "File could not be downloaded", nil)
	case errors.Is(err, ErrStoreUnavailable):
		telemetry.Error("files.store_unavailable", map[string]any{"err": err.Error()})
		respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "Service temporarily unavailable", nil)
	default:
		telemetry.Error("files.internal_error", map[string]any{"err": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
	}
}

func formValue(form *multipart.Form, key string) string {
	if vals := form.Value[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

func closeAll(uploads []Upload) {
	for _, up := range uploads {
		if closer, ok := up.Body.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}
