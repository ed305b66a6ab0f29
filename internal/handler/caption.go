package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/kdduha/image-captioner/internal/metrics"
	"github.com/kdduha/image-captioner/internal/models"
	"github.com/kdduha/image-captioner/internal/provider"
	"github.com/kdduha/image-captioner/internal/upload"
	"go.uber.org/zap"
)

const styleField = "style"

type captionService interface {
	Caption(ctx context.Context, img *models.UploadedImage, mimeType string, style models.CaptionStyle) (string, error)
}

type CaptionHandler struct {
	logger     *zap.Logger
	stager     *upload.Stager
	service    captionService
	jsonOutput bool
}

func NewCaptionHandler(logger *zap.Logger, stager *upload.Stager, service captionService, jsonOutput bool) *CaptionHandler {
	return &CaptionHandler{
		logger:     logger,
		stager:     stager,
		service:    service,
		jsonOutput: jsonOutput,
	}
}

// Caption godoc
// @Summary Generate captions for an image
// @Description Upload one image (jpeg, jpg, png, gif, webp) and receive five numbered captions.
// @Description The body is the provider text as is, or a JSON object when CAPTION_OUTPUT=json.
// @Tags caption
// @Accept multipart/form-data
// @Produce plain
// @Produce json
// @Param file formData file true "Image to caption"
// @Param style formData string false "Caption style" Enums(default, short, detailed, humorous, formal)
// @Success 200 {string} string "Numbered captions"
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /caption-image [post]
func (h *CaptionHandler) Caption(w http.ResponseWriter, r *http.Request) {
	form, err := h.stager.Receive(r)
	if err != nil {
		h.reject(w, err)
		return
	}
	img := form.Image
	defer h.cleanup(img)

	metrics.UploadsTotal("accepted", img.Ext)
	metrics.UploadSize(img.Ext, img.Size)

	style := models.ParseCaptionStyle(form.Values.Get(styleField))

	mimeType, err := upload.DetectMIMEType(img.Path)
	if err != nil {
		h.logger.Warn("could not determine file type", zap.String("file", img.OriginalName), zap.Error(err))
		http.Error(w, "Could not determine file type.", http.StatusBadRequest)
		return
	}

	text, err := h.service.Caption(r.Context(), img, mimeType, style)
	if err != nil {
		if pErr, ok := provider.AsError(err); ok {
			http.Error(w, pErr.Message(), http.StatusInternalServerError)
			return
		}
		h.logger.Error("caption request failed", zap.Error(err))
		http.Error(w, fmt.Sprintf("Server error: %s", err), http.StatusInternalServerError)
		return
	}

	if h.jsonOutput {
		h.writeJSON(w, style, text)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (h *CaptionHandler) writeJSON(w http.ResponseWriter, style models.CaptionStyle, text string) {
	body, err := sonic.Marshal(&models.CaptionResponse{
		Style:    style,
		Captions: models.ParseNumberedCaptions(text),
		Raw:      text,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Server error: failed to encode: %s", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *CaptionHandler) reject(w http.ResponseWriter, err error) {
	status, msg := h.rejection(err)
	metrics.UploadsTotal(status, "unknown")

	if status == "error" {
		h.logger.Error("failed to receive upload", zap.Error(err))
		http.Error(w, fmt.Sprintf("Server error: %s", err), http.StatusInternalServerError)
		return
	}
	h.logger.Info("upload rejected", zap.String("status", status), zap.Error(err))
	http.Error(w, msg, http.StatusBadRequest)
}

func (h *CaptionHandler) rejection(err error) (status, msg string) {
	switch {
	case errors.Is(err, upload.ErrNoFileProvided):
		return "no_file", "No file uploaded or file type rejected."
	case errors.Is(err, upload.ErrUnsupportedFileType):
		return "unsupported_type", "File upload only supports the following filetypes - " + upload.AllowedTypes
	case errors.Is(err, upload.ErrFileTooLarge):
		return "too_large", fmt.Sprintf("File too large. Maximum size is %s.", formatSize(h.stager.MaxBytes()))
	case errors.Is(err, upload.ErrUnexpectedFile):
		return "unexpected_file", fmt.Sprintf("Only a single file in field %q is accepted.", upload.FileField)
	case errors.Is(err, upload.ErrMalformedForm):
		return "malformed", "Malformed multipart form."
	default:
		return "error", ""
	}
}

// cleanup never changes the response already written.
func (h *CaptionHandler) cleanup(img *models.UploadedImage) {
	err := h.stager.Remove(img)
	switch {
	case err == nil:
		metrics.StagedCleanupTotal("removed")
	case errors.Is(err, upload.ErrAlreadyRemoved):
		metrics.StagedCleanupTotal("already_removed")
		h.logger.Info("staged file already removed", zap.String("path", img.Path))
	default:
		metrics.StagedCleanupTotal("failed")
		h.logger.Error("failed to remove staged file", zap.String("path", img.Path), zap.Error(err))
	}
}

func formatSize(n int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case n%mb == 0:
		return fmt.Sprintf("%d MB", n/mb)
	case n%kb == 0:
		return fmt.Sprintf("%d KB", n/kb)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
