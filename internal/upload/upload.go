// Package upload provides the multipart file upload middleware used by the
// create-place route. It accepts a single image file, validates its MIME type
// against an allow-list, and stores it on local disk under a generated name.
package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/placeshare/internal/logger"
	"github.com/patric-chuzhbe/placeshare/internal/models"
)

// FileField is the multipart form field the image is expected under.
const FileField = "image"

const maxUploadSize = 10 << 20

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// ImagePathKey is the context key under which the stored file's path is
// exposed to the downstream handler.
const ImagePathKey ContextKey = "imagePath"

var allowedMIMETypes = []string{"image/jpeg", "image/png"}

type responseStatusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseStatusRecorder) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.status = statusCode
}

// Uploader stores accepted image files in a local directory.
type Uploader struct {
	uploadsDir string
}

// New creates an Uploader writing into uploadsDir, creating it if needed.
func New(uploadsDir string) (*Uploader, error) {
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return nil, err
	}

	return &Uploader{uploadsDir: uploadsDir}, nil
}

// SingleImage is an HTTP middleware accepting at most one image file under
// the "image" form field. On success the stored file's path is placed into
// the request context. If the downstream handler fails, the stored file is
// removed again so failed requests leave no orphaned uploads behind.
func (u *Uploader) SingleImage(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if err := request.ParseMultipartForm(maxUploadSize); err != nil {
			writeUploadError(response, "Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity)
			return
		}

		file, _, err := request.FormFile(FileField)
		if err != nil {
			writeUploadError(response, "Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeUploadError(response, "Could not process the uploaded file.", http.StatusInternalServerError)
			return
		}

		detected := mimetype.Detect(data)
		if !isAllowedMIMEType(detected) {
			writeUploadError(response, "Invalid image type, only jpeg and png are accepted.", http.StatusUnprocessableEntity)
			return
		}

		imagePath := filepath.Join(u.uploadsDir, uuid.New().String()+detected.Extension())
		if err := os.WriteFile(imagePath, data, 0644); err != nil {
			writeUploadError(response, "Could not store the uploaded file.", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(request.Context(), ImagePathKey, imagePath)
		recorder := &responseStatusRecorder{ResponseWriter: response}

		h.ServeHTTP(recorder, request.WithContext(ctx))

		if recorder.status >= http.StatusBadRequest {
			if err := os.Remove(imagePath); err != nil {
				logger.Log.Debugln("Error removing the uploaded file of a failed request: ", zap.Error(err))
			}
		}
	}

	return http.HandlerFunc(middleware)
}

func isAllowedMIMEType(detected *mimetype.MIME) bool {
	for _, allowed := range allowedMIMETypes {
		if detected.Is(allowed) {
			return true
		}
	}

	return false
}

func writeUploadError(response http.ResponseWriter, message string, code int) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(code)
	err := json.NewEncoder(response).Encode(models.MessageResponse{Message: message})
	if err != nil {
		logger.Log.Debugln("Error encoding the upload failure response: ", zap.Error(err))
	}
}
