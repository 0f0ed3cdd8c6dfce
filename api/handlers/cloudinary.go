package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/policy"
	"github.com/linesmerrill/malkhana-api/services"
	"github.com/linesmerrill/malkhana-api/storage"
)

// MaxPhotoBytes is the largest property photo accepted
const MaxPhotoBytes = 5 << 20

// CloudinaryHandler handles property photo uploads
type CloudinaryHandler struct {
	Photos storage.PhotoStore
	Signer storage.Signer
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (c CloudinaryHandler) allowed(r *http.Request) error {
	return services.Permit(api.CallerFromContext(r.Context()), policy.UploadPhoto)
}

// UploadPhotoHandler stores the multipart "file" image and returns its URL
func (c CloudinaryHandler) UploadPhotoHandler(w http.ResponseWriter, r *http.Request) {
	if err := c.allowed(r); err != nil {
		writeError(w, err)
		return
	}

	// leave room for the multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoBytes+(64<<10))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, models.NewValidation("File size must be less than 5MB"))
			return
		}
		writeError(w, models.NewValidation("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Size > MaxPhotoBytes {
		writeError(w, models.NewValidation("File size must be less than 5MB"))
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, models.NewValidation("No file uploaded"))
		return
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		writeError(w, models.NewValidation("Only image files are allowed"))
		return
	}

	if c.Photos == nil {
		writeError(w, models.NewInternal(storage.ErrNotConfigured))
		return
	}
	url, err := c.Photos.UploadPhoto(r.Context(), io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		writeError(w, models.NewInternal(err))
		return
	}
	zap.S().Infow("photo uploaded", "url", url, "size", header.Size)
	writeJSON(w, http.StatusOK, "File uploaded successfully", uploadResponse{URL: url})
}

// GenerateSignature returns signed parameters for a direct browser upload
func (c CloudinaryHandler) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	if err := c.allowed(r); err != nil {
		writeError(w, err)
		return
	}
	sig, err := c.Signer.Sign()
	if err != nil {
		writeError(w, models.NewInternal(err))
		return
	}
	writeJSON(w, http.StatusOK, "", sig)
}
