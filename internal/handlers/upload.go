package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shwemart/shwemart/internal/errs"
	"github.com/shwemart/shwemart/internal/storage"
)

// saveUpload stores a single uploaded image field and returns its generated
// name. Only JPEG and PNG are accepted; everything heavier is the
// optimization worker's problem.
func saveUpload(r *http.Request, field string, files *storage.Storage, maxSize int64) (string, error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return "", errs.Invalid("Invalid multipart form.")
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", errs.Invalid("Image file is required.")
	}
	defer file.Close()

	if !isSupportedImage(header.Filename) {
		return "", errs.Invalid("Only JPEG and PNG images are supported.")
	}

	return files.Save(header.Filename, file)
}

func isSupportedImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// optimizedName maps a stored upload name to its derivative name.
func optimizedName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
