package httpx

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/service"
)

const (
	defaultMaxImageBytes = 5 << 20
	multipartMemory      = 8 << 20
)

// parseInt64Query returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseInt64Query(r *http.Request, key string, def int64) int64 {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// parseMultipart parses a multipart body capped at maxBody bytes.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBody int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperrors.Validation("Upload is too large.")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Invalid form submission.")
	}
	return nil
}

// formUploads opens the named file fields of a parsed multipart form.
// Absent fields are skipped; the returned closer releases every opened file.
type formUploads struct {
	files []multipart.File
}

func (f *formUploads) open(r *http.Request, field string, maxBytes int64) (service.Upload, error) {
	if r.MultipartForm == nil {
		return service.Upload{}, nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return service.Upload{}, nil
	}
	fh := headers[0]
	if maxBytes > 0 && fh.Size > maxBytes {
		return service.Upload{}, apperrors.ValidationField(field, "Image is too large.")
	}
	file, err := fh.Open()
	if err != nil {
		return service.Upload{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "Could not read upload.")
	}
	f.files = append(f.files, file)
	return service.Upload{Body: file, Size: fh.Size, ContentType: fh.Header.Get("Content-Type")}, nil
}

func (f *formUploads) Close() {
	for _, file := range f.files {
		_ = file.Close()
	}
	f.files = nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.ValidationField(key, "Must be a whole number.")
	}
	return n, nil
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(r.FormValue(key)))
	return b || strings.EqualFold(strings.TrimSpace(r.FormValue(key)), "yes") || r.FormValue(key) == "on"
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
