package utils

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

// DetectContentType sniffs the MIME type of a seekable stream and rewinds it
// so the caller can decode it from the beginning.
func DetectContentType(r io.ReadSeeker) (string, error) {
	// Only the first 512 bytes are used to sniff the content type.
	buffer := make([]byte, 512)
	n, err := r.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	// Reset the read pointer.
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	return http.DetectContentType(buffer[:n]), nil
}

// IsLossless reports whether the content type denotes a losslessly encoded image.
func IsLossless(contentType string) bool {
	return strings.HasPrefix(contentType, "image/png") || strings.HasPrefix(contentType, "image/bmp")
}
