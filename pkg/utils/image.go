package utils

import (
	"net/http"
	"strings"
)

// IsImage sniffs the leading bytes of data for an image content type.
func IsImage(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}
