package storage

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateKey generates a new object key with the given extension
func GenerateKey(extension string) (string, error) {
	id, err := gonanoid.Generate(keyAlphabet, 21)
	if err != nil {
		return "", err
	}
	extension = strings.TrimPrefix(extension, ".")
	if extension == "" {
		return id, nil
	}
	return id + "." + extension, nil
}

// ExtensionFromContentType infers the file extension from a media content type
//
// Returns an empty string if the content type is unknown.
func ExtensionFromContentType(contentType string) string {
	contentTypeMap := map[string]string{
		"image/jpeg":       "jpg",
		"image/jpg":        "jpg",
		"image/png":        "png",
		"image/gif":        "gif",
		"image/webp":       "webp",
		"image/svg+xml":    "svg",
		"video/mp4":        "mp4",
		"video/webm":       "webm",
		"video/ogg":        "ogv",
		"video/quicktime":  "mov",
		"video/x-msvideo":  "avi",
		"video/x-matroska": "mkv",
	}

	base, _, _ := strings.Cut(contentType, ";")
	if ext, ok := contentTypeMap[strings.ToLower(strings.TrimSpace(base))]; ok {
		return ext
	}
	return ""
}
