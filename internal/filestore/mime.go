package filestore

import (
	"errors"
	"mime"
)

// ErrUnsupportedMIME: тип файла не входит в список разрешённых.
var ErrUnsupportedMIME = errors.New("file type is not allowed")

// AllowedMIME: типы файлов, которые принимает платформа.
var AllowedMIME = []string{
	"video/mp4",
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/pdf",
}

// Allowed сообщает, разрешён ли тип. Параметры вроде charset игнорируются.
func Allowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, m := range AllowedMIME {
		if m == mediaType {
			return true
		}
	}
	return false
}
