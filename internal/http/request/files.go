// Package request читает multipart-формы и JSON-тела с ограничением размера.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/serpleno/serpleno/internal/models"
)

var (
	// ErrNoForm: запрос не является multipart-формой.
	ErrNoForm = errors.New("multipart form expected")
	// ErrTooLarge: тело запроса больше Limits.MaxBytes.
	ErrTooLarge = errors.New("request body too large")
)

const (
	defaultMaxMemory = 32 << 20
	defaultMaxBytes  = 100 << 20
)

// Limits ограничивает чтение тела. MaxMemory: часть формы, которая держится
// в памяти, остальное уходит во временные файлы. MaxBytes: предел всего тела.
// Значения <= 0 заменяются значениями по умолчанию.
type Limits struct {
	MaxMemory int64
	MaxBytes  int64
}

func (l Limits) orDefault() Limits {
	if l.MaxMemory <= 0 {
		l.MaxMemory = defaultMaxMemory
	}
	if l.MaxBytes <= 0 {
		l.MaxBytes = defaultMaxBytes
	}
	return l
}

// ParseForm разбирает multipart-форму. Тело больше l.MaxBytes дает ErrTooLarge.
func ParseForm(w http.ResponseWriter, r *http.Request, l Limits) error {
	const op = "request.ParseForm"

	l = l.orDefault()
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return ErrNoForm
	}
	body := limit(w, r, l.MaxBytes)
	if err := r.ParseMultipartForm(l.MaxMemory); err != nil {
		if body.exceeded {
			return fmt.Errorf("%s: %w", op, ErrTooLarge)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DecodeJSON разбирает JSON-тело в v с тем же пределом размера.
func DecodeJSON(w http.ResponseWriter, r *http.Request, l Limits, v any) error {
	const op = "request.DecodeJSON"

	body := limit(w, r, l.orDefault().MaxBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if body.exceeded {
			return fmt.Errorf("%s: %w", op, ErrTooLarge)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// limitedBody запоминает, что чтение упёрлось в предел http.MaxBytesReader.
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

func limit(w http.ResponseWriter, r *http.Request, n int64) *limitedBody {
	b := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, n)}
	r.Body = b
	return b
}

// Files читает все файлы поля. Форма должна быть разобрана через ParseForm.
func Files(r *http.Request, field string) ([]models.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]models.File, 0, len(headers))
	for _, fh := range headers {
		f, err := read(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// File читает первый файл поля или возвращает nil, если файла нет.
func File(r *http.Request, field string) (*models.File, error) {
	files, err := Files(r, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

func read(fh *multipart.FileHeader) (models.File, error) {
	const op = "request.read"

	src, err := fh.Open()
	if err != nil {
		return models.File{}, fmt.Errorf("%s: %w", op, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return models.File{}, fmt.Errorf("%s: %w", op, err)
	}
	mime := fh.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return models.File{Name: fh.Filename, MIME: mime, Data: data}, nil
}
