// Package services реализует раздел загрузок специалиста.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/serpleno/serpleno/internal/filestore"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/storage"
)

var (
	// ErrNoFiles: в запросе нет ни одного файла.
	ErrNoFiles = errors.New("at least one file is required")
	// ErrUploadNotFound: загрузки нет или она чужая.
	ErrUploadNotFound = errors.New("upload not found")
)

// FileStore сохраняет и удаляет файлы.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

// Meta: общие поля загрузки.
type Meta struct {
	Title    string
	Category string
}

// UploadService управляет файлами специалиста.
type UploadService struct {
	db    storage.Gateway
	files FileStore
	log   *slog.Logger
}

// NewUploadService создает новый экземпляр UploadService.
func NewUploadService(db storage.Gateway, files FileStore, log *slog.Logger) *UploadService {
	return &UploadService{db: db, files: files, log: log}
}

// Create сохраняет файлы и создаёт по записи на каждый. Недопустимый тип
// любого файла отклоняет весь запрос. Файл, который не удалось сохранить,
// пропускается.
func (s *UploadService) Create(ctx context.Context, proID int64, meta Meta, files []models.File) ([]models.Upload, error) {
	const op = "services.upload.Create"

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	for _, f := range files {
		if !filestore.Allowed(f.MIME) {
			return nil, filestore.ErrUnsupportedMIME
		}
	}

	log := s.log.With(slog.String("op", op), slog.Int64("pro_id", proID))
	uploads := make([]models.Upload, 0, len(files))
	for _, f := range files {
		url, err := s.files.Save(ctx, f.Name, f.Data)
		if err != nil {
			log.Warn("failed to store file, skipping", slog.String("file", f.Name), sl.Err(err))
			continue
		}
		item, err := s.db.Tables().Uploads.Insert(ctx, storage.Values{
			"pro_id":   proID,
			"title":    meta.Title,
			"category": meta.Category,
			"filepath": url,
			"mime":     f.MIME,
		})
		if err != nil {
			s.remove(ctx, url)
			return uploads, fmt.Errorf("%s: %w", op, err)
		}
		uploads = append(uploads, *item)
	}
	log.Info("files uploaded", slog.Int("stored", len(uploads)), slog.Int("received", len(files)))
	return uploads, nil
}

// List возвращает загрузки специалиста, новые первыми.
func (s *UploadService) List(ctx context.Context, proID int64) ([]models.Upload, error) {
	const op = "services.upload.List"

	items, err := s.db.Tables().Uploads.All(ctx, storage.Query{
		Eq:      storage.Filter{"pro_id": proID},
		OrderBy: []string{"-created_at", "-id"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Update меняет название и категорию, а при наличии файла заменяет его.
func (s *UploadService) Update(ctx context.Context, proID, id int64, meta Meta, file *models.File) (*models.Upload, error) {
	const op = "services.upload.Update"

	current, err := s.own(ctx, proID, id)
	if err != nil {
		return nil, err
	}

	values := storage.Values{"title": meta.Title, "category": meta.Category}
	if file != nil {
		if !filestore.Allowed(file.MIME) {
			return nil, filestore.ErrUnsupportedMIME
		}
		url, err := s.files.Save(ctx, file.Name, file.Data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		values["filepath"] = url
		values["mime"] = file.MIME
	}

	updated, err := s.db.Tables().Uploads.Update(ctx, storage.Filter{"id": id, "pro_id": proID}, values)
	if err != nil || len(updated) == 0 {
		if url, ok := values["filepath"].(string); ok {
			s.remove(ctx, url)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, ErrUploadNotFound
	}
	if file != nil {
		s.remove(ctx, current.FilePath)
	}
	return &updated[0], nil
}

// Delete удаляет загрузку и её файл.
func (s *UploadService) Delete(ctx context.Context, proID, id int64) error {
	const op = "services.upload.Delete"

	current, err := s.own(ctx, proID, id)
	if err != nil {
		return err
	}
	n, err := s.db.Tables().Uploads.Delete(ctx, storage.Filter{"id": id, "pro_id": proID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrUploadNotFound
	}
	s.remove(ctx, current.FilePath)
	return nil
}

func (s *UploadService) own(ctx context.Context, proID, id int64) (*models.Upload, error) {
	item, err := s.db.Tables().Uploads.One(ctx, storage.Where(storage.Filter{"id": id, "pro_id": proID}))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUploadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("services.upload.own: %w", err)
	}
	return item, nil
}

func (s *UploadService) remove(ctx context.Context, url string) {
	if err := s.files.Remove(ctx, url); err != nil {
		s.log.Warn("failed to remove stored file", slog.String("url", url), sl.Err(err))
	}
}
