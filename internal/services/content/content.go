// Package services содержит бизнес-логику каталога материалов и его кеширование.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/serpleno/serpleno/internal/filestore"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
)

// Ключи кеша списков материалов.
const (
	KeyFree = "contents:free"
	KeyFull = "contents:full"
)

// ErrContentNotFound: материала нет или он недоступен пользователю.
var ErrContentNotFound = errors.New("content not found")

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кеша по ключам.
	Invalidate(ctx context.Context, keys ...string) error
}

// FileStore сохраняет и удаляет файлы материалов.
type FileStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

// Input: редактируемые поля материала.
type Input struct {
	Title       string
	Description string
	Category    string
	Day         int
	IsFree      bool
}

// ContentService реализует каталог материалов, включая кеширование.
type ContentService struct {
	db       storage.Gateway
	cache    Cache
	files    FileStore
	cacheTTL time.Duration
	log      *slog.Logger
}

// NewContentService создает новый экземпляр ContentService.
func NewContentService(db storage.Gateway, cache Cache, files FileStore, cacheTTL time.Duration, log *slog.Logger) *ContentService {
	return &ContentService{
		db:       db,
		cache:    cache,
		files:    files,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// List возвращает материалы, доступные плану, по категориям и дням.
// Бесплатный план видит только материалы с is_free.
func (s *ContentService) List(ctx context.Context, plan string) ([]models.Content, error) {
	const op = "services.content.List"

	full := policy.FullContent(plan)
	key := KeyFree
	if full {
		key = KeyFull
	}

	var cached []models.Content
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	q := storage.Query{OrderBy: []string{"category", "day", "id"}}
	if !full {
		q.Eq = storage.Filter{"is_free": true}
	}
	items, err := s.db.Tables().Contents.All(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, key, items, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache contents", slog.String("key", key), sl.Err(err))
	}
	return items, nil
}

// ListByCreator возвращает материалы, созданные специалистом.
func (s *ContentService) ListByCreator(ctx context.Context, proID int64) ([]models.Content, error) {
	const op = "services.content.ListByCreator"

	items, err := s.db.Tables().Contents.All(ctx, storage.Query{
		Eq:      storage.Filter{"created_by": proID},
		OrderBy: []string{"category", "day", "id"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// ListManaged возвращает материалы, которыми может управлять пользователь:
// администратор видит все, специалист только свои.
func (s *ContentService) ListManaged(ctx context.Context, actor models.Identity) ([]models.Content, error) {
	const op = "services.content.ListManaged"

	if actor.Role != policy.RoleAdmin {
		return s.ListByCreator(ctx, actor.ID)
	}
	items, err := s.db.Tables().Contents.All(ctx, storage.Query{OrderBy: []string{"-created_at", "-id"}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Create добавляет материал с необязательным файлом.
func (s *ContentService) Create(ctx context.Context, actor models.Identity, in Input, file *models.File) (*models.Content, error) {
	const op = "services.content.Create"

	values := inputValues(in)
	values["created_by"] = actor.ID

	if file != nil {
		url, err := s.saveFile(ctx, file)
		if err != nil {
			return nil, err
		}
		values["file_url"] = url
		values["mime"] = file.MIME
	}

	item, err := s.db.Tables().Contents.Insert(ctx, values)
	if err != nil {
		if url, ok := values["file_url"].(string); ok {
			s.removeFile(ctx, url)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx)
	s.log.Info("content created", slog.Int64("content_id", item.ID), slog.Int64("created_by", actor.ID))
	return item, nil
}

// Update заменяет поля материала. Новый файл заменяет старый.
func (s *ContentService) Update(ctx context.Context, actor models.Identity, id int64, in Input, file *models.File) (*models.Content, error) {
	const op = "services.content.Update"

	current, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	values := inputValues(in)
	if file != nil {
		url, err := s.saveFile(ctx, file)
		if err != nil {
			return nil, err
		}
		values["file_url"] = url
		values["mime"] = file.MIME
	}

	updated, err := s.db.Tables().Contents.Update(ctx, storage.Filter{"id": current.ID}, values)
	if err != nil || len(updated) == 0 {
		// новый файл никому не принадлежит
		if url, ok := values["file_url"].(string); ok {
			s.removeFile(ctx, url)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, ErrContentNotFound
	}
	if file != nil && current.FileURL != nil {
		s.removeFile(ctx, *current.FileURL)
	}

	s.invalidate(ctx)
	return &updated[0], nil
}

// Delete удаляет материал вместе с его файлом.
func (s *ContentService) Delete(ctx context.Context, actor models.Identity, id int64) error {
	const op = "services.content.Delete"

	current, err := s.managed(ctx, actor, id)
	if err != nil {
		return err
	}
	n, err := s.db.Tables().Contents.Delete(ctx, storage.Filter{"id": current.ID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrContentNotFound
	}
	if current.FileURL != nil {
		s.removeFile(ctx, *current.FileURL)
	}

	s.invalidate(ctx)
	s.log.Info("content deleted", slog.Int64("content_id", id))
	return nil
}

func (s *ContentService) managed(ctx context.Context, actor models.Identity, id int64) (*models.Content, error) {
	f := storage.Filter{"id": id}
	if actor.Role != policy.RoleAdmin {
		f["created_by"] = actor.ID
	}
	item, err := s.db.Tables().Contents.One(ctx, storage.Where(f))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("services.content.managed: %w", err)
	}
	return item, nil
}

func (s *ContentService) saveFile(ctx context.Context, file *models.File) (string, error) {
	if !filestore.Allowed(file.MIME) {
		return "", filestore.ErrUnsupportedMIME
	}
	url, err := s.files.Save(ctx, file.Name, file.Data)
	if err != nil {
		return "", fmt.Errorf("services.content.saveFile: %w", err)
	}
	return url, nil
}

func (s *ContentService) removeFile(ctx context.Context, url string) {
	if err := s.files.Remove(ctx, url); err != nil {
		s.log.Warn("failed to remove content file", slog.String("url", url), sl.Err(err))
	}
}

func (s *ContentService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, KeyFree, KeyFull); err != nil {
		s.log.Warn("failed to invalidate content cache", sl.Err(err))
	}
}

func inputValues(in Input) storage.Values {
	return storage.Values{
		"title":       in.Title,
		"description": in.Description,
		"category":    in.Category,
		"day":         in.Day,
		"is_free":     in.IsFree,
	}
}
