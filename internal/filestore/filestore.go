// Package filestore сохраняет загруженные файлы на локальный диск
// под случайными именами и выдаёт их публичные URL.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrForeignURL: URL не принадлежит этому хранилищу.
var ErrForeignURL = errors.New("url does not belong to the file store")

// Local хранит файлы в каталоге dir, раздаваемом по префиксу baseURL.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal создаёт хранилище и каталог при необходимости.
func NewLocal(dir, baseURL string) (*Local, error) {
	const op = "filestore.NewLocal"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir возвращает каталог файлов.
func (l *Local) Dir() string {
	return l.dir
}

// Save записывает файл и возвращает его публичный URL. Имя генерируется,
// от исходного остаётся только расширение.
func (l *Local) Save(ctx context.Context, name string, data []byte) (string, error) {
	const op = "filestore.Save"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	stored := uuid.NewString() + safeExt(name)
	if err := os.WriteFile(filepath.Join(l.dir, stored), data, 0o644); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return l.baseURL + "/" + stored, nil
}

// Remove удаляет файл по его публичному URL. Отсутствующий файл ошибкой не считается.
func (l *Local) Remove(ctx context.Context, url string) error {
	const op = "filestore.Remove"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	prefix := l.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return fmt.Errorf("%s: %w", op, ErrForeignURL)
	}
	name := path.Base(strings.TrimPrefix(url, prefix))
	if name == "." || name == "/" || name == ".." {
		return fmt.Errorf("%s: %w", op, ErrForeignURL)
	}

	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
