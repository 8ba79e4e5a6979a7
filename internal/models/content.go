package models

import "time"

// Content: учебный материал. Материалы с IsFree доступны на бесплатном плане.
type Content struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Day         int       `db:"day" json:"day"`
	FileURL     *string   `db:"file_url" json:"file_url,omitempty"`
	MIME        *string   `db:"mime" json:"mime,omitempty"`
	IsFree      bool      `db:"is_free" json:"is_free"`
	CreatedBy   *int64    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Upload: файл, загруженный специалистом в свой раздел.
type Upload struct {
	ID        int64     `db:"id" json:"id"`
	ProID     int64     `db:"pro_id" json:"pro_id"`
	Title     string    `db:"title" json:"title"`
	Category  string    `db:"category" json:"category"`
	FilePath  string    `db:"filepath" json:"filepath"`
	MIME      string    `db:"mime" json:"mime"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// File: файл из multipart-запроса до сохранения в файловое хранилище.
type File struct {
	Name string
	MIME string
	Data []byte
}
