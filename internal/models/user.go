// Package models содержит доменные структуры платформы: пользователей,
// материалы, загрузки специалистов, слоты календаря, записи на приём
// и уведомления. Теги db совпадают с именами колонок в хранилище.
package models

import "time"

// User представляет учётную запись платформы.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Никогда не отдаётся наружу
	Role         string    `db:"role" json:"role"`       // client, professional или admin
	Plan         string    `db:"plan" json:"plan"`       // free, silver, premium или student
	Specialty    *string   `db:"specialty" json:"specialty,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Identity: снимок пользователя, который зашивается в сессионный токен.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Plan  string `json:"plan"`
}

// Identity возвращает снимок пользователя для выпуска токена.
func (u User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Plan:  u.Plan,
	}
}
