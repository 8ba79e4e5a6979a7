package models

import "time"

// Notification: уведомление в кабинете специалиста.
type Notification struct {
	ID            int64     `db:"id" json:"id"`
	ProID         int64     `db:"pro_id" json:"pro_id"`
	AppointmentID *int64    `db:"appointment_id" json:"appointment_id,omitempty"`
	Message       string    `db:"message" json:"message"`
	IsRead        bool      `db:"is_read" json:"is_read"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Notice: информационное сообщение клиенту, зависящее от плана.
type Notice struct {
	Msg string `json:"msg"`
}
