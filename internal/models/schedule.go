package models

import "time"

// Состояния слота календаря.
const (
	SlotFree     = "free"
	SlotReserved = "reserved"
)

// Slot: время приёма, открытое специалистом. Дата хранится как YYYY-MM-DD,
// час как HH:MM.
type Slot struct {
	ID        int64     `db:"id" json:"id"`
	ProID     int64     `db:"pro_id" json:"pro_id"`
	Date      string    `db:"date" json:"date"`
	Hour      string    `db:"hour" json:"hour"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Appointment создаётся только при успешном бронировании слота.
type Appointment struct {
	ID        int64     `db:"id" json:"id"`
	ClientID  int64     `db:"client_id" json:"client_id"`
	ProID     int64     `db:"pro_id" json:"pro_id"`
	SlotID    int64     `db:"slot_id" json:"slot_id"`
	Date      string    `db:"date" json:"date"`
	Hour      string    `db:"hour" json:"hour"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Professional: публичная карточка специалиста для клиентской записи.
type Professional struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Meeting: ближайшая запись клиента вместе с данными специалиста.
type Meeting struct {
	Appointment
	Professional Professional `json:"professional"`
}
