// Package storage описывает шлюз хранения: типизированные коллекции с
// единой семантикой фильтров, обновлений и транзакций. Конкретные
// реализации лежат в storage/postgresql и storage/memory.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/serpleno/serpleno/internal/models"
)

var (
	// ErrNotFound возвращается One, когда под запрос не попала ни одна запись.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate возвращается при нарушении уникальности (например, email).
	ErrDuplicate = errors.New("record already exists")
	// ErrForeignKey возвращается, когда запись ссылается на несуществующую строку.
	ErrForeignKey = errors.New("referenced record does not exist")
)

// Filter: набор условий равенства, объединённых через AND.
type Filter map[string]any

// Values: значения колонок для вставки или обновления.
type Values map[string]any

// Range задаёт включительные границы по одной колонке. Пустая граница не применяется.
type Range struct {
	Column string
	From   any
	To     any
}

// Query описывает выборку из коллекции.
//
// OrderBy принимает имена колонок, префикс "-" означает сортировку по убыванию.
// Без OrderBy записи упорядочены по id.
type Query struct {
	Eq      Filter
	Ranges  []Range
	OrderBy []string
	Limit   int
}

// Where: сокращение для запроса только с условиями равенства.
func Where(f Filter) Query {
	return Query{Eq: f}
}

// ParseOrder разбирает элемент OrderBy на колонку и направление.
func ParseOrder(term string) (column string, desc bool) {
	if strings.HasPrefix(term, "-") {
		return term[1:], true
	}
	return term, false
}

// Collection: CRUD над одной таблицей с записями типа T.
type Collection[T any] interface {
	// One возвращает первую подходящую запись или ErrNotFound.
	One(ctx context.Context, q Query) (*T, error)
	All(ctx context.Context, q Query) ([]T, error)
	// Insert возвращает созданную запись с присвоенным id.
	Insert(ctx context.Context, v Values) (*T, error)
	// Update возвращает все изменённые записи. Пустой результат означает,
	// что условию не соответствовала ни одна запись.
	Update(ctx context.Context, f Filter, v Values) ([]T, error)
	Delete(ctx context.Context, f Filter) (int64, error)
}

// Tables объединяет коллекции платформы.
type Tables struct {
	Users         Collection[models.User]
	Contents      Collection[models.Content]
	Uploads       Collection[models.Upload]
	Slots         Collection[models.Slot]
	Appointments  Collection[models.Appointment]
	Notifications Collection[models.Notification]
}

// Gateway выдаёт коллекции и выполняет функцию атомарно.
//
// Внутри WithTx нужно работать только с переданными Tables. Ошибка из fn
// откатывает все изменения.
type Gateway interface {
	Tables() Tables
	WithTx(ctx context.Context, fn func(tx Tables) error) error
	Close()
}

// Имена таблиц.
const (
	TableUsers         = "users"
	TableContents      = "contents"
	TableUploads       = "pro_uploads"
	TableSlots         = "pro_calendar_slots"
	TableAppointments  = "appointments"
	TableNotifications = "pro_notifications"
)
