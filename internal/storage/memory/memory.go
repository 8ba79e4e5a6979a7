// Package memory реализует шлюз хранения в памяти процесса. Используется в
// тестах и при storage.driver=memory. Семантика фильтров, сортировки и
// уникальности совпадает с PostgreSQL-реализацией.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/storage"
)

// Storage хранит все таблицы под одним мьютексом.
type Storage struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	data   map[string]*table
	tables storage.Tables
}

type table struct {
	seq     int64
	rows    []row
	uniques []string
}

type row map[string]any

// New создаёт пустое хранилище со всеми таблицами платформы.
func New() *Storage {
	s := &Storage{
		data: map[string]*table{
			storage.TableUsers:         {uniques: []string{"email"}},
			storage.TableContents:      {},
			storage.TableUploads:       {},
			storage.TableSlots:         {},
			storage.TableAppointments:  {uniques: []string{"slot_id"}},
			storage.TableNotifications: {uniques: []string{"appointment_id"}},
		},
	}
	s.tables = s.bind(nil)
	return s
}

// Tables возвращает коллекции хранилища.
func (s *Storage) Tables() storage.Tables {
	return s.tables
}

// WithTx сериализует транзакции. При ошибке fn отменяются только изменения,
// сделанные через переданные Tables; записи вне транзакции и счётчики id
// не откатываются, как у последовательностей PostgreSQL.
func (s *Storage) WithTx(ctx context.Context, fn func(tx storage.Tables) error) error {
	const op = "storage.memory.WithTx"

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log := &undoLog{}
	if err := fn(s.bind(log)); err != nil {
		s.rollback(log)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close ничего не делает.
func (s *Storage) Close() {}

func (s *Storage) bind(log *undoLog) storage.Tables {
	return storage.Tables{
		Users:         &Collection[models.User]{s: s, name: storage.TableUsers, log: log},
		Contents:      &Collection[models.Content]{s: s, name: storage.TableContents, log: log},
		Uploads:       &Collection[models.Upload]{s: s, name: storage.TableUploads, log: log},
		Slots:         &Collection[models.Slot]{s: s, name: storage.TableSlots, log: log},
		Appointments:  &Collection[models.Appointment]{s: s, name: storage.TableAppointments, log: log},
		Notifications: &Collection[models.Notification]{s: s, name: storage.TableNotifications, log: log},
	}
}

// undoLog копит обратные операции транзакции. Вызывается под s.mu.
type undoLog struct {
	steps []func()
}

func (l *undoLog) add(step func()) {
	if l != nil {
		l.steps = append(l.steps, step)
	}
}

func (s *Storage) rollback(log *undoLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(log.steps) - 1; i >= 0; i-- {
		log.steps[i]()
	}
}

// indexOf ищет строку по id.
func (t *table) indexOf(id any) int {
	for i, r := range t.rows {
		if equal(r["id"], id) {
			return i
		}
	}
	return -1
}

func (t *table) removeID(id any) {
	if i := t.indexOf(id); i >= 0 {
		t.rows = append(t.rows[:i:i], t.rows[i+1:]...)
	}
}

func (t *table) restoreRow(prev row) {
	if i := t.indexOf(prev["id"]); i >= 0 {
		t.rows[i] = prev
		return
	}
	t.rows = append(t.rows, prev)
}

func (r row) clone() row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
