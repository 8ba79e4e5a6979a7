// Package services реализует календарь специалиста: просмотр месяца и
// управление собственными слотами. Занятый слот нельзя перенести или удалить.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/serpleno/serpleno/internal/lib/month"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/storage"
)

var (
	// ErrSlotNotFound: слота нет или он принадлежит другому специалисту.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrSlotLocked: слот уже забронирован.
	ErrSlotLocked = errors.New("slot is reserved")
	// ErrSlotExists: у специалиста уже есть слот на это время.
	ErrSlotExists = errors.New("slot already exists")
	// ErrInvalidMonth: месяц или год вне допустимого диапазона.
	ErrInvalidMonth = errors.New("invalid month")
)

// MonthView: слоты и записи специалиста за месяц.
type MonthView struct {
	From         string               `json:"from"`
	To           string               `json:"to"`
	Slots        []models.Slot        `json:"slots"`
	Reservations []models.Appointment `json:"reservations"`
}

// CalendarService управляет слотами специалиста.
type CalendarService struct {
	db  storage.Gateway
	log *slog.Logger
}

// NewCalendarService создает новый экземпляр CalendarService.
func NewCalendarService(db storage.Gateway, log *slog.Logger) *CalendarService {
	return &CalendarService{db: db, log: log}
}

// Month возвращает слоты и записи специалиста с первого по последний день месяца.
func (s *CalendarService) Month(ctx context.Context, proID int64, year, mon int) (*MonthView, error) {
	const op = "services.calendar.Month"

	from, to, err := month.Bounds(year, mon)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMonth, err)
	}
	q := storage.Query{
		Eq:      storage.Filter{"pro_id": proID},
		Ranges:  []storage.Range{{Column: "date", From: from, To: to}},
		OrderBy: []string{"date", "hour"},
	}

	tables := s.db.Tables()
	slots, err := tables.Slots.All(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reservations, err := tables.Appointments.All(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &MonthView{From: from, To: to, Slots: slots, Reservations: reservations}, nil
}

// AddSlot открывает свободный слот.
func (s *CalendarService) AddSlot(ctx context.Context, proID int64, date, hour string) (*models.Slot, error) {
	const op = "services.calendar.AddSlot"

	slots := s.db.Tables().Slots
	if err := s.ensureVacant(ctx, slots, proID, date, hour, 0); err != nil {
		return nil, err
	}
	slot, err := slots.Insert(ctx, storage.Values{
		"pro_id": proID,
		"date":   date,
		"hour":   hour,
		"status": models.SlotFree,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, ErrSlotExists
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("slot added", slog.Int64("pro_id", proID), slog.Int64("slot_id", slot.ID))
	return slot, nil
}

// UpdateSlot переносит свободный слот на другую дату и час.
func (s *CalendarService) UpdateSlot(ctx context.Context, proID, id int64, date, hour string) (*models.Slot, error) {
	const op = "services.calendar.UpdateSlot"

	slots := s.db.Tables().Slots
	if _, err := s.ownFreeSlot(ctx, slots, proID, id); err != nil {
		return nil, err
	}
	if err := s.ensureVacant(ctx, slots, proID, date, hour, id); err != nil {
		return nil, err
	}

	updated, err := slots.Update(ctx,
		storage.Filter{"id": id, "pro_id": proID, "status": models.SlotFree},
		storage.Values{"date": date, "hour": hour},
	)
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, ErrSlotExists
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(updated) == 0 {
		return nil, ErrSlotLocked
	}
	return &updated[0], nil
}

// DeleteSlot удаляет свободный слот.
func (s *CalendarService) DeleteSlot(ctx context.Context, proID, id int64) error {
	const op = "services.calendar.DeleteSlot"

	slots := s.db.Tables().Slots
	if _, err := s.ownFreeSlot(ctx, slots, proID, id); err != nil {
		return err
	}
	n, err := slots.Delete(ctx, storage.Filter{"id": id, "pro_id": proID, "status": models.SlotFree})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrSlotLocked
	}
	s.log.Info("slot deleted", slog.Int64("pro_id", proID), slog.Int64("slot_id", id))
	return nil
}

func (s *CalendarService) ownFreeSlot(ctx context.Context, slots storage.Collection[models.Slot], proID, id int64) (*models.Slot, error) {
	slot, err := slots.One(ctx, storage.Where(storage.Filter{"id": id, "pro_id": proID}))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	if slot.Status != models.SlotFree {
		return nil, ErrSlotLocked
	}
	return slot, nil
}

// ensureVacant проверяет, что время не занято другим слотом специалиста (кроме self).
func (s *CalendarService) ensureVacant(ctx context.Context, slots storage.Collection[models.Slot], proID int64, date, hour string, self int64) error {
	existing, err := slots.One(ctx, storage.Where(storage.Filter{"pro_id": proID, "date": date, "hour": hour}))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == self:
		return nil
	}
	return ErrSlotExists
}
