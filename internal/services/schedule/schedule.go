// Package services реализует клиентскую запись на приём: каталог специалистов,
// свободные слоты, бронирование слота и ближайшую встречу.
//
// Слот переходит из free в reserved не более одного раза. Бронирование
// выполняется в одной транзакции: поиск слота, условное обновление статуса
// (только если слот ещё free) и вставка записи. Победителя определяет число
// изменённых строк, проигравший откатывает всё.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/serpleno/serpleno/internal/events"
	"github.com/serpleno/serpleno/internal/lib/month"
	"github.com/serpleno/serpleno/internal/lib/sl"
	"github.com/serpleno/serpleno/internal/metrics"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
)

var (
	// ErrPlanNotEligible: план клиента не позволяет записываться.
	ErrPlanNotEligible = errors.New("plan does not allow booking")
	// ErrSlotUnavailable: слота нет или он уже занят.
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrNoMeeting: у клиента нет предстоящих встреч.
	ErrNoMeeting = errors.New("no upcoming meetings")
)

// BookRequest: выбранный клиентом слот.
type BookRequest struct {
	ProID int64
	Date  string
	Hour  string
}

// Recorder учитывает исходы бронирования.
type Recorder interface {
	Booking(outcome string)
}

// ScheduleService реализует запись на приём.
type ScheduleService struct {
	db      storage.Gateway
	events  events.Publisher
	metrics Recorder
	log     *slog.Logger
	now     func() time.Time
}

// NewScheduleService создает новый экземпляр ScheduleService.
func NewScheduleService(db storage.Gateway, pub events.Publisher, rec Recorder, log *slog.Logger) *ScheduleService {
	return &ScheduleService{
		db:      db,
		events:  pub,
		metrics: rec,
		log:     log,
		now:     time.Now,
	}
}

// Types возвращает специальности, по которым есть хотя бы один специалист.
func (s *ScheduleService) Types(ctx context.Context) ([]string, error) {
	const op = "services.schedule.Types"

	pros, err := s.db.Tables().Users.All(ctx, storage.Where(storage.Filter{"role": policy.RoleProfessional}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	types := make([]string, 0, len(pros))
	for _, p := range pros {
		if p.Specialty == nil || *p.Specialty == "" || slices.Contains(types, *p.Specialty) {
			continue
		}
		types = append(types, *p.Specialty)
	}
	slices.Sort(types)
	return types, nil
}

// Professionals возвращает специалистов указанной специальности. Пустая
// специальность означает всех.
func (s *ScheduleService) Professionals(ctx context.Context, specialty string) ([]models.Professional, error) {
	const op = "services.schedule.Professionals"

	f := storage.Filter{"role": policy.RoleProfessional}
	if specialty != "" {
		f["specialty"] = specialty
	}
	users, err := s.db.Tables().Users.All(ctx, storage.Query{Eq: f, OrderBy: []string{"name"}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pros := make([]models.Professional, 0, len(users))
	for _, u := range users {
		pros = append(pros, professional(u))
	}
	return pros, nil
}

// Slots возвращает свободные слоты специалиста на дату.
func (s *ScheduleService) Slots(ctx context.Context, proID int64, date string) ([]models.Slot, error) {
	const op = "services.schedule.Slots"

	slots, err := s.db.Tables().Slots.All(ctx, storage.Query{
		Eq:      storage.Filter{"pro_id": proID, "date": date, "status": models.SlotFree},
		OrderBy: []string{"hour"},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slots, nil
}

// Book резервирует слот за клиентом и создаёт запись на приём.
func (s *ScheduleService) Book(ctx context.Context, client models.Identity, req BookRequest) (*models.Appointment, error) {
	const op = "services.schedule.Book"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("client_id", client.ID),
		slog.Int64("pro_id", req.ProID),
		slog.String("date", req.Date),
		slog.String("hour", req.Hour),
	)

	if err := policy.Check(client.Role, client.Plan, policy.BookAppointment); err != nil {
		s.metrics.Booking(metrics.BookingDenied)
		log.Info("booking denied by plan", slog.String("plan", client.Plan))
		return nil, ErrPlanNotEligible
	}

	var appt *models.Appointment
	err := s.db.WithTx(ctx, func(tx storage.Tables) error {
		slot, err := tx.Slots.One(ctx, storage.Where(storage.Filter{
			"pro_id": req.ProID,
			"date":   req.Date,
			"hour":   req.Hour,
		}))
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSlotUnavailable
		}
		if err != nil {
			return err
		}
		if slot.Status != models.SlotFree {
			return ErrSlotUnavailable
		}

		reserved, err := tx.Slots.Update(ctx,
			storage.Filter{"id": slot.ID, "status": models.SlotFree},
			storage.Values{"status": models.SlotReserved},
		)
		if err != nil {
			return err
		}
		if len(reserved) == 0 {
			return ErrSlotUnavailable
		}

		appt, err = tx.Appointments.Insert(ctx, storage.Values{
			"client_id": client.ID,
			"pro_id":    slot.ProID,
			"slot_id":   slot.ID,
			"date":      slot.Date,
			"hour":      slot.Hour,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrSlotUnavailable
		}
		return err
	})
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		s.metrics.Booking(metrics.BookingConflict)
		log.Info("slot not available")
		return nil, ErrSlotUnavailable
	case err != nil:
		s.metrics.Booking(metrics.BookingError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Booking(metrics.BookingBooked)
	log.Info("slot booked", slog.Int64("appointment_id", appt.ID))

	event := events.AppointmentBooked{
		AppointmentID: appt.ID,
		SlotID:        appt.SlotID,
		ClientID:      client.ID,
		ClientName:    client.Name,
		ProID:         appt.ProID,
		Date:          appt.Date,
		Hour:          appt.Hour,
		BookedAt:      appt.CreatedAt,
	}
	if err := s.events.AppointmentBooked(ctx, event); err != nil {
		log.Error("failed to publish booking event", sl.Err(err))
	}
	return appt, nil
}

// Meeting возвращает ближайшую ещё не начавшуюся встречу клиента вместе с
// данными специалиста. Сегодняшние записи на прошедший час не учитываются.
func (s *ScheduleService) Meeting(ctx context.Context, client models.Identity) (*models.Meeting, error) {
	const op = "services.schedule.Meeting"

	tables := s.db.Tables()
	appt, err := nextAppointment(ctx, tables.Appointments, client.ID, s.now())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoMeeting
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	meeting := &models.Meeting{Appointment: *appt}
	pro, err := tables.Users.One(ctx, storage.Where(storage.Filter{"id": appt.ProID}))
	switch {
	case err == nil:
		meeting.Professional = professional(*pro)
	case errors.Is(err, storage.ErrNotFound):
		meeting.Professional = models.Professional{ID: appt.ProID}
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return meeting, nil
}

func nextAppointment(ctx context.Context, appts storage.Collection[models.Appointment], clientID int64, now time.Time) (*models.Appointment, error) {
	today := month.Today(now)
	appt, err := appts.One(ctx, storage.Query{
		Eq:      storage.Filter{"client_id": clientID, "date": today},
		Ranges:  []storage.Range{{Column: "hour", From: now.Format(month.HourLayout)}},
		OrderBy: []string{"hour"},
	})
	if !errors.Is(err, storage.ErrNotFound) {
		return appt, err
	}
	return appts.One(ctx, storage.Query{
		Eq:      storage.Filter{"client_id": clientID},
		Ranges:  []storage.Range{{Column: "date", From: month.Today(now.AddDate(0, 0, 1))}},
		OrderBy: []string{"date", "hour"},
	})
}

func professional(u models.User) models.Professional {
	p := models.Professional{ID: u.ID, Name: u.Name}
	if u.Specialty != nil {
		p.Specialty = *u.Specialty
	}
	return p
}
