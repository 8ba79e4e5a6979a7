package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/serpleno/serpleno/internal/events"
	"github.com/serpleno/serpleno/internal/metrics"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
	"github.com/serpleno/serpleno/internal/storage/memory"
)

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) AppointmentBooked(ctx context.Context, e events.AppointmentBooked) error {
	return m.Called(ctx, e).Error(0)
}

type RecorderMock struct{ mock.Mock }

func (m *RecorderMock) Booking(outcome string) {
	m.Called(outcome)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type fixture struct {
	db   *memory.Storage
	pub  *PublisherMock
	rec  *RecorderMock
	svc  *ScheduleService
	pro  *models.User
	slot *models.Slot
}

func specialty(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	pro, err := db.Tables().Users.Insert(ctx, storage.Values{
		"name": "Dra. Soto", "email": "soto@example.com", "password_hash": "x",
		"role": policy.RoleProfessional, "plan": policy.PlanFree, "specialty": specialty("nutrition"),
	})
	require.NoError(t, err)
	slot, err := db.Tables().Slots.Insert(ctx, storage.Values{
		"pro_id": pro.ID, "date": "2024-06-01", "hour": "10:00", "status": models.SlotFree,
	})
	require.NoError(t, err)

	pub := new(PublisherMock)
	rec := new(RecorderMock)
	return &fixture{
		db:   db,
		pub:  pub,
		rec:  rec,
		svc:  NewScheduleService(db, pub, rec, newNoopLogger()),
		pro:  pro,
		slot: slot,
	}
}

func client(id int64, plan string) models.Identity {
	return models.Identity{ID: id, Name: "Cliente", Email: "c@example.com", Role: policy.RoleClient, Plan: plan}
}

func (f *fixture) appointments(t *testing.T) []models.Appointment {
	t.Helper()
	appts, err := f.db.Tables().Appointments.All(context.Background(), storage.Query{})
	require.NoError(t, err)
	return appts
}

func (f *fixture) slotStatus(t *testing.T) string {
	t.Helper()
	slot, err := f.db.Tables().Slots.One(context.Background(), storage.Where(storage.Filter{"id": f.slot.ID}))
	require.NoError(t, err)
	return slot.Status
}

func TestBook_ExampleScenario(t *testing.T) {
	f := newFixture(t)
	f.rec.On("Booking", metrics.BookingBooked).Once()
	f.pub.On("AppointmentBooked", mock.Anything, mock.MatchedBy(func(e events.AppointmentBooked) bool {
		return e.ClientID == 42 && e.ProID == f.pro.ID && e.SlotID == f.slot.ID &&
			e.Date == "2024-06-01" && e.Hour == "10:00"
	})).Return(nil).Once()

	appt, err := f.svc.Book(context.Background(), client(42, policy.PlanPremium), BookRequest{
		ProID: f.pro.ID, Date: "2024-06-01", Hour: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), appt.ClientID)
	assert.Equal(t, f.pro.ID, appt.ProID)
	assert.Equal(t, f.slot.ID, appt.SlotID)

	assert.Equal(t, models.SlotReserved, f.slotStatus(t))
	assert.Len(t, f.appointments(t), 1)
	f.pub.AssertExpectations(t)
	f.rec.AssertExpectations(t)
}

func TestBook_SecondAttemptConflicts(t *testing.T) {
	f := newFixture(t)
	f.rec.On("Booking", metrics.BookingBooked).Once()
	f.rec.On("Booking", metrics.BookingConflict).Once()
	f.pub.On("AppointmentBooked", mock.Anything, mock.Anything).Return(nil).Once()
	req := BookRequest{ProID: f.pro.ID, Date: "2024-06-01", Hour: "10:00"}

	_, err := f.svc.Book(context.Background(), client(1, policy.PlanSilver), req)
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), client(2, policy.PlanStudent), req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	assert.Len(t, f.appointments(t), 1)
	assert.Equal(t, models.SlotReserved, f.slotStatus(t))
	f.pub.AssertExpectations(t)
	f.rec.AssertExpectations(t)
}

func TestBook_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		plan    string
		req     func(f *fixture) BookRequest
		outcome string
		wantErr error
	}{
		{
			name: "free plan",
			plan: policy.PlanFree,
			req: func(f *fixture) BookRequest {
				return BookRequest{ProID: f.pro.ID, Date: "2024-06-01", Hour: "10:00"}
			},
			outcome: metrics.BookingDenied,
			wantErr: ErrPlanNotEligible,
		},
		{
			name: "missing slot",
			plan: policy.PlanPremium,
			req: func(f *fixture) BookRequest {
				return BookRequest{ProID: f.pro.ID, Date: "2024-06-01", Hour: "11:00"}
			},
			outcome: metrics.BookingConflict,
			wantErr: ErrSlotUnavailable,
		},
		{
			name: "other professional",
			plan: policy.PlanPremium,
			req: func(f *fixture) BookRequest {
				return BookRequest{ProID: f.pro.ID + 100, Date: "2024-06-01", Hour: "10:00"}
			},
			outcome: metrics.BookingConflict,
			wantErr: ErrSlotUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.rec.On("Booking", tt.outcome).Once()

			_, err := f.svc.Book(context.Background(), client(5, tt.plan), tt.req(f))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.appointments(t))
			assert.Equal(t, models.SlotFree, f.slotStatus(t))
			f.pub.AssertNotCalled(t, "AppointmentBooked", mock.Anything, mock.Anything)
			f.rec.AssertExpectations(t)
		})
	}
}

func TestBook_ConcurrentAttemptsReserveOnce(t *testing.T) {
	const attempts = 16
	f := newFixture(t)
	f.rec.On("Booking", mock.Anything)
	f.pub.On("AppointmentBooked", mock.Anything, mock.Anything).Return(nil)
	req := BookRequest{ProID: f.pro.ID, Date: "2024-06-01", Hour: "10:00"}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := range attempts {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			<-start
			_, err := f.svc.Book(context.Background(), client(id, policy.PlanPremium), req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, f.appointments(t), 1)
	f.rec.AssertNumberOfCalls(t, "Booking", attempts)
	f.pub.AssertNumberOfCalls(t, "AppointmentBooked", 1)
}

func TestBook_PublishFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	f.rec.On("Booking", metrics.BookingBooked).Once()
	f.pub.On("AppointmentBooked", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	appt, err := f.svc.Book(context.Background(), client(3, policy.PlanPremium), BookRequest{
		ProID: f.pro.ID, Date: "2024-06-01", Hour: "10:00",
	})
	require.NoError(t, err)
	assert.NotZero(t, appt.ID)
	assert.Equal(t, models.SlotReserved, f.slotStatus(t))
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := f.db.Tables().Users
	_, err := users.Insert(ctx, storage.Values{
		"name": "Dr. Araya", "email": "araya@example.com", "password_hash": "x",
		"role": policy.RoleProfessional, "plan": policy.PlanFree, "specialty": specialty("psychology"),
	})
	require.NoError(t, err)
	_, err = users.Insert(ctx, storage.Values{
		"name": "Ana", "email": "ana@example.com", "password_hash": "x",
		"role": policy.RoleClient, "plan": policy.PlanFree, "specialty": specialty("ignored"),
	})
	require.NoError(t, err)

	types, err := f.svc.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"nutrition", "psychology"}, types)

	pros, err := f.svc.Professionals(ctx, "nutrition")
	require.NoError(t, err)
	assert.Equal(t, []models.Professional{{ID: f.pro.ID, Name: "Dra. Soto", Specialty: "nutrition"}}, pros)

	all, err := f.svc.Professionals(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSlots_OnlyFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, v := range []storage.Values{
		{"pro_id": f.pro.ID, "date": "2024-06-01", "hour": "09:00", "status": models.SlotFree},
		{"pro_id": f.pro.ID, "date": "2024-06-01", "hour": "12:00", "status": models.SlotReserved},
		{"pro_id": f.pro.ID, "date": "2024-06-02", "hour": "09:00", "status": models.SlotFree},
	} {
		_, err := f.db.Tables().Slots.Insert(ctx, v)
		require.NoError(t, err)
	}

	slots, err := f.svc.Slots(ctx, f.pro.ID, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Hour)
	assert.Equal(t, "10:00", slots[1].Hour)
}

func TestMeeting(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time { return time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	me := client(9, policy.PlanPremium)

	_, err := f.svc.Meeting(ctx, me)
	assert.ErrorIs(t, err, ErrNoMeeting)

	for _, v := range []storage.Values{
		{"client_id": me.ID, "pro_id": f.pro.ID, "slot_id": int64(100), "date": "2024-05-01", "hour": "10:00"},
		{"client_id": me.ID, "pro_id": f.pro.ID, "slot_id": int64(101), "date": "2024-07-01", "hour": "10:00"},
		{"client_id": me.ID, "pro_id": f.pro.ID, "slot_id": int64(102), "date": "2024-06-01", "hour": "15:00"},
		{"client_id": int64(77), "pro_id": f.pro.ID, "slot_id": int64(103), "date": "2024-05-25", "hour": "10:00"},
	} {
		_, err := f.db.Tables().Appointments.Insert(ctx, v)
		require.NoError(t, err)
	}

	meeting, err := f.svc.Meeting(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", meeting.Date)
	assert.Equal(t, "15:00", meeting.Hour)
	assert.Equal(t, "Dra. Soto", meeting.Professional.Name)
	assert.Equal(t, "nutrition", meeting.Professional.Specialty)
}

func TestMeeting_SkipsPastHoursToday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := client(9, policy.PlanPremium)

	for _, v := range []storage.Values{
		{"client_id": me.ID, "pro_id": f.pro.ID, "slot_id": int64(200), "date": "2024-05-20", "hour": "09:00"},
		{"client_id": me.ID, "pro_id": f.pro.ID, "slot_id": int64(201), "date": "2024-05-20", "hour": "16:00"},
		{"client_id": me.ID, "pro_id": f.pro.ID, "slot_id": int64(202), "date": "2024-05-21", "hour": "08:00"},
	} {
		_, err := f.db.Tables().Appointments.Insert(ctx, v)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		now      time.Time
		wantDate string
		wantHour string
	}{
		{"before first", time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC), "2024-05-20", "09:00"},
		{"first already started", time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC), "2024-05-20", "16:00"},
		{"starts right now", time.Date(2024, 5, 20, 16, 0, 0, 0, time.UTC), "2024-05-20", "16:00"},
		{"today is over", time.Date(2024, 5, 20, 18, 0, 0, 0, time.UTC), "2024-05-21", "08:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.svc.now = func() time.Time { return tt.now }
			meeting, err := f.svc.Meeting(ctx, me)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, meeting.Date)
			assert.Equal(t, tt.wantHour, meeting.Hour)
		})
	}

	f.svc.now = func() time.Time { return time.Date(2024, 5, 21, 9, 0, 0, 0, time.UTC) }
	_, err := f.svc.Meeting(ctx, me)
	assert.ErrorIs(t, err, ErrNoMeeting)
}
