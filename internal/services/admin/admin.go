// Package services содержит операции панели администратора.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/policy"
	"github.com/serpleno/serpleno/internal/storage"
)

var (
	// ErrUnknownRole: такой роли нет.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUserNotFound: пользователя нет.
	ErrUserNotFound = errors.New("user not found")
	// ErrSelfChange: администратор не может понизить или удалить сам себя.
	ErrSelfChange = errors.New("admins cannot change their own account")
)

// Dashboard: сводка на главной панели.
type Dashboard struct {
	Users    int `json:"users"`
	Contents int `json:"content"`
}

// Stats: подробная статистика платформы.
type Stats struct {
	Users        int            `json:"users"`
	UsersByRole  map[string]int `json:"users_by_role"`
	UsersByPlan  map[string]int `json:"users_by_plan"`
	Contents     int            `json:"contents"`
	FreeContents int            `json:"free_contents"`
	Appointments int            `json:"appointments"`
	Slots        map[string]int `json:"slots"`
}

// AdminService реализует панель администратора.
type AdminService struct {
	db  storage.Gateway
	log *slog.Logger
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(db storage.Gateway, log *slog.Logger) *AdminService {
	return &AdminService{db: db, log: log}
}

// Dashboard считает пользователей и материалы.
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "services.admin.Dashboard"

	tables := s.db.Tables()
	users, err := tables.Users.All(ctx, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	contents, err := tables.Contents.All(ctx, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Dashboard{Users: len(users), Contents: len(contents)}, nil
}

// Stats собирает статистику по пользователям, материалам, записям и слотам.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	const op = "services.admin.Stats"

	tables := s.db.Tables()
	users, err := tables.Users.All(ctx, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	contents, err := tables.Contents.All(ctx, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	appts, err := tables.Appointments.All(ctx, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slots, err := tables.Slots.All(ctx, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st := &Stats{
		Users:        len(users),
		UsersByRole:  map[string]int{},
		UsersByPlan:  map[string]int{},
		Contents:     len(contents),
		Appointments: len(appts),
		Slots:        map[string]int{models.SlotFree: 0, models.SlotReserved: 0},
	}
	for _, u := range users {
		st.UsersByRole[u.Role]++
		st.UsersByPlan[u.Plan]++
	}
	for _, c := range contents {
		if c.IsFree {
			st.FreeContents++
		}
	}
	for _, sl := range slots {
		st.Slots[sl.Status]++
	}
	return st, nil
}

// Users возвращает всех пользователей без хешей паролей.
func (s *AdminService) Users(ctx context.Context) ([]models.User, error) {
	const op = "services.admin.Users"

	users, err := s.db.Tables().Users.All(ctx, storage.Query{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// UpdateRole меняет роль пользователя. Выданные ранее токены продолжают
// нести старую роль до истечения срока.
func (s *AdminService) UpdateRole(ctx context.Context, actor models.Identity, id int64, role string) (*models.User, error) {
	const op = "services.admin.UpdateRole"

	if !policy.ValidRole(role) {
		return nil, ErrUnknownRole
	}
	if id == actor.ID && role != policy.RoleAdmin {
		return nil, ErrSelfChange
	}
	updated, err := s.db.Tables().Users.Update(ctx, storage.Filter{"id": id}, storage.Values{"role": role})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(updated) == 0 {
		return nil, ErrUserNotFound
	}
	s.log.Info("role updated", slog.Int64("user_id", id), slog.String("role", role), slog.Int64("by", actor.ID))
	user := updated[0]
	user.PasswordHash = ""
	return &user, nil
}

// DeleteUser удаляет пользователя и его данные. Слоты, занятые его записями,
// снова становятся свободными, авторство материалов снимается.
func (s *AdminService) DeleteUser(ctx context.Context, actor models.Identity, id int64) error {
	const op = "services.admin.DeleteUser"

	if id == actor.ID {
		return ErrSelfChange
	}
	err := s.db.WithTx(ctx, func(tx storage.Tables) error {
		if _, err := tx.Users.One(ctx, storage.Where(storage.Filter{"id": id})); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		booked, err := tx.Appointments.All(ctx, storage.Where(storage.Filter{"client_id": id}))
		if err != nil {
			return err
		}
		for _, a := range booked {
			if _, err := tx.Slots.Update(ctx, storage.Filter{"id": a.SlotID}, storage.Values{"status": models.SlotFree}); err != nil {
				return err
			}
		}
		if _, err := tx.Appointments.Delete(ctx, storage.Filter{"client_id": id}); err != nil {
			return err
		}
		if _, err := tx.Appointments.Delete(ctx, storage.Filter{"pro_id": id}); err != nil {
			return err
		}
		if _, err := tx.Slots.Delete(ctx, storage.Filter{"pro_id": id}); err != nil {
			return err
		}
		if _, err := tx.Uploads.Delete(ctx, storage.Filter{"pro_id": id}); err != nil {
			return err
		}
		if _, err := tx.Notifications.Delete(ctx, storage.Filter{"pro_id": id}); err != nil {
			return err
		}
		owned, err := tx.Contents.All(ctx, storage.Where(storage.Filter{"created_by": id}))
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			if _, err := tx.Contents.Update(ctx, storage.Filter{"created_by": id}, storage.Values{"created_by": nil}); err != nil {
				return err
			}
		}
		_, err = tx.Users.Delete(ctx, storage.Filter{"id": id})
		return err
	})
	if errors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.Int64("user_id", id), slog.Int64("by", actor.ID))
	return nil
}
