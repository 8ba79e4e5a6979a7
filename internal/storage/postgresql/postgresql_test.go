package postgresql

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/serpleno/serpleno/internal/migrations"
	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/storage"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	db := s.DB()
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(db, filepath.Join(root, "migrations")))

	return s
}

func createUser(t *testing.T, tables storage.Tables, email, role string) *models.User {
	u, err := tables.Users.Insert(context.Background(), storage.Values{
		"name":          "Test " + role,
		"email":         email,
		"password_hash": "hash",
		"role":          role,
		"plan":          "premium",
	})
	require.NoError(t, err)
	return u
}

func TestStorage_CRUD(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()
	tables := s.Tables()

	pro := createUser(t, tables, "pro@example.com", "professional")
	assert.NotZero(t, pro.ID)
	assert.False(t, pro.CreatedAt.IsZero())

	_, err := tables.Users.Insert(ctx, storage.Values{
		"name": "Dup", "email": "PRO@example.com", "password_hash": "x",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	for _, date := range []string{"2024-05-31", "2024-06-01", "2024-06-15", "2024-07-01"} {
		_, err := tables.Slots.Insert(ctx, storage.Values{
			"pro_id": pro.ID, "date": date, "hour": "10:00", "status": models.SlotFree,
		})
		require.NoError(t, err)
	}

	june, err := tables.Slots.All(ctx, storage.Query{
		Eq:     storage.Filter{"pro_id": pro.ID},
		Ranges: []storage.Range{{Column: "date", From: "2024-06-01", To: "2024-06-30"}},
	})
	require.NoError(t, err)
	require.Len(t, june, 2)
	assert.Equal(t, "2024-06-01", june[0].Date)

	updated, err := tables.Slots.Update(ctx,
		storage.Filter{"id": june[0].ID, "status": models.SlotFree},
		storage.Values{"status": models.SlotReserved},
	)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, models.SlotReserved, updated[0].Status)

	again, err := tables.Slots.Update(ctx,
		storage.Filter{"id": june[0].ID, "status": models.SlotFree},
		storage.Values{"status": models.SlotReserved},
	)
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = tables.Slots.One(ctx, storage.Where(storage.Filter{"id": int64(-1)}))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	n, err := tables.Slots.Delete(ctx, storage.Filter{"pro_id": pro.ID, "date": "2024-07-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStorage_NotificationConstraints(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()
	tables := s.Tables()

	pro := createUser(t, tables, "notify@example.com", "professional")
	_, err := tables.Notifications.Insert(ctx, storage.Values{
		"pro_id": pro.ID, "appointment_id": int64(11), "message": "first",
	})
	require.NoError(t, err)

	_, err = tables.Notifications.Insert(ctx, storage.Values{
		"pro_id": pro.ID, "appointment_id": int64(11), "message": "again",
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = tables.Notifications.Insert(ctx, storage.Values{
		"pro_id": int64(999999), "appointment_id": int64(12), "message": "orphan",
	})
	assert.ErrorIs(t, err, storage.ErrForeignKey)

	// уведомления без записи не ограничены индексом
	for range 2 {
		_, err = tables.Notifications.Insert(ctx, storage.Values{"pro_id": pro.ID, "message": "manual"})
		require.NoError(t, err)
	}
}

func TestStorage_WithTxRollsBack(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx storage.Tables) error {
		createUser(t, tx, "rollback@example.com", "client")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Tables().Users.One(ctx, storage.Where(storage.Filter{"email": "rollback@example.com"}))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_ConditionalUpdateUnderContention(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()
	tables := s.Tables()

	pro := createUser(t, tables, "busy@example.com", "professional")
	slot, err := tables.Slots.Insert(ctx, storage.Values{
		"pro_id": pro.ID, "date": "2024-06-01", "hour": "10:00", "status": models.SlotFree,
	})
	require.NoError(t, err)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx storage.Tables) error {
				res, err := tx.Slots.Update(ctx,
					storage.Filter{"id": slot.ID, "status": models.SlotFree},
					storage.Values{"status": models.SlotReserved},
				)
				if err != nil {
					return err
				}
				if len(res) == 1 {
					mu.Lock()
					wins++
					mu.Unlock()
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
