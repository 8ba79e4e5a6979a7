// Package postgresql реализует шлюз хранения поверх PostgreSQL (pgxpool).
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/serpleno/serpleno/internal/models"
	"github.com/serpleno/serpleno/internal/storage"
)

// querier: общее подмножество pgxpool.Pool и pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Storage держит пул соединений и выдаёт коллекции поверх него.
type Storage struct {
	pool *pgxpool.Pool
}

// New открывает пул соединений и проверяет доступность базы.
func New(ctx context.Context, connString string) (*Storage, error) {
	const op = "storage.postgresql.New"

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg.MinConns = 1
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Storage{pool: pool}, nil
}

// DB возвращает database/sql обёртку над пулом для миграций.
func (s *Storage) DB() *sql.DB {
	return stdlib.OpenDBFromPool(s.pool)
}

// Tables возвращает коллекции, работающие напрямую через пул.
func (s *Storage) Tables() storage.Tables {
	return tables(s.pool)
}

// WithTx выполняет fn в транзакции READ COMMITTED. Условные обновления внутри
// fn блокируют строку, поэтому конкурентные переходы статуса сериализуются.
func (s *Storage) WithTx(ctx context.Context, fn func(tx storage.Tables) error) error {
	const op = "storage.postgresql.WithTx"

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(tables(tx))
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.pool.Close()
}

func tables(q querier) storage.Tables {
	return storage.Tables{
		Users:         &Collection[models.User]{q: q, table: storage.TableUsers},
		Contents:      &Collection[models.Content]{q: q, table: storage.TableContents},
		Uploads:       &Collection[models.Upload]{q: q, table: storage.TableUploads},
		Slots:         &Collection[models.Slot]{q: q, table: storage.TableSlots},
		Appointments:  &Collection[models.Appointment]{q: q, table: storage.TableAppointments},
		Notifications: &Collection[models.Notification]{q: q, table: storage.TableNotifications},
	}
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", storage.ErrDuplicate, pgErr.ConstraintName)
	case "23503":
		return fmt.Errorf("%w: %s", storage.ErrForeignKey, pgErr.ConstraintName)
	}
	return err
}
