package postgresql

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/serpleno/serpleno/internal/storage"
)

// Collection: обобщённая реализация storage.Collection для одной таблицы.
// Колонки результата сопоставляются с полями T по тегу db.
type Collection[T any] struct {
	q     querier
	table string
}

// One возвращает первую запись под запрос или storage.ErrNotFound.
func (c *Collection[T]) One(ctx context.Context, q storage.Query) (*T, error) {
	op := "storage.postgresql.One." + c.table

	q.Limit = 1
	rows, err := c.All(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return &rows[0], nil
}

// All возвращает все записи под запрос.
func (c *Collection[T]) All(ctx context.Context, q storage.Query) ([]T, error) {
	op := "storage.postgresql.All." + c.table

	query, args := buildSelect(c.table, q)
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Insert добавляет запись и возвращает её вместе с id и значениями по умолчанию.
func (c *Collection[T]) Insert(ctx context.Context, v storage.Values) (*T, error) {
	op := "storage.postgresql.Insert." + c.table

	query, args := buildInsert(c.table, v)
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &item, nil
}

// Update меняет все записи под фильтр и возвращает их новое состояние.
func (c *Collection[T]) Update(ctx context.Context, f storage.Filter, v storage.Values) ([]T, error) {
	op := "storage.postgresql.Update." + c.table

	if len(v) == 0 {
		return nil, fmt.Errorf("%s: nothing to update", op)
	}
	query, args := buildUpdate(c.table, f, v)
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return items, nil
}

// Delete удаляет записи под фильтр и возвращает их количество.
func (c *Collection[T]) Delete(ctx context.Context, f storage.Filter) (int64, error) {
	op := "storage.postgresql.Delete." + c.table

	where, args := buildWhere(storage.Query{Eq: f}, nil)
	tag, err := c.q.Exec(ctx, "DELETE FROM "+ident(c.table)+where, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func placeholder(args []any) string {
	return "$" + strconv.Itoa(len(args))
}

func buildWhere(q storage.Query, args []any) (string, []any) {
	var conds []string
	for _, k := range sortedKeys(q.Eq) {
		args = append(args, q.Eq[k])
		conds = append(conds, ident(k)+" = "+placeholder(args))
	}
	for _, r := range q.Ranges {
		if r.From != nil {
			args = append(args, r.From)
			conds = append(conds, ident(r.Column)+" >= "+placeholder(args))
		}
		if r.To != nil {
			args = append(args, r.To)
			conds = append(conds, ident(r.Column)+" <= "+placeholder(args))
		}
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildSelect(table string, q storage.Query) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(ident(table))

	where, args := buildWhere(q, nil)
	b.WriteString(where)

	order := q.OrderBy
	if len(order) == 0 {
		order = []string{"id"}
	}
	terms := make([]string, 0, len(order))
	for _, o := range order {
		col, desc := storage.ParseOrder(o)
		term := ident(col)
		if desc {
			term += " DESC"
		}
		terms = append(terms, term)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(terms, ", "))

	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return b.String(), args
}

func buildInsert(table string, v storage.Values) (string, []any) {
	if len(v) == 0 {
		return "INSERT INTO " + ident(table) + " DEFAULT VALUES RETURNING *", nil
	}
	keys := sortedKeys(v)
	cols := make([]string, 0, len(keys))
	marks := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, v[k])
		cols = append(cols, ident(k))
		marks = append(marks, placeholder(args))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(table), strings.Join(cols, ", "), strings.Join(marks, ", ")), args
}

func buildUpdate(table string, f storage.Filter, v storage.Values) (string, []any) {
	keys := sortedKeys(v)
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+len(f))
	for _, k := range keys {
		args = append(args, v[k])
		sets = append(sets, ident(k)+" = "+placeholder(args))
	}
	where, args := buildWhere(storage.Query{Eq: f}, args)
	return fmt.Sprintf("UPDATE %s SET %s%s RETURNING *", ident(table), strings.Join(sets, ", "), where), args
}
