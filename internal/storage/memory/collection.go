package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/serpleno/serpleno/internal/storage"
)

// Collection: storage.Collection над таблицей в памяти. Колонки берутся
// из тегов db типа T.
type Collection[T any] struct {
	s    *Storage
	name string
	log  *undoLog
}

func (c *Collection[T]) One(ctx context.Context, q storage.Query) (*T, error) {
	q.Limit = 1
	items, err := c.All(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, storage.ErrNotFound
	}
	return &items[0], nil
}

func (c *Collection[T]) All(ctx context.Context, q storage.Query) ([]T, error) {
	op := "storage.memory.All." + c.name
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cols := columns[T]()
	if err := checkQuery(cols, q); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var matched []row
	for _, r := range c.s.data[c.name].rows {
		if matches(r, q) {
			matched = append(matched, r)
		}
	}
	sortRows(matched, q.OrderBy)
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	items := make([]T, 0, len(matched))
	for _, r := range matched {
		items = append(items, decode[T](r))
	}
	return items, nil
}

func (c *Collection[T]) Insert(ctx context.Context, v storage.Values) (*T, error) {
	op := "storage.memory.Insert." + c.name
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cols := columns[T]()
	if err := checkValues(cols, v); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	t := c.s.data[c.name]

	r := make(row, len(cols))
	for col, typ := range cols {
		r[col] = zero(typ)
	}
	for k, val := range v {
		r[k] = normalize(val)
	}
	if _, ok := cols["created_at"]; ok {
		if _, set := v["created_at"]; !set {
			r["created_at"] = time.Now().UTC()
		}
	}
	if err := t.checkUnique(r, -1); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, set := v["id"]; !set {
		t.seq++
		r["id"] = t.seq
	}
	t.rows = append(t.rows, r)
	id := r["id"]
	c.log.add(func() { t.removeID(id) })

	item := decode[T](r)
	return &item, nil
}

func (c *Collection[T]) Update(ctx context.Context, f storage.Filter, v storage.Values) ([]T, error) {
	op := "storage.memory.Update." + c.name
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%s: nothing to update", op)
	}
	cols := columns[T]()
	if err := checkQuery(cols, storage.Query{Eq: f}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := checkValues(cols, v); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	t := c.s.data[c.name]

	q := storage.Query{Eq: f}
	var idx []int
	for i, r := range t.rows {
		if matches(r, q) {
			idx = append(idx, i)
		}
	}

	updated := make([]row, 0, len(idx))
	for _, i := range idx {
		next := t.rows[i].clone()
		for k, val := range v {
			next[k] = normalize(val)
		}
		if err := t.checkUnique(next, i); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updated = append(updated, next)
	}
	items := make([]T, 0, len(idx))
	for n, i := range idx {
		prev := t.rows[i]
		c.log.add(func() { t.restoreRow(prev) })
		t.rows[i] = updated[n]
		items = append(items, decode[T](updated[n]))
	}
	return items, nil
}

func (c *Collection[T]) Delete(ctx context.Context, f storage.Filter) (int64, error) {
	op := "storage.memory.Delete." + c.name
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := checkQuery(columns[T](), storage.Query{Eq: f}); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	t := c.s.data[c.name]

	q := storage.Query{Eq: f}
	kept := t.rows[:0:0]
	var n int64
	for _, r := range t.rows {
		if matches(r, q) {
			n++
			removed := r
			c.log.add(func() { t.restoreRow(removed) })
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	return n, nil
}

func (t *table) checkUnique(r row, self int) error {
	for _, col := range t.uniques {
		s, ok := r[col].(string)
		for i, other := range t.rows {
			if i == self {
				continue
			}
			if ok {
				if os, isStr := other[col].(string); isStr && strings.EqualFold(os, s) {
					return fmt.Errorf("%w: %s", storage.ErrDuplicate, col)
				}
				continue
			}
			if r[col] != nil && equal(other[col], r[col]) {
				return fmt.Errorf("%w: %s", storage.ErrDuplicate, col)
			}
		}
	}
	return nil
}

func matches(r row, q storage.Query) bool {
	for col, want := range q.Eq {
		if !equal(r[col], normalize(want)) {
			return false
		}
	}
	for _, rg := range q.Ranges {
		v := r[rg.Column]
		if rg.From != nil {
			if c, ok := compare(v, normalize(rg.From)); !ok || c < 0 {
				return false
			}
		}
		if rg.To != nil {
			if c, ok := compare(v, normalize(rg.To)); !ok || c > 0 {
				return false
			}
		}
	}
	return true
}

func sortRows(rows []row, order []string) {
	if len(order) == 0 {
		order = []string{"id"}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range order {
			col, desc := storage.ParseOrder(term)
			c, _ := compare(rows[i][col], rows[j][col])
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func checkQuery(cols map[string]reflect.Type, q storage.Query) error {
	for col := range q.Eq {
		if _, ok := cols[col]; !ok {
			return fmt.Errorf("unknown column %q", col)
		}
	}
	for _, r := range q.Ranges {
		if _, ok := cols[r.Column]; !ok {
			return fmt.Errorf("unknown column %q", r.Column)
		}
	}
	for _, term := range q.OrderBy {
		col, _ := storage.ParseOrder(term)
		if _, ok := cols[col]; !ok {
			return fmt.Errorf("unknown column %q", col)
		}
	}
	return nil
}

func checkValues(cols map[string]reflect.Type, v storage.Values) error {
	for col, val := range v {
		typ, ok := cols[col]
		if !ok {
			return fmt.Errorf("unknown column %q", col)
		}
		if !compatible(typ, normalize(val)) {
			return fmt.Errorf("column %q: incompatible value %T", col, val)
		}
	}
	return nil
}
