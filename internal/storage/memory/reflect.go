package memory

import (
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// columns возвращает колонки типа T по тегам db.
func columns[T any]() map[string]reflect.Type {
	rt := reflect.TypeFor[T]()
	cols := make(map[string]reflect.Type, rt.NumField())
	for i := range rt.NumField() {
		f := rt.Field(i)
		col := f.Tag.Get("db")
		if col == "" || col == "-" {
			continue
		}
		cols[col] = f.Type
	}
	return cols
}

func decode[T any](r row) T {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	rt := rv.Type()
	for i := range rt.NumField() {
		col := rt.Field(i).Tag.Get("db")
		if col == "" || col == "-" {
			continue
		}
		v, ok := r[col]
		if !ok || v == nil {
			continue
		}
		assign(rv.Field(i), reflect.ValueOf(v))
	}
	return out
}

func assign(dst reflect.Value, val reflect.Value) {
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		assign(elem.Elem(), val)
		dst.Set(elem)
		return
	}
	if val.Type().AssignableTo(dst.Type()) {
		dst.Set(val)
		return
	}
	dst.Set(val.Convert(dst.Type()))
}

// normalize снимает указатели и приводит числа к int64/float64, чтобы
// сравнение не зависело от конкретного типа значения.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return rv.Interface()
}

func zero(typ reflect.Type) any {
	if typ.Kind() == reflect.Pointer {
		return nil
	}
	return normalize(reflect.Zero(typ).Interface())
}

func compatible(typ reflect.Type, v any) bool {
	if v == nil {
		return typ.Kind() == reflect.Pointer
	}
	base := typ
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	switch v.(type) {
	case int64:
		return isInt(base.Kind())
	case float64:
		return base.Kind() == reflect.Float32 || base.Kind() == reflect.Float64
	case string:
		return base.Kind() == reflect.String
	case bool:
		return base.Kind() == reflect.Bool
	case time.Time:
		return base == timeType
	}
	return reflect.TypeOf(v).AssignableTo(base)
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func equal(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}

// compare упорядочивает нормализованные значения. nil меньше любого значения.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, false
		default:
			return 1, false
		}
	}
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return cmpOrdered(x, y), true
		case float64:
			return cmpOrdered(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return cmpOrdered(x, y), true
		case int64:
			return cmpOrdered(x, float64(y)), true
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), true
		}
	}
	return 0, false
}

func cmpOrdered[N int64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
