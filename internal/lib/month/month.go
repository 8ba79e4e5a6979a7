// Package month считает границы календарного месяца в формате дат слотов.
package month

import (
	"fmt"
	"time"
)

// DateLayout: формат даты слотов и записей.
const DateLayout = "2006-01-02"

// Bounds возвращает первый и последний день месяца в формате DateLayout.
func Bounds(year, month int) (from, to string, err error) {
	if month < 1 || month > 12 {
		return "", "", fmt.Errorf("month %d out of range", month)
	}
	if year < 1 || year > 9999 {
		return "", "", fmt.Errorf("year %d out of range", year)
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

// Today возвращает дату t в формате DateLayout.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

// HourLayout: формат времени слотов.
const HourLayout = "15:04"

// ValidDate проверяет строку даты в формате DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidHour проверяет строку времени в формате HourLayout.
func ValidHour(s string) bool {
	_, err := time.Parse(HourLayout, s)
	return err == nil && len(s) == len(HourLayout)
}
