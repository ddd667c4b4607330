// Package timeslot работает со слотами времени встречи. Слоты хранятся
// и сравниваются как строки фиксированного формата ("Wed, Jan 15, 2025 14:30"),
// поэтому формат менять нельзя: ранее сохраненные значения обязаны разбираться.
package timeslot

import "time"

// Layout — формат строки слота времени
const Layout = "Mon, Jan 02, 2006 15:04"

// Parse разбирает строку слота времени
func Parse(slot string) (time.Time, error) {
	return time.Parse(Layout, slot)
}

// Format форматирует время в строку слота
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Expired сообщает, прошел ли слот времени. Неразбираемый слот
// считается непросроченным, чтобы не снимать вещь с обмена из-за
// испорченной строки.
func Expired(slot string, now time.Time) bool {
	t, err := Parse(slot)
	if err != nil {
		return false
	}
	return t.Before(now)
}

// AllExpired сообщает, прошли ли все слоты времени
func AllExpired(slots []string, now time.Time) bool {
	for _, slot := range slots {
		if !Expired(slot, now) {
			return false
		}
	}
	return true
}
