package domain

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// Seoul - часовой пояс, в котором источники публикуют даты.
var Seoul = loadSeoul()

func loadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Date - календарная дата без времени суток.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate создает дату из компонентов.
func NewDate(year int, month time.Month, day int) Date {
	return Date{year: year, month: month, day: day}
}

// ParseDate разбирает дату в формате "YYYY.MM.DD" или "YYYY.MM.DD."
// (с завершающей точкой). Пробелы после точек допускаются.
func ParseDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	t, err := time.Parse("2006.1.2", s)
	if err != nil {
		t, err = time.Parse("20060102", s)
		if err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", raw, err)
		}
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool { return d.year == 0 && d.month == 0 && d.day == 0 }

// At возвращает момент времени в указанный час местного времени loc.
func (d Date) At(hour int, loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, hour, 0, 0, 0, loc)
}

// String форматирует дату как "2006.01.02.".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d.%02d.%02d.", d.year, int(d.month), d.day)
}

// PublishTime возвращает время публикации записи в ленте:
// 14:00 по Сеулу в указанную дату.
func PublishTime(d Date) time.Time {
	return d.At(14, Seoul)
}
