// Package forecast contiene los cálculos puros de demanda y reposición.
// Ninguna función consulta el reloj: "ahora" llega siempre como parámetro (asOf).
package forecast

import "time"

// Longitudes de período de demanda.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// ValidPeriod indica si p es una longitud de período soportada.
func ValidPeriod(p string) bool {
	return p == PeriodDay || p == PeriodWeek || p == PeriodMonth
}

// PeriodStart devuelve el inicio (UTC) del período que contiene t.
// Las semanas empiezan el lunes.
func PeriodStart(t time.Time, period string) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	switch period {
	case PeriodDay:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case PeriodWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
}

// AddPeriods desplaza el inicio de período start en n períodos.
func AddPeriods(start time.Time, period string, n int) time.Time {
	switch period {
	case PeriodDay:
		return start.AddDate(0, 0, n)
	case PeriodWeek:
		return start.AddDate(0, 0, 7*n)
	default:
		return start.AddDate(0, n, 0)
	}
}

// PeriodsPerYear cantidad de períodos en un año, para anualizar la demanda.
func PeriodsPerYear(period string) float64 {
	switch period {
	case PeriodDay:
		return 365
	case PeriodWeek:
		return 52
	default:
		return 12
	}
}

// Window devuelve [from, to) para los últimos n períodos, incluyendo el período en curso de asOf.
func Window(asOf time.Time, period string, n int) (from, to time.Time) {
	if n < 1 {
		n = 1
	}
	current := PeriodStart(asOf, period)
	return AddPeriods(current, period, -(n - 1)), AddPeriods(current, period, 1)
}
