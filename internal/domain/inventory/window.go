package inventory

import (
	"fmt"
	"time"

	"github.com/jhoicas/fluxo-estoque/internal/domain"
)

// DateLayout formato de fecha de negocio (columna data).
const DateLayout = "2006-01-02"

// Window rango cerrado [From, To] de días calendario.
type Window struct {
	From time.Time
	To   time.Time
}

// Validate exige From <= To.
func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() {
		return fmt.Errorf("%w: ventana sin fechas", domain.ErrInvalidInput)
	}
	if DateOnly(w.From).After(DateOnly(w.To)) {
		return fmt.Errorf("%w: from %s posterior a to %s", domain.ErrInvalidInput, DateKey(w.From), DateKey(w.To))
	}
	return nil
}

func (w Window) String() string {
	return DateKey(w.From) + ".." + DateKey(w.To)
}

// DateOnly normaliza a medianoche UTC conservando el día calendario de t.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey clave YYYY-MM-DD del día calendario de t.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate interpreta YYYY-MM-DD como día calendario.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q no es YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}

// Yesterday día calendario anterior a now en la zona loc.
func Yesterday(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(now.In(loc)).AddDate(0, 0, -1)
}

// DefaultFlowWindow ventana de lookback días que termina ayer (hoy-lookback .. hoy-1).
func DefaultFlowWindow(now time.Time, loc *time.Location, lookback int) Window {
	if lookback < 1 {
		lookback = 1
	}
	to := Yesterday(now, loc)
	return Window{From: to.AddDate(0, 0, -(lookback - 1)), To: to}
}
