package format_test

import (
	"testing"
	"time"

	"github.com/rsilvagit/go-empleo/internal/format"
)

func TestSalary(t *testing.T) {
	cases := []struct {
		min, max float64
		currency string
		want     string
	}{
		{30000, 45000, "EUR", "30.000 € - 45.000 €"},
		{50000, 50000, "EUR", "50.000 €"},
		{60000, 90000, "USD", "60.000 US$ - 90.000 US$"},
		{60000, 90000, "", "60.000 US$ - 90.000 US$"},
		{60000, 90000, "not-a-code", "60.000 US$ - 90.000 US$"},
	}
	for _, c := range cases {
		if got := format.Salary(c.min, c.max, c.currency); got != c.want {
			t.Errorf("Salary(%v, %v, %q) = %q, want %q", c.min, c.max, c.currency, got, c.want)
		}
	}
}

func TestJobTypeLabel(t *testing.T) {
	cases := map[string]string{
		"full-time":  "Tiempo completo",
		"internship": "Prácticas",
		"remote":     "Remoto",
		"freelance":  "freelance",
	}
	for code, want := range cases {
		if got := format.JobTypeLabel(code); got != want {
			t.Errorf("JobTypeLabel(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "hace menos de un minuto"},
		{now.Add(-1 * time.Minute), "hace 1 minuto"},
		{now.Add(-45 * time.Minute), "hace 45 minutos"},
		{now.Add(-3 * time.Hour), "hace 3 horas"},
		{now.Add(-3 * 24 * time.Hour), "hace 3 días"},
		{now.Add(-65 * 24 * time.Hour), "hace 2 meses"},
		{now.Add(-800 * 24 * time.Hour), "hace 2 años"},
		{now.Add(2 * time.Hour), "en 2 horas"},
	}
	for _, c := range cases {
		if got := format.RelativeTime(c.at, now); got != c.want {
			t.Errorf("RelativeTime(%v) = %q, want %q", c.at, got, c.want)
		}
	}
}

func TestRelativeISO(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	got, err := format.RelativeISO("2024-06-14T12:00:00Z", now)
	if err != nil || got != "hace 1 día" {
		t.Errorf("RelativeISO = %q, %v; want \"hace 1 día\"", got, err)
	}
	if _, err := format.RelativeISO("ayer", now); err == nil {
		t.Error("RelativeISO(\"ayer\") expected error")
	}
}

func TestRelevance(t *testing.T) {
	if got := format.Relevance(0.874); got != "87% relevancia" {
		t.Errorf("Relevance(0.874) = %q", got)
	}
}

func TestInitials(t *testing.T) {
	cases := map[string]string{
		"":                    "U",
		"ana":                 "A",
		"María José Pérez":    "MJ",
		"  luis   fernández ": "LF",
	}
	for in, want := range cases {
		if got := format.Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"Desarrollador   backend\n en Go": "Desarrollador backend en Go",
		"<p>Hola <b>mundo</b></p><ul><li>Go</li><li>SQL</li></ul>": "Hola mundo Go SQL",
		"Salario &amp; beneficios":                                "Salario & beneficios",
		"<style>p{color:red}</style><p>texto</p>":                 "texto",
	}
	for in, want := range cases {
		if got := format.PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := format.Truncate("desarrollador", 6); got != "desar…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := format.Truncate("corto", 10); got != "corto" {
		t.Errorf("Truncate = %q", got)
	}
}
