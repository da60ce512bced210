// Package format turns raw posting values into display strings.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rsilvagit/go-empleo/internal/model"
)

var printer = message.NewPrinter(language.Spanish)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "US$",
	"GBP": "GBP",
	"MXN": "MXN",
}

// Salary formats a salary range the way es-ES shows currency amounts,
// e.g. "30.000 € - 45.000 €". Unknown currency codes fall back to USD.
func Salary(min, max float64, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.USD
	}
	if min == max {
		return amount(min, unit)
	}
	return amount(min, unit) + " - " + amount(max, unit)
}

func amount(v float64, unit currency.Unit) string {
	sym, ok := currencySymbols[unit.String()]
	if !ok {
		sym = unit.String()
	}
	return printer.Sprintf("%d", int64(math.Round(v))) + " " + sym
}

// SalaryOf formats a posting's salary, or "" when it has none.
func SalaryOf(s *model.Salary) string {
	if s == nil {
		return ""
	}
	return Salary(s.Min, s.Max, s.Currency)
}

var jobTypeLabels = map[string]string{
	"full-time":  "Tiempo completo",
	"part-time":  "Tiempo parcial",
	"contract":   "Contrato",
	"internship": "Prácticas",
	"remote":     "Remoto",
}

// JobTypeLabel returns the Spanish label for an employment type code.
// Unknown codes are returned unchanged.
func JobTypeLabel(code string) string {
	if label, ok := jobTypeLabels[code]; ok {
		return label
	}
	return code
}

// Relevance renders a similarity score in [0,1] as a percentage.
func Relevance(score float64) string {
	return fmt.Sprintf("%d%% relevancia", int(math.Round(score*100)))
}

// RelativeTime describes t relative to now in Spanish ("hace 3 días", "en 2 horas").
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	future := d < 0
	if future {
		d = -d
	}

	var phrase string
	switch {
	case d < time.Minute:
		phrase = "menos de un minuto"
	case d < time.Hour:
		phrase = plural(int(d/time.Minute), "minuto", "minutos")
	case d < 24*time.Hour:
		phrase = plural(int(d/time.Hour), "hora", "horas")
	case d < 30*24*time.Hour:
		phrase = plural(int(d/(24*time.Hour)), "día", "días")
	case d < 365*24*time.Hour:
		phrase = plural(int(d/(30*24*time.Hour)), "mes", "meses")
	default:
		phrase = plural(int(d/(365*24*time.Hour)), "año", "años")
	}

	if future {
		return "en " + phrase
	}
	return "hace " + phrase
}

// RelativeISO parses an ISO 8601 date or timestamp and formats it with RelativeTime.
func RelativeISO(s string, now time.Time) (string, error) {
	t, err := model.ParseDate(s)
	if err != nil {
		return "", fmt.Errorf("format: parsing date %q: %w", s, err)
	}
	return RelativeTime(t, now), nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// Initials returns up to two upper-case initials of a name, "U" for none.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "U"
	}
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}

// PlainText strips HTML markup from a description and collapses whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style").Remove()
	doc.Find("p, div, li, br, tr, h1, h2, h3, h4, h5, h6").Each(func(i int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate shortens s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return strings.TrimRightFunc(string(runes[:n-1]), unicode.IsSpace) + "…"
}
