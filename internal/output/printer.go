package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rsilvagit/go-empleo/internal/format"
	"github.com/rsilvagit/go-empleo/internal/model"
)

// ResultWriter defines how search results are presented or delivered.
type ResultWriter interface {
	WriteJobs(jobs []model.JobPosting) error
}

const noResults = "No se encontraron empleos."

// ConsolePrinter writes jobs as a table. Rank and relevance columns are
// added when the postings come from a ranked search.
type ConsolePrinter struct {
	out io.Writer
	now func() time.Time
}

func NewConsolePrinter() *ConsolePrinter {
	return NewConsolePrinterTo(os.Stdout)
}

func NewConsolePrinterTo(out io.Writer) *ConsolePrinter {
	return &ConsolePrinter{out: out, now: time.Now}
}

func (cp *ConsolePrinter) WriteJobs(jobs []model.JobPosting) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(cp.out, noResults)
		return err
	}

	ranked := jobs[0].Ranked()

	w := tabwriter.NewWriter(cp.out, 0, 0, 2, ' ', 0)
	if ranked {
		fmt.Fprintln(w, "#\tRELEVANCIA\tID\tTITULO\tEMPRESA\tUBICACION\tTIPO\tSALARIO\tPUBLICADO")
		fmt.Fprintln(w, "-\t----------\t--\t------\t-------\t---------\t----\t-------\t---------")
	} else {
		fmt.Fprintln(w, "ID\tTITULO\tEMPRESA\tUBICACION\tTIPO\tSALARIO\tPUBLICADO")
		fmt.Fprintln(w, "--\t------\t-------\t---------\t----\t-------\t---------")
	}
	for _, j := range jobs {
		if ranked && j.Ranked() {
			fmt.Fprintf(w, "%d\t%s\t", *j.Rank, format.Relevance(*j.SimilarityScore))
		} else if ranked {
			fmt.Fprint(w, "-\t-\t")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID,
			format.Truncate(j.Title, 40),
			format.Truncate(j.Company, 24),
			location(j),
			format.JobTypeLabel(string(j.Type)),
			dash(format.SalaryOf(j.Salary)),
			cp.posted(j.PostedDate))
	}
	return w.Flush()
}

// WriteJob prints the full detail of a single posting.
func (cp *ConsolePrinter) WriteJob(j model.JobPosting, applied bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", j.Title)
	fmt.Fprintf(&b, "%s · %s\n", j.Company, location(j))
	if j.Type != "" {
		fmt.Fprintf(&b, "Tipo: %s\n", format.JobTypeLabel(string(j.Type)))
	}
	if s := format.SalaryOf(j.Salary); s != "" {
		fmt.Fprintf(&b, "Salario: %s\n", s)
	}
	if j.PostedDate != "" {
		fmt.Fprintf(&b, "Publicado: %s\n", cp.posted(j.PostedDate))
	}
	if j.Deadline != "" {
		if rel, err := format.RelativeISO(j.Deadline, cp.now()); err == nil {
			fmt.Fprintf(&b, "Cierra: %s\n", rel)
		}
	}
	if j.Ranked() {
		fmt.Fprintf(&b, "Posición %d · %s\n", *j.Rank, format.Relevance(*j.SimilarityScore))
	}
	if text := format.PlainText(j.Description); text != "" {
		fmt.Fprintf(&b, "\n%s\n", text)
	}
	if len(j.Requirements) > 0 {
		b.WriteString("\nRequisitos:\n")
		for _, r := range j.Requirements {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	if len(j.Skills) > 0 {
		fmt.Fprintf(&b, "\nHabilidades: %s\n", strings.Join(j.Skills, ", "))
	}
	if applied {
		b.WriteString("\nYa aplicaste a este empleo.\n")
	}
	_, err := io.WriteString(cp.out, b.String())
	return err
}

// WriteMethods lists the ranking methods, marking the active one.
func (cp *ConsolePrinter) WriteMethods(methods model.SearchMethods, active string) error {
	w := tabwriter.NewWriter(cp.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tNOMBRE\tUSO")
	for _, id := range methods.IDs() {
		m, _ := methods.Lookup(id)
		mark := " "
		if id == active {
			mark = "*"
		}
		if id == methods.Recommended {
			m.Name += " (recomendado)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, id, m.Name, m.UseCase)
	}
	return w.Flush()
}

func (cp *ConsolePrinter) posted(date string) string {
	if date == "" {
		return "-"
	}
	rel, err := format.RelativeISO(date, cp.now())
	if err != nil {
		return date
	}
	return rel
}

func location(j model.JobPosting) string {
	loc := dash(j.Location)
	if j.IsRemote() {
		loc += " (remoto)"
	}
	return loc
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
