package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/rsilvagit/go-empleo/internal/apply"
	"github.com/rsilvagit/go-empleo/internal/auth"
	"github.com/rsilvagit/go-empleo/internal/filter"
	"github.com/rsilvagit/go-empleo/internal/format"
	"github.com/rsilvagit/go-empleo/internal/model"
	"github.com/rsilvagit/go-empleo/internal/search"
)

// ── search ─────────────────────────────────────────────────────────────────

func runSearch(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	query := fs.String("q", "", "Consulta (ej: \"desarrollador go\"); vacía lista todos los empleos")
	location := fs.String("l", "", "Ubicación; admite alternativas separadas por comas")
	jobType := fs.String("tipo", "", "Tipo: full-time, part-time, contract, internship, remote")
	remote := fs.Bool("remoto", false, "Solo empleos remotos")
	salaryMin := fs.Float64("salario-min", 0, "Salario mínimo")
	salaryMax := fs.Float64("salario-max", 0, "Salario máximo")
	method := fs.String("metodo", "", "Método de búsqueda (ver 'methods')")
	pages := fs.Int("paginas", 1, "Páginas del listado a cargar cuando no hay consulta")
	if err := fs.Parse(args); err != nil {
		return err
	}

	empType, err := model.ParseEmploymentType(*jobType)
	if err != nil {
		return err
	}

	o := d.Orchestrator
	if err := o.Init(ctx); err != nil {
		return err
	}

	if m := firstNonEmpty(*method, d.Config.SearchMethod); m != "" {
		if err := o.SelectMethod(ctx, m); err != nil {
			return err
		}
	}

	f := filter.Filters{
		Query:      *query,
		Location:   *location,
		Type:       empType,
		RemoteOnly: *remote,
	}
	if *salaryMin > 0 {
		f.SalaryMin = salaryMin
	}
	if *salaryMax > 0 {
		f.SalaryMax = salaryMax
	}
	d.Filters.Replace(f)

	if strings.TrimSpace(*query) != "" {
		if err := o.Search(ctx); err != nil {
			return err
		}
	} else {
		for i := 1; i < *pages && o.Snapshot().CanLoadMore; i++ {
			if err := o.LoadMore(ctx); err != nil {
				return err
			}
		}
	}

	v := o.Snapshot()
	if err := writeAll(d, v.Visible); err != nil {
		return err
	}
	printSummary(v, f)
	return nil
}

func printSummary(v search.View, f filter.Filters) {
	fmt.Println()
	switch v.Mode {
	case search.ModeRanked:
		fmt.Printf("%d de %d resultado(s) para %q (método %s).\n", len(v.Loaded), v.Total, v.Query, v.ActiveMethod)
	default:
		fmt.Printf("Mostrando %d de %d empleo(s).\n", len(v.Loaded), v.Total)
	}
	if f.Active() && len(v.Visible) != len(v.Loaded) {
		fmt.Printf("Filtros activos: %d coinciden.\n", len(v.Visible))
	}
	if v.CanLoadMore {
		fmt.Println("Hay más empleos disponibles; usa -paginas para cargar más.")
	}
}

func writeAll(d *deps, jobs []model.JobPosting) error {
	if err := d.Printer.WriteJobs(jobs); err != nil {
		return err
	}
	for _, w := range d.Writers {
		if err := w.WriteJobs(jobs); err != nil {
			d.Logger.Warn("result writer failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "Aviso: no se pudieron enviar los resultados: %v\n", err)
		}
	}
	return nil
}

// ── methods ────────────────────────────────────────────────────────────────

func runMethods(ctx context.Context, d *deps, _ []string) error {
	methods, err := d.Source.FetchSearchMethods(ctx)
	if err != nil {
		return err
	}
	active := firstNonEmpty(d.Config.SearchMethod, methods.Recommended)
	return d.Printer.WriteMethods(methods, active)
}

// ── job ────────────────────────────────────────────────────────────────────

func runJob(ctx context.Context, d *deps, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: go-empleo job <id>")
	}
	id := model.JobID(args[0])
	job, err := d.Source.FetchJobByID(ctx, id)
	if err != nil {
		return err
	}
	return d.Printer.WriteJob(job, d.Apply.Applied(id))
}

// ── apply ──────────────────────────────────────────────────────────────────

func runApply(ctx context.Context, d *deps, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: go-empleo apply <id>")
	}
	id := model.JobID(args[0])
	if err := guard(d, "/empleos/"+id.String()); err != nil {
		return err
	}

	ack, err := d.Apply.Apply(ctx, id)
	if errors.Is(err, apply.ErrAlreadyApplied) {
		fmt.Println("Ya aplicaste a este empleo.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(ack.Message)
	return nil
}

// ── dashboard ──────────────────────────────────────────────────────────────

func runDashboard(ctx context.Context, d *deps, _ []string) error {
	if err := guard(d, "/dashboard"); err != nil {
		return err
	}
	user := d.Session.User()

	dash, err := d.Orchestrator.Dashboard(ctx, user)
	if err != nil {
		return err
	}

	fmt.Printf("[%s] Hola, %s\n", format.Initials(user.FullName), firstNonEmpty(user.FullName, user.Email))
	if user.ProfessionalTitle != "" {
		fmt.Println(user.ProfessionalTitle)
	}
	fmt.Println("\nRecomendados para ti:")
	if err := d.Printer.WriteJobs(dash.Recommended); err != nil {
		return err
	}
	fmt.Println("\nEmpleos recientes:")
	return d.Printer.WriteJobs(dash.Recent)
}

// ── account ────────────────────────────────────────────────────────────────

func runLogin(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "Correo electrónico")
	password := fs.String("password", "", "Contraseña (se pide si se omite)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	if *email == "" {
		*email = prompt(in, "Correo electrónico: ")
	}
	if *password == "" {
		*password = prompt(in, "Contraseña: ")
	}

	user, err := d.Auth.Login(ctx, *email, *password)
	if err != nil {
		return formOrError(err)
	}
	fmt.Printf("Sesión iniciada como %s.\n", firstNonEmpty(user.FullName, user.Email))
	return nil
}

func runRegister(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var form auth.RegisterForm
	fs.StringVar(&form.FullName, "nombre", "", "Nombre completo")
	fs.StringVar(&form.Email, "email", "", "Correo electrónico")
	fs.StringVar(&form.Password, "password", "", "Contraseña")
	fs.StringVar(&form.ConfirmPassword, "confirmar", "", "Confirmación de la contraseña")
	fs.StringVar(&form.ProfessionalTitle, "titulo", "", "Título profesional")
	fs.StringVar(&form.Company, "empresa", "", "Empresa actual")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	if form.FullName == "" {
		form.FullName = prompt(in, "Nombre completo: ")
	}
	if form.Email == "" {
		form.Email = prompt(in, "Correo electrónico: ")
	}
	if form.Password == "" {
		form.Password = prompt(in, "Contraseña: ")
	}
	if form.ConfirmPassword == "" {
		form.ConfirmPassword = prompt(in, "Confirma la contraseña: ")
	}

	user, err := d.Auth.Register(ctx, form)
	if err != nil {
		return formOrError(err)
	}
	fmt.Printf("Cuenta creada. Bienvenido/a, %s.\n", firstNonEmpty(user.FullName, user.Email))
	return nil
}

func runLogout(ctx context.Context, d *deps, _ []string) error {
	if err := d.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Sesión cerrada.")
	return nil
}

// ── profile ────────────────────────────────────────────────────────────────

func runProfile(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	name := fs.String("nombre", "", "Nombre completo")
	title := fs.String("titulo", "", "Título profesional (guía las recomendaciones)")
	company := fs.String("empresa", "", "Empresa actual")
	location := fs.String("ubicacion", "", "Ubicación")
	bio := fs.String("bio", "", "Descripción breve")
	skills := fs.String("habilidades", "", "Habilidades separadas por comas")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := guard(d, "/perfil"); err != nil {
		return err
	}

	var patch auth.ProfilePatch
	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "nombre":
			patch.FullName = name
		case "titulo":
			patch.ProfessionalTitle = title
		case "empresa":
			patch.Company = company
		case "ubicacion":
			patch.Location = location
		case "bio":
			patch.Bio = bio
		case "habilidades":
			patch.Skills = splitList(*skills)
		}
	})

	user := d.Session.User()
	if changed {
		var err error
		if user, err = d.Auth.UpdateProfile(ctx, patch); err != nil {
			return formOrError(err)
		}
		fmt.Println("Perfil actualizado.")
	}
	printProfile(user)
	return nil
}

func printProfile(u *model.User) {
	fmt.Printf("[%s] %s <%s>\n", format.Initials(u.FullName), firstNonEmpty(u.FullName, u.Email), u.Email)
	rows := []struct{ label, value string }{
		{"Título", u.ProfessionalTitle},
		{"Empresa", u.Company},
		{"Ubicación", u.Location},
		{"Habilidades", strings.Join(u.Skills, ", ")},
		{"Bio", u.Bio},
	}
	for _, r := range rows {
		if r.value != "" {
			fmt.Printf("  %-12s %s\n", r.label+":", r.value)
		}
	}
}

// ── helpers ────────────────────────────────────────────────────────────────

func guard(d *deps, path string) error {
	decision := d.Session.Guard(path)
	if decision.Allow {
		return nil
	}
	return fmt.Errorf("necesitas iniciar sesión (go-empleo login); destino: %s", decision.Redirect)
}

func formOrError(err error) error {
	var fe *auth.FormError
	if !errors.As(err, &fe) {
		return err
	}
	for field, msg := range fe.Fields {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
	}
	return errors.New("revisa los campos del formulario")
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
