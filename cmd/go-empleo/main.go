package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/rsilvagit/go-empleo/internal/errors"
)

const usage = `Uso: go-empleo [-offline] [comando] [opciones]

Comandos:
  search      Busca empleos (por defecto)
  methods     Lista los métodos de búsqueda
  job <id>    Muestra el detalle de un empleo
  apply <id>  Aplica a un empleo (requiere sesión)
  dashboard   Recomendaciones y empleos recientes (requiere sesión)
  login       Inicia sesión
  register    Crea una cuenta
  logout      Cierra la sesión
  profile     Muestra o actualiza tu perfil (requiere sesión)
`

type command func(ctx context.Context, d *deps, args []string) error

var commands = map[string]command{
	"search":    runSearch,
	"methods":   runMethods,
	"job":       runJob,
	"apply":     runApply,
	"dashboard": runDashboard,
	"login":     runLogin,
	"register":  runRegister,
	"logout":    runLogout,
	"profile":   runProfile,
}

func main() {
	_ = godotenv.Load()

	args, offline := os.Args[1:], false
	for len(args) > 0 && (args[0] == "-offline" || args[0] == "--offline") {
		offline, args = true, args[1:]
	}
	if len(args) > 0 && (args[0] == "-h" || args[0] == "-help" || args[0] == "--help" || args[0] == "help") {
		fmt.Fprint(os.Stderr, usage)
		return
	}

	// Without a known command name, everything goes to search.
	name := "search"
	if len(args) > 0 {
		if _, ok := commands[args[0]]; ok {
			name, args = args[0], args[1:]
		}
	}

	err := run(name, args, offline)
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		os.Exit(1)
	}
}

func run(name string, args []string, offline bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var d deps
	app := newApp(offline, &d)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Aviso: cierre incompleto: %v\n", err)
		}
		_ = d.Logger.Sync()
	}()

	return commands[name](ctx, &d, args)
}

// describe renders err for the terminal.
func describe(err error) string {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return apperrors.UserMessage(err)
	}
	return err.Error()
}
