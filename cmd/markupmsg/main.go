// Package main renders templates containing message tags, either once to
// stdout or continuously over HTTP.
//
//	markupmsg render -catalog ./i18n -locale pt-BR page.html
//	markupmsg serve -addr :8080 -templates ./pages -catalog ./i18n
//
// Settings come from MARKUPMSG_* environment variables, optionally loaded
// from a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/grahms/markupmsg"
	"github.com/grahms/markupmsg/internal/server"
)

const usage = "usage: markupmsg <render|serve> [flags]"

func main() {
	// A missing .env file is fine outside development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	settings, err := markupmsg.LoadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	logger := newLogger(stderr, settings.LogLevel)

	switch args[0] {
	case "render":
		return runRender(settings, logger, args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, settings, logger, args[1:], stderr)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func runRender(settings markupmsg.Settings, logger zerolog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	catalogDir := fs.String("catalog", "", "directory holding locales/<locale>/<namespace>.yaml")
	locale := fs.String("locale", settings.DefaultLocale, "locale to render in")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("render needs exactly one template file")
	}

	engine, bundle, err := buildEngine(settings, *catalogDir, logger, nil)
	if err != nil {
		return err
	}
	tag, err := language.Parse(*locale)
	if err != nil {
		return fmt.Errorf("parse locale %q: %w", *locale, err)
	}
	if bundle != nil {
		tag = bundle.Match(tag)
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := engine.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return engine.NewPage(name, m, tag).Render(stdout)
}

func runServe(ctx context.Context, settings markupmsg.Settings, logger zerolog.Logger, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "localhost:8080", "HTTP listen address")
	templates := fs.String("templates", ".", "directory holding <page>.html templates")
	catalogDir := fs.String("catalog", "", "directory holding locales/<locale>/<namespace>.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	engine, bundle, err := buildEngine(settings, *catalogDir, logger, registry)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:      *addr,
		Templates: os.DirFS(*templates),
		Engine:    engine,
		Bundle:    bundle,
		Logger:    logger,
		Gatherer:  registry,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	return srv.ListenAndServe(ctx)
}

// buildEngine wires settings, catalog, logger and metrics into an engine.
// The bundle is nil when no catalog directory is given.
func buildEngine(settings markupmsg.Settings, catalogDir string, logger zerolog.Logger, reg prometheus.Registerer) (*markupmsg.Engine, *markupmsg.Bundle, error) {
	opts := []func(*markupmsg.Engine){
		markupmsg.WithSettings(settings),
		markupmsg.WithLogger(logger),
	}
	if reg != nil {
		opts = append(opts, markupmsg.WithMetrics(markupmsg.NewMetrics(reg)))
	}

	var bundle *markupmsg.Bundle
	if catalogDir != "" {
		b, err := markupmsg.LoadBundle(os.DirFS(catalogDir), settings.DefaultLocale)
		if err != nil {
			return nil, nil, fmt.Errorf("load catalog: %w", err)
		}
		bundle = b
		opts = append(opts, markupmsg.WithLocalizer(markupmsg.NewCatalogLocalizer(b)))
	}

	return markupmsg.NewEngine(nil, opts...), bundle, nil
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
