// Package main provides the websaver command: a terminal bookmark keeper
// with tags, notes, and JSON export/import.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/websaver/pkg/backend"
	"github.com/entrhq/websaver/pkg/config"
	"github.com/entrhq/websaver/pkg/logging"
	"github.com/entrhq/websaver/pkg/pagetitle"
	"github.com/entrhq/websaver/pkg/saved"
	"github.com/entrhq/websaver/pkg/saved/wire"
	"github.com/entrhq/websaver/pkg/tui"
)

const version = "0.1.0"

// Flags holds the parsed command line.
type Flags struct {
	ConfigPath  string
	Add         string
	Title       string
	Notes       string
	Tags        string
	List        bool
	Filter      string
	URLGlob     string
	Delete      string
	Export      string
	Color       bool
	Import      string
	ShowVersion bool
}

func main() {
	flags := parseFlags(flag.CommandLine, os.Args[1:])

	if flags.ShowVersion {
		fmt.Printf("websaver v%s\n", version)
		return
	}

	if err := flags.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, flags); err != nil {
		cancel()
		log.Fatalf("websaver: %v", err)
	}
	cancel()
}

func parseFlags(fs *flag.FlagSet, args []string) *Flags {
	f := &Flags{}

	fs.StringVar(&f.ConfigPath, "config", config.DefaultPath(), "Path to the YAML configuration file")
	fs.StringVar(&f.Add, "add", "", "Save URL and exit")
	fs.StringVar(&f.Title, "title", "", "Title for -add (default: the page's own title)")
	fs.StringVar(&f.Notes, "notes", "", "Notes for -add")
	fs.StringVar(&f.Tags, "tags", "", "Comma separated tags for -add")
	fs.BoolVar(&f.List, "list", false, "Print saved tabs, newest first, and exit")
	fs.StringVar(&f.Filter, "filter", "", "Comma separated tag filter for -list")
	fs.StringVar(&f.URLGlob, "url-glob", "", "Only print URLs matching this glob pattern with -list")
	fs.StringVar(&f.Delete, "delete", "", "Delete the saved tab with this URL and exit")
	fs.StringVar(&f.Export, "export", "", "Write the export to PATH, or - for stdout, and exit")
	fs.BoolVar(&f.Color, "color", false, "Syntax highlight -export - output")
	fs.StringVar(&f.Import, "import", "", "Merge an exported file into the saved tabs and exit")
	fs.BoolVar(&f.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "websaver - save and tag web pages from the terminal\n\n")
		fmt.Fprintf(out, "Usage: websaver [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  WEBSAVER_BACKEND        file, sqlite or memory\n")
		fmt.Fprintf(out, "  WEBSAVER_DATA_DIR       directory holding the saved tabs\n")
		fmt.Fprintf(out, "  WEBSAVER_COMPACT        store records with short field names\n")
		fmt.Fprintf(out, "  WEBSAVER_FETCH_TIMEOUT  page title lookup timeout (e.g. 5s)\n")
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  websaver                                   # interactive mode\n")
		fmt.Fprintf(out, "  websaver -add https://go.dev -tags go,lang\n")
		fmt.Fprintf(out, "  websaver -list -filter go -url-glob '*go.dev*'\n")
		fmt.Fprintf(out, "  websaver -export - -color\n")
	}

	// ExitOnError flag sets never return an error here
	_ = fs.Parse(args)
	return f
}

// mode reports which single action the flags select; "" means interactive.
func (f *Flags) mode() string {
	var modes []string
	if f.Add != "" {
		modes = append(modes, "add")
	}
	if f.List {
		modes = append(modes, "list")
	}
	if f.Delete != "" {
		modes = append(modes, "delete")
	}
	if f.Export != "" {
		modes = append(modes, "export")
	}
	if f.Import != "" {
		modes = append(modes, "import")
	}
	if len(modes) == 0 {
		return ""
	}
	return modes[0]
}

func (f *Flags) validate() error {
	n := 0
	for _, set := range []bool{f.Add != "", f.List, f.Delete != "", f.Export != "", f.Import != ""} {
		if set {
			n++
		}
	}
	if n > 1 {
		return errors.New("-add, -list, -delete, -export and -import are mutually exclusive")
	}
	if (f.Title != "" || f.Notes != "" || f.Tags != "") && f.Add == "" {
		return errors.New("-title, -notes and -tags require -add")
	}
	if (f.Filter != "" || f.URLGlob != "") && !f.List {
		return errors.New("-filter and -url-glob require -list")
	}
	if f.Color && f.Export != "-" {
		return errors.New("-color requires -export -")
	}
	return nil
}

// app bundles everything a command needs.
type app struct {
	cfg    *config.Config
	store  *saved.Store
	titles *pagetitle.Fetcher
	log    *logging.Logger
	close  func() error
}

func newApp(cfg *config.Config) (*app, error) {
	if cfg.Logging.Dir != "" {
		if err := logging.SetDirectory(cfg.Logging.Dir); err != nil {
			return nil, err
		}
	}
	// On error NewLogger still returns a usable stderr logger
	logger, _ := logging.NewLogger("websaver")

	be, err := backend.Open(cfg.Storage)
	if err != nil {
		logger.Close()
		return nil, err
	}

	codecName := wire.Canonical.Name()
	if cfg.Storage.Compact {
		codecName = wire.Compact.Name()
	}
	codec, err := wire.ByName(codecName)
	if err != nil {
		be.Close()
		logger.Close()
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		store: saved.New(be, saved.WithCodec(codec), saved.WithLogger(logger)),
		log:   logger,
		close: func() error {
			err := be.Close()
			logger.Close()
			return err
		},
	}
	if cfg.Fetch.Enabled {
		a.titles = pagetitle.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	}
	logger.Infof("started: backend=%s codec=%s", cfg.Storage.Backend, codec.Name())
	return a, nil
}

func run(ctx context.Context, flags *Flags) error {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	switch flags.mode() {
	case "add":
		return a.add(ctx, os.Stdout, flags)
	case "list":
		return a.list(ctx, os.Stdout, flags.Filter, flags.URLGlob)
	case "delete":
		return a.delete(ctx, os.Stdout, flags.Delete)
	case "export":
		return a.export(ctx, os.Stdout, flags.Export, flags.Color)
	case "import":
		return a.importFile(ctx, os.Stdout, flags.Import)
	}
	return a.runTUI(ctx)
}

func (a *app) runTUI(ctx context.Context) error {
	opts := tui.Options{
		ExportPath:   a.cfg.UI.ExportFileName,
		CopyFeedback: a.cfg.UI.CopyFeedback,
		Logger:       a.log,
	}
	if a.titles != nil {
		opts.Titles = a.titles
	}

	p := tea.NewProgram(tui.New(ctx, a.store, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
